package ocr

import (
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

func TestDecodeWordList(t *testing.T) {
	data := []byte(`{
		"width": 1000,
		"height": 500,
		"words": [
			{"text": "Date", "confidence": 0.98, "rect": [100, 50, 200, 80]},
			{"text": "", "confidence": 0.5, "rect": [0, 0, 10, 10]},
			{"text": "01/02/2567", "confidence": 0.95, "rect": [250, 50, 450, 80],
			 "normalized_rect": [0.25, 0.1, 0.45, 0.16]}
		]
	}`)

	doc, err := DecodeWordList(data, "slip.json")
	if err != nil {
		t.Fatalf("DecodeWordList() error = %v", err)
	}
	if len(doc.Boxes) != 2 {
		t.Fatalf("len(Boxes) = %d, want 2 (empty text dropped)", len(doc.Boxes))
	}
	if doc.Width != 1000 || doc.Height != 500 {
		t.Errorf("dimensions = %dx%d", doc.Width, doc.Height)
	}
	if doc.SourcePath != "slip.json" {
		t.Errorf("SourcePath = %q", doc.SourcePath)
	}

	first := doc.Boxes[0]
	if first.Text != "Date" || first.OriginalIndex != 0 {
		t.Errorf("first box = %q index %d", first.Text, first.OriginalIndex)
	}
	// Normalized corners are derived when the file omits them.
	if first.NormX1 != 0.1 || first.NormY1 != 0.1 || first.NormX2 != 0.2 || first.NormY2 != 0.16 {
		t.Errorf("derived normalized rect = (%v, %v, %v, %v)",
			first.NormX1, first.NormY1, first.NormX2, first.NormY2)
	}

	second := doc.Boxes[1]
	if second.OriginalIndex != 1 {
		t.Errorf("second index = %d, want contiguous reindexing", second.OriginalIndex)
	}
	if second.NormX1 != 0.25 {
		t.Errorf("explicit normalized rect ignored, NormX1 = %v", second.NormX1)
	}
}

func TestDecodeWordList_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"width": 1000,`},
		{"missing dimensions", `{"words": [{"text": "x", "rect": [0, 0, 1, 1]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeWordList([]byte(tt.data), ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func tokenAt(start, end int32, conf float32, x1, y1, x2, y2 float32) *documentaipb.Document_Page_Token {
	return &documentaipb.Document_Page_Token{
		Layout: &documentaipb.Document_Page_Layout{
			Confidence: conf,
			TextAnchor: &documentaipb.Document_TextAnchor{
				TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{
					{StartIndex: int64(start), EndIndex: int64(end)},
				},
			},
			BoundingPoly: &documentaipb.BoundingPoly{
				NormalizedVertices: []*documentaipb.NormalizedVertex{
					{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2},
				},
			},
		},
	}
}

func TestFromDocumentAI(t *testing.T) {
	doc := &documentaipb.Document{
		Text: "Date 1,500.00\n",
		Pages: []*documentaipb.Document_Page{
			{
				Dimension: &documentaipb.Document_Page_Dimension{Width: 1000, Height: 500},
				Tokens: []*documentaipb.Document_Page_Token{
					tokenAt(0, 5, 0.98, 0.1, 0.1, 0.2, 0.15),
					tokenAt(5, 14, 0.92, 0.3, 0.1, 0.5, 0.15),
				},
			},
		},
	}

	got, err := FromDocumentAI(doc, "resp.json")
	if err != nil {
		t.Fatalf("FromDocumentAI() error = %v", err)
	}
	if len(got.Boxes) != 2 {
		t.Fatalf("len(Boxes) = %d, want 2", len(got.Boxes))
	}

	first := got.Boxes[0]
	// Trailing whitespace from the detected break is trimmed.
	if first.Text != "Date" {
		t.Errorf("first text = %q, want %q", first.Text, "Date")
	}
	if first.X1 != 100 || first.Y1 != 50 || first.X2 != 200 || first.Y2 != 75 {
		t.Errorf("first pixel rect = (%d, %d, %d, %d)", first.X1, first.Y1, first.X2, first.Y2)
	}
	if first.NormX1 != 0.1 {
		t.Errorf("NormX1 = %v", first.NormX1)
	}
	if first.Confidence < 0.97 || first.Confidence > 0.99 {
		t.Errorf("Confidence = %v", first.Confidence)
	}

	second := got.Boxes[1]
	if second.Text != "1,500.00" {
		t.Errorf("second text = %q", second.Text)
	}
	if second.OriginalIndex != 1 {
		t.Errorf("second index = %d", second.OriginalIndex)
	}
	if got.Width != 1000 || got.Height != 500 {
		t.Errorf("dimensions = %dx%d", got.Width, got.Height)
	}
}

func TestFromDocumentAI_Errors(t *testing.T) {
	if _, err := FromDocumentAI(nil, ""); err == nil {
		t.Error("nil document must fail")
	}
	if _, err := FromDocumentAI(&documentaipb.Document{}, ""); err == nil {
		t.Error("pageless document must fail")
	}
	noDim := &documentaipb.Document{Pages: []*documentaipb.Document_Page{{}}}
	if _, err := FromDocumentAI(noDim, ""); err == nil {
		t.Error("page without dimensions must fail")
	}
}

func TestDecodeDocumentAI_Malformed(t *testing.T) {
	if _, err := DecodeDocumentAI([]byte("not json"), ""); err == nil {
		t.Error("malformed payload must fail")
	}
}
