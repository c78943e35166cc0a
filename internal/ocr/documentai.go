// Package ocr decodes stored OCR responses into spatial documents. The
// engine never calls an OCR provider directly; it consumes response files
// that an upstream collaborator has already written to disk.
package ocr

import (
	"fmt"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/slipsense/slipsense/internal/geometry"
	"github.com/slipsense/slipsense/internal/spatial"
)

// DecodeDocumentAI parses a stored Document AI response (protojson encoding,
// the format the processor API returns) and converts its first page into a
// spatial document. Transfer slips are single-page images, so only the first
// page is consumed.
func DecodeDocumentAI(data []byte, sourcePath string) (*spatial.Document, error) {
	var doc documentaipb.Document
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document ai response: %w", err)
	}
	return FromDocumentAI(&doc, sourcePath)
}

// FromDocumentAI converts a Document AI proto into a spatial document.
// Token geometry arrives as normalized vertices; pixel coordinates are
// recovered by scaling against the page dimensions.
func FromDocumentAI(doc *documentaipb.Document, sourcePath string) (*spatial.Document, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document ai response contains no pages")
	}

	page := doc.Pages[0]
	dim := page.Dimension
	if dim == nil || dim.Width <= 0 || dim.Height <= 0 {
		return nil, fmt.Errorf("document ai page has no dimensions")
	}

	boxes := make([]geometry.BoundingBox, 0, len(page.Tokens))
	for _, token := range page.Tokens {
		layout := token.Layout
		if layout == nil || layout.BoundingPoly == nil || len(layout.BoundingPoly.NormalizedVertices) < 4 {
			continue
		}
		text := textFromLayout(layout, doc.Text)
		if text == "" {
			continue
		}

		v := layout.BoundingPoly.NormalizedVertices
		box := geometry.BoundingBox{
			Text:          text,
			Confidence:    float64(layout.Confidence),
			OriginalIndex: len(boxes),
			X1:            int(v[0].X*dim.Width + 0.5),
			Y1:            int(v[0].Y*dim.Height + 0.5),
			X2:            int(v[2].X*dim.Width + 0.5),
			Y2:            int(v[2].Y*dim.Height + 0.5),
			NormX1:        float64(v[0].X),
			NormY1:        float64(v[0].Y),
			NormX2:        float64(v[2].X),
			NormY2:        float64(v[2].Y),
		}
		boxes = append(boxes, box)
	}

	return spatial.NewDocument(boxes, int(dim.Width+0.5), int(dim.Height+0.5), sourcePath), nil
}

// textFromLayout resolves a layout's text anchor against the full document
// text. Segment indices are byte offsets into the UTF-8 text.
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	var out []byte
	for _, seg := range layout.TextAnchor.TextSegments {
		start := int(seg.StartIndex)
		end := int(seg.EndIndex)
		if start < 0 {
			start = 0
		}
		if end > len(fullText) {
			end = len(fullText)
		}
		if start >= end {
			continue
		}
		out = append(out, fullText[start:end]...)
	}
	return trimTrailingBreak(string(out))
}

func trimTrailingBreak(s string) string {
	for len(s) > 0 {
		last := s[len(s)-1]
		if last == ' ' || last == '\n' || last == '\r' || last == '\t' {
			s = s[:len(s)-1]
			continue
		}
		break
	}
	return s
}
