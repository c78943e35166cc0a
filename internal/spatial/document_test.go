package spatial

import (
	"testing"

	"github.com/slipsense/slipsense/internal/geometry"
)

func testDocument() *Document {
	boxes := []geometry.BoundingBox{
		{Text: "Date", X1: 10, Y1: 10, X2: 60, Y2: 30, OriginalIndex: 0},
		{Text: "01/02/2024", X1: 100, Y1: 12, X2: 200, Y2: 32, OriginalIndex: 1},
		{Text: "Total", X1: 10, Y1: 100, X2: 60, Y2: 120, OriginalIndex: 2},
		{Text: "1,500.00", X1: 100, Y1: 102, X2: 200, Y2: 122, OriginalIndex: 3},
		{Text: "To", X1: 10, Y1: 200, X2: 40, Y2: 220, OriginalIndex: 4},
		{Text: "Somchai", X1: 100, Y1: 202, X2: 220, Y2: 222, OriginalIndex: 5},
	}
	return NewDocument(boxes, 600, 400, "slip.json")
}

func TestDocument_InArea(t *testing.T) {
	d := testDocument()
	tests := []struct {
		name           string
		x1, y1, x2, y2 float64
		wantCount      int
	}{
		{"whole page", 0, 0, 600, 400, 6},
		{"top row only", 0, 0, 600, 50, 2},
		{"left column only", 0, 0, 80, 400, 3},
		{"empty region", 300, 300, 400, 400, 0},
		{"inclusive bound at box center", 35, 20, 35, 20, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.InArea(tt.x1, tt.y1, tt.x2, tt.y2)
			if len(got) != tt.wantCount {
				t.Errorf("InArea() returned %d boxes, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestDocument_InNormalizedArea(t *testing.T) {
	d := &Document{Boxes: []geometry.BoundingBox{
		{Text: "a", NormX1: 0.1, NormY1: 0.1, NormX2: 0.2, NormY2: 0.2, OriginalIndex: 0},
		{Text: "b", NormX1: 0.7, NormY1: 0.7, NormX2: 0.9, NormY2: 0.9, OriginalIndex: 1},
	}}
	got := d.InNormalizedArea(0, 0, 0.5, 0.5)
	if len(got) != 1 || got[0].Text != "a" {
		t.Errorf("InNormalizedArea() = %d boxes, want just %q", len(got), "a")
	}
}

func TestDocument_RowOf(t *testing.T) {
	d := testDocument()
	ref := &d.Boxes[0] // "Date"
	row := d.RowOf(ref, geometry.DefaultRowTolerance)
	if len(row) != 1 || row[0].Text != "01/02/2024" {
		t.Fatalf("RowOf() = %v boxes, want the date value", len(row))
	}
}

func TestDocument_RowOf_SortedLeftToRight(t *testing.T) {
	d := &Document{Boxes: []geometry.BoundingBox{
		{Text: "ref", X1: 0, Y1: 0, X2: 10, Y2: 10, OriginalIndex: 0},
		{Text: "far", X1: 200, Y1: 2, X2: 250, Y2: 12, OriginalIndex: 1},
		{Text: "mid", X1: 100, Y1: 1, X2: 150, Y2: 11, OriginalIndex: 2},
	}}
	row := d.RowOf(&d.Boxes[0], 20)
	if len(row) != 2 || row[0].Text != "mid" || row[1].Text != "far" {
		t.Errorf("RowOf() order = %v, want [mid far]", texts(row))
	}
}

func TestDocument_RightOf(t *testing.T) {
	d := testDocument()
	ref := &d.Boxes[2] // "Total"
	right := d.RightOf(ref, geometry.DefaultRowTolerance)
	if len(right) != 1 || right[0].Text != "1,500.00" {
		t.Fatalf("RightOf() = %v, want the amount value", texts(right))
	}
	// Boxes left of the reference never qualify.
	refValue := &d.Boxes[3]
	if got := d.RightOf(refValue, geometry.DefaultRowTolerance); len(got) != 0 {
		t.Errorf("RightOf(value box) = %v, want empty", texts(got))
	}
}

func TestDocument_Below(t *testing.T) {
	d := &Document{Boxes: []geometry.BoundingBox{
		{Text: "label", X1: 10, Y1: 10, X2: 110, Y2: 30, OriginalIndex: 0},
		{Text: "value", X1: 12, Y1: 40, X2: 112, Y2: 60, OriginalIndex: 1},
		{Text: "above", X1: 14, Y1: 0, X2: 114, Y2: 8, OriginalIndex: 2},
	}}
	below := d.Below(&d.Boxes[0], 20)
	if len(below) != 1 || below[0].Text != "value" {
		t.Errorf("Below() = %v, want [value]", texts(below))
	}
}

func TestDocument_Near(t *testing.T) {
	d := testDocument()
	ref := &d.Boxes[0]
	near := d.Near(ref, 50)
	if len(near) != 1 || near[0].Text != "01/02/2024" {
		t.Fatalf("Near() = %v, want the adjacent date value", texts(near))
	}
	all := d.Near(ref, 10000)
	if len(all) != 5 {
		t.Errorf("Near() with large budget = %d boxes, want 5", len(all))
	}
	// Ascending by distance: the same-row neighbor comes first.
	if all[0].Text != "01/02/2024" {
		t.Errorf("Near() first = %q, want nearest box first", all[0].Text)
	}
}

func TestDocument_FindText(t *testing.T) {
	d := testDocument()
	tests := []struct {
		name  string
		query string
		exact bool
		want  int
	}{
		{"substring case-insensitive", "total", false, 1},
		{"exact match", "Total", true, 1},
		{"exact is strict", "Tot", true, 0},
		{"substring partial", "500", false, 1},
		{"no match", "missing", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.FindText(tt.query, tt.exact)
			if len(got) != tt.want {
				t.Errorf("FindText(%q, exact=%v) = %d boxes, want %d", tt.query, tt.exact, len(got), tt.want)
			}
		})
	}
}

func TestDocument_FindAnyText(t *testing.T) {
	d := testDocument()
	got := d.FindAnyText([]string{"Recipient", "To", "Payee"}, true)
	if len(got) != 1 || got[0].Text != "To" {
		t.Fatalf("FindAnyText() = %v, want [To]", texts(got))
	}
	// Overlapping candidates must not duplicate hits.
	got = d.FindAnyText([]string{"total", "tot"}, false)
	if len(got) != 1 {
		t.Errorf("FindAnyText() with overlapping candidates = %d boxes, want 1", len(got))
	}
}

func TestDocument_Text(t *testing.T) {
	d := testDocument()
	want := "Date 01/02/2024 Total 1,500.00 To Somchai"
	if got := d.Text(); got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func texts(boxes []*geometry.BoundingBox) []string {
	out := make([]string, len(boxes))
	for i, b := range boxes {
		out[i] = b.Text
	}
	return out
}
