// Package spatial provides the spatial document model: the full set of
// bounding boxes for one processed image, with geometric and text queries
// used by the pattern matcher.
package spatial

import (
	"sort"
	"strings"
	"time"

	"github.com/slipsense/slipsense/internal/geometry"
)

// Document is one processed page. Boxes keep OCR emission order, not spatial
// order; queries compute their own ordering. A Document is effectively
// read-only once the glyph-cluster merge pass has run; it is not safe to
// mutate while queries are in flight.
type Document struct {
	Boxes      []geometry.BoundingBox `json:"boxes"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	SourcePath string                 `json:"source_path"`
	CreatedAt  time.Time              `json:"created_at"`
	Metadata   map[string]string      `json:"metadata,omitempty"`
}

// NewDocument builds a document from OCR output.
func NewDocument(boxes []geometry.BoundingBox, width, height int, sourcePath string) *Document {
	return &Document{
		Boxes:      boxes,
		Width:      width,
		Height:     height,
		SourcePath: sourcePath,
		CreatedAt:  time.Now(),
		Metadata:   make(map[string]string),
	}
}

// Text joins all fragment texts with single spaces, in emission order.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Boxes))
	for i := range d.Boxes {
		if d.Boxes[i].Text != "" {
			parts = append(parts, d.Boxes[i].Text)
		}
	}
	return strings.Join(parts, " ")
}

// InArea returns all boxes whose center lies within the raw-pixel rectangle,
// bounds inclusive, ordered by original index.
func (d *Document) InArea(x1, y1, x2, y2 float64) []*geometry.BoundingBox {
	var out []*geometry.BoundingBox
	for i := range d.Boxes {
		b := &d.Boxes[i]
		cx, cy := b.CenterX(), b.CenterY()
		if cx >= x1 && cx <= x2 && cy >= y1 && cy <= y2 {
			out = append(out, b)
		}
	}
	sortByIndex(out)
	return out
}

// InNormalizedArea is InArea over the normalized [0,1] rectangle.
func (d *Document) InNormalizedArea(x1, y1, x2, y2 float64) []*geometry.BoundingBox {
	var out []*geometry.BoundingBox
	for i := range d.Boxes {
		b := &d.Boxes[i]
		cx := (b.NormX1 + b.NormX2) / 2
		cy := (b.NormY1 + b.NormY2) / 2
		if cx >= x1 && cx <= x2 && cy >= y1 && cy <= y2 {
			out = append(out, b)
		}
	}
	sortByIndex(out)
	return out
}

// RowOf returns all other boxes horizontally aligned with ref within
// tolerance, sorted left to right (ties by original index).
func (d *Document) RowOf(ref *geometry.BoundingBox, tolerance float64) []*geometry.BoundingBox {
	var out []*geometry.BoundingBox
	for i := range d.Boxes {
		b := &d.Boxes[i]
		if b == ref {
			continue
		}
		if ref.HorizontallyAligned(b, tolerance) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].X1 != out[j].X1 {
			return out[i].X1 < out[j].X1
		}
		return out[i].OriginalIndex < out[j].OriginalIndex
	})
	return out
}

// ColumnOf returns all other boxes vertically aligned with ref within
// tolerance, sorted top to bottom (ties by original index).
func (d *Document) ColumnOf(ref *geometry.BoundingBox, tolerance float64) []*geometry.BoundingBox {
	var out []*geometry.BoundingBox
	for i := range d.Boxes {
		b := &d.Boxes[i]
		if b == ref {
			continue
		}
		if ref.VerticallyAligned(b, tolerance) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y1 != out[j].Y1 {
			return out[i].Y1 < out[j].Y1
		}
		return out[i].OriginalIndex < out[j].OriginalIndex
	})
	return out
}

// RightOf returns row-aligned boxes strictly past ref's right edge,
// left to right.
func (d *Document) RightOf(ref *geometry.BoundingBox, tolerance float64) []*geometry.BoundingBox {
	row := d.RowOf(ref, tolerance)
	out := row[:0]
	for _, b := range row {
		if b.X1 > ref.X2 {
			out = append(out, b)
		}
	}
	return out
}

// Below returns column-aligned boxes strictly past ref's bottom edge,
// top to bottom.
func (d *Document) Below(ref *geometry.BoundingBox, tolerance float64) []*geometry.BoundingBox {
	col := d.ColumnOf(ref, tolerance)
	out := col[:0]
	for _, b := range col {
		if b.Y1 > ref.Y2 {
			out = append(out, b)
		}
	}
	return out
}

// Near returns all other boxes within maxDistance of ref, where distance is
// the Euclidean combination of the two edge-to-edge axis gaps, sorted
// ascending by that distance (ties by original index).
func (d *Document) Near(ref *geometry.BoundingBox, maxDistance float64) []*geometry.BoundingBox {
	type scored struct {
		box  *geometry.BoundingBox
		dist float64
	}
	var hits []scored
	for i := range d.Boxes {
		b := &d.Boxes[i]
		if b == ref {
			continue
		}
		if dist := ref.Distance(b); dist <= maxDistance {
			hits = append(hits, scored{b, dist})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].box.OriginalIndex < hits[j].box.OriginalIndex
	})
	out := make([]*geometry.BoundingBox, len(hits))
	for i, h := range hits {
		out[i] = h.box
	}
	return out
}

// FindText returns boxes whose text matches query, case-insensitive.
// When exact is false a substring match is used. Ordered by original index.
func (d *Document) FindText(query string, exact bool) []*geometry.BoundingBox {
	q := strings.ToLower(query)
	var out []*geometry.BoundingBox
	for i := range d.Boxes {
		b := &d.Boxes[i]
		text := strings.ToLower(b.Text)
		if exact && text == q {
			out = append(out, b)
		} else if !exact && strings.Contains(text, q) {
			out = append(out, b)
		}
	}
	sortByIndex(out)
	return out
}

// FindAnyText returns boxes matching any of the candidate strings; vendors
// phrase the same label differently, so patterns carry several candidates.
func (d *Document) FindAnyText(candidates []string, exact bool) []*geometry.BoundingBox {
	seen := make(map[*geometry.BoundingBox]bool)
	var out []*geometry.BoundingBox
	for _, c := range candidates {
		for _, b := range d.FindText(c, exact) {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	sortByIndex(out)
	return out
}

func sortByIndex(boxes []*geometry.BoundingBox) {
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].OriginalIndex < boxes[j].OriginalIndex
	})
}
