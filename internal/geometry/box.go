// Package geometry defines the bounding box primitive and its spatial predicates.
package geometry

import "math"

// Default alignment tolerances in pixels. Row membership compares vertical
// centers, column membership compares horizontal centers. Rows in slip
// layouts are visually looser than columns, so the row tolerance is larger.
const (
	DefaultRowTolerance    = 20.0
	DefaultColumnTolerance = 10.0
)

// BoundingBox is one recognized text fragment with its raw pixel rectangle,
// the same rectangle normalized to [0,1], and the OCR confidence.
// OriginalIndex is the fragment's position in the raw OCR response, kept for
// traceability. A BoundingBox is immutable once constructed.
type BoundingBox struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`

	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`

	NormX1 float64 `json:"norm_x1"`
	NormY1 float64 `json:"norm_y1"`
	NormX2 float64 `json:"norm_x2"`
	NormY2 float64 `json:"norm_y2"`

	OriginalIndex int `json:"original_index"`
}

// Width returns the raw pixel width.
func (b *BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns the raw pixel height.
func (b *BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Area returns raw width times raw height.
func (b *BoundingBox) Area() int { return b.Width() * b.Height() }

// CenterX returns the horizontal center of the raw rectangle.
func (b *BoundingBox) CenterX() float64 { return float64(b.X1+b.X2) / 2 }

// CenterY returns the vertical center of the raw rectangle.
func (b *BoundingBox) CenterY() float64 { return float64(b.Y1+b.Y2) / 2 }

// HorizontallyAligned reports whether the two boxes share a row: the absolute
// difference between their vertical centers is within tolerance pixels.
// A nil other is never aligned.
func (b *BoundingBox) HorizontallyAligned(other *BoundingBox, tolerance float64) bool {
	if other == nil {
		return false
	}
	return math.Abs(b.CenterY()-other.CenterY()) <= tolerance
}

// VerticallyAligned reports whether the two boxes share a column: the absolute
// difference between their horizontal centers is within tolerance pixels.
// A nil other is never aligned.
func (b *BoundingBox) VerticallyAligned(other *BoundingBox, tolerance float64) bool {
	if other == nil {
		return false
	}
	return math.Abs(b.CenterX()-other.CenterX()) <= tolerance
}

// HorizontalDistance returns the gap between the nearest vertical edges of the
// two boxes, 0 when their horizontal extents overlap, and +Inf for a nil other.
// This is an edge-to-edge gap, not a center distance.
func (b *BoundingBox) HorizontalDistance(other *BoundingBox) float64 {
	if other == nil {
		return math.Inf(1)
	}
	if b.X2 < other.X1 {
		return float64(other.X1 - b.X2)
	}
	if other.X2 < b.X1 {
		return float64(b.X1 - other.X2)
	}
	return 0
}

// VerticalDistance returns the gap between the nearest horizontal edges of the
// two boxes, 0 when their vertical extents overlap, and +Inf for a nil other.
func (b *BoundingBox) VerticalDistance(other *BoundingBox) float64 {
	if other == nil {
		return math.Inf(1)
	}
	if b.Y2 < other.Y1 {
		return float64(other.Y1 - b.Y2)
	}
	if other.Y2 < b.Y1 {
		return float64(b.Y1 - other.Y2)
	}
	return 0
}

// Distance returns the Euclidean distance computed from the two edge-to-edge
// axis gaps. Overlapping boxes are at distance 0.
func (b *BoundingBox) Distance(other *BoundingBox) float64 {
	if other == nil {
		return math.Inf(1)
	}
	h := b.HorizontalDistance(other)
	v := b.VerticalDistance(other)
	return math.Sqrt(h*h + v*v)
}

// Overlaps reports whether the raw rectangles of the two boxes intersect.
// A nil other never overlaps.
func (b *BoundingBox) Overlaps(other *BoundingBox) bool {
	if other == nil {
		return false
	}
	return b.X1 <= other.X2 && other.X1 <= b.X2 &&
		b.Y1 <= other.Y2 && other.Y1 <= b.Y2
}

// HorizontalOverlapRatio returns the overlap of the two boxes' horizontal
// extents as a fraction of the narrower box's width. Used by the glyph-cluster
// merge pass to decide whether a mark sits above/below its base glyph.
func (b *BoundingBox) HorizontalOverlapRatio(other *BoundingBox) float64 {
	if other == nil {
		return 0
	}
	left := max(b.X1, other.X1)
	right := min(b.X2, other.X2)
	if right <= left {
		return 0
	}
	narrower := min(b.Width(), other.Width())
	if narrower <= 0 {
		return 0
	}
	return float64(right-left) / float64(narrower)
}

// Union returns the smallest box covering both inputs. Text, confidence and
// index handling is the caller's concern; the result carries b's values.
func (b *BoundingBox) Union(other *BoundingBox) BoundingBox {
	if other == nil {
		return *b
	}
	return BoundingBox{
		Text:          b.Text,
		Confidence:    b.Confidence,
		X1:            min(b.X1, other.X1),
		Y1:            min(b.Y1, other.Y1),
		X2:            max(b.X2, other.X2),
		Y2:            max(b.Y2, other.Y2),
		NormX1:        math.Min(b.NormX1, other.NormX1),
		NormY1:        math.Min(b.NormY1, other.NormY1),
		NormX2:        math.Max(b.NormX2, other.NormX2),
		NormY2:        math.Max(b.NormY2, other.NormY2),
		OriginalIndex: b.OriginalIndex,
	}
}
