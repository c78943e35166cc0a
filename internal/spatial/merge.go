package spatial

import (
	"sort"

	"github.com/slipsense/slipsense/internal/geometry"
)

// Merge tolerances. Thai OCR output often splits a base glyph from the vowel
// and tone marks stacked above or below it; fragments closer than MaxGap on
// the vertical axis whose horizontal extents overlap by at least MinOverlap
// belong to the same logical word.
const (
	DefaultMergeMaxGap     = 5.0
	DefaultMergeMinOverlap = 0.5
)

// MergeOptions tune the glyph-cluster merge pass.
type MergeOptions struct {
	MaxGap     float64
	MinOverlap float64
}

// DefaultMergeOptions returns the standard tolerances.
func DefaultMergeOptions() MergeOptions {
	return MergeOptions{MaxGap: DefaultMergeMaxGap, MinOverlap: DefaultMergeMinOverlap}
}

// HasThaiContent reports whether any fragment contains a code point in the
// Thai Unicode block. When false the merge pass is a no-op.
func (d *Document) HasThaiContent() bool {
	for i := range d.Boxes {
		for _, r := range d.Boxes[i].Text {
			if r >= 0x0E00 && r <= 0x0E7F {
				return true
			}
		}
	}
	return false
}

// MergeGlyphClusters fuses fragments that OCR split incorrectly (a base
// character and its diacritic marks) into single logical words, replacing the
// originals in place. The merged rectangle is the union of the inputs and the
// merged confidence is the minimum of the set, so a low-confidence fragment is
// never masked. Running the pass on an already-merged document changes
// nothing. Must run before pattern matching.
func (d *Document) MergeGlyphClusters(opts MergeOptions) int {
	if !d.HasThaiContent() {
		return 0
	}

	merged := 0
	for {
		i, j, ok := d.findMergeablePair(opts)
		if !ok {
			break
		}
		d.mergePair(i, j)
		merged++
	}
	return merged
}

// findMergeablePair scans for the first pair of fragments whose vertical gap
// and horizontal overlap are within tolerance. Candidates are taken in
// top-to-bottom order so the upper fragment's text comes first.
func (d *Document) findMergeablePair(opts MergeOptions) (int, int, bool) {
	for i := range d.Boxes {
		for j := range d.Boxes {
			if i == j {
				continue
			}
			a, b := &d.Boxes[i], &d.Boxes[j]
			if a.Y1 > b.Y1 {
				continue // only consider a above b
			}
			if a.VerticalDistance(b) > opts.MaxGap {
				continue
			}
			if a.HorizontalOverlapRatio(b) < opts.MinOverlap {
				continue
			}
			return i, j, true
		}
	}
	return 0, 0, false
}

// mergePair replaces boxes i and j with one merged box at position min(i,j).
func (d *Document) mergePair(i, j int) {
	if i > j {
		i, j = j, i
	}
	a, b := d.Boxes[i], d.Boxes[j]

	// Concatenate in emission order so a combining mark emitted after its
	// base stays after it in the merged word.
	first, second := a, b
	if b.OriginalIndex < a.OriginalIndex {
		first, second = b, a
	}

	union := a.Union(&b)
	union.Text = first.Text + second.Text
	union.Confidence = min(a.Confidence, b.Confidence)
	union.OriginalIndex = min(a.OriginalIndex, b.OriginalIndex)

	d.Boxes[i] = union
	d.Boxes = append(d.Boxes[:j], d.Boxes[j+1:]...)
}

// SortedByReadingOrder returns a copy of the boxes sorted top-to-bottom then
// left-to-right. The document's own order stays OCR emission order.
func (d *Document) SortedByReadingOrder() []geometry.BoundingBox {
	out := make([]geometry.BoundingBox, len(d.Boxes))
	copy(out, d.Boxes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y1 != out[j].Y1 {
			return out[i].Y1 < out[j].Y1
		}
		return out[i].X1 < out[j].X1
	})
	return out
}
