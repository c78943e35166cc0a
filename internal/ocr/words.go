package ocr

import (
	"encoding/json"
	"fmt"

	"github.com/slipsense/slipsense/internal/geometry"
	"github.com/slipsense/slipsense/internal/spatial"
)

// WordList is the engine's plain input shape: one recognized word per entry
// with pixel geometry, produced by any upstream OCR step. It is the decoded
// form of the response files dropped into the inbox.
type WordList struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Words  []Word `json:"words"`
}

// Word is one recognized fragment. Rect is [x1, y1, x2, y2] in pixels;
// NormalizedRect is the same corners scaled to [0, 1] and may be omitted,
// in which case it is derived from Rect and the image dimensions.
type Word struct {
	Text           string     `json:"text"`
	Confidence     float64    `json:"confidence"`
	Rect           [4]int     `json:"rect"`
	NormalizedRect [4]float64 `json:"normalized_rect,omitempty"`
}

// DecodeWordList parses a word-list response file into a spatial document.
// Entry order is preserved as the document's emission order.
func DecodeWordList(data []byte, sourcePath string) (*spatial.Document, error) {
	var list WordList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse word list: %w", err)
	}
	return FromWordList(list, sourcePath)
}

// FromWordList converts an already decoded word list into a spatial document.
func FromWordList(list WordList, sourcePath string) (*spatial.Document, error) {
	if list.Width <= 0 || list.Height <= 0 {
		return nil, fmt.Errorf("word list has no image dimensions")
	}

	boxes := make([]geometry.BoundingBox, 0, len(list.Words))
	for _, w := range list.Words {
		if w.Text == "" {
			continue
		}
		norm := w.NormalizedRect
		if norm == ([4]float64{}) {
			norm = [4]float64{
				float64(w.Rect[0]) / float64(list.Width),
				float64(w.Rect[1]) / float64(list.Height),
				float64(w.Rect[2]) / float64(list.Width),
				float64(w.Rect[3]) / float64(list.Height),
			}
		}
		boxes = append(boxes, geometry.BoundingBox{
			Text:          w.Text,
			Confidence:    w.Confidence,
			OriginalIndex: len(boxes),
			X1:            w.Rect[0],
			Y1:            w.Rect[1],
			X2:            w.Rect[2],
			Y2:            w.Rect[3],
			NormX1:        norm[0],
			NormY1:        norm[1],
			NormX2:        norm[2],
			NormY2:        norm[3],
		})
	}

	return spatial.NewDocument(boxes, list.Width, list.Height, sourcePath), nil
}
