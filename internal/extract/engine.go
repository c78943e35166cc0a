// Package extract runs a format's named patterns against a spatial document
// to produce the flat generic field set.
package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/geometry"
	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/patterns"
	"github.com/slipsense/slipsense/internal/spatial"
)

// Engine applies pattern sub-collections to spatial documents. Stateless
// apart from its dependencies; safe to use concurrently across independent
// documents.
type Engine struct {
	manager *patterns.Manager
	logger  *zap.Logger
	rowTol  float64
	colTol  float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for per-pattern debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithTolerances overrides the fallback alignment tolerances used by
// patterns that carry no tolerance of their own.
func WithTolerances(row, col float64) EngineOption {
	return func(e *Engine) {
		if row > 0 {
			e.rowTol = row
		}
		if col > 0 {
			e.colTol = col
		}
	}
}

// NewEngine creates an engine reading patterns through the given manager.
func NewEngine(manager *patterns.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		manager: manager,
		rowTol:  geometry.DefaultRowTolerance,
		colTol:  geometry.DefaultColumnTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every pattern of (docType, format) against doc independently.
// Individual pattern misses are recorded as absence and never abort the run;
// only structural preconditions (unknown type/format, empty document) fail
// the whole result.
func (e *Engine) Extract(ctx context.Context, doc *spatial.Document, docType, format string) *models.GenericDocumentData {
	result := models.NewGenericDocumentData(docType, format)

	if doc == nil || strings.TrimSpace(doc.Text()) == "" {
		return result.Fail("document contains no recognized text")
	}

	pats, ok := e.manager.Patterns(ctx, docType, format)
	if !ok {
		return result.Fail(fmt.Sprintf("unknown document type or format: %s/%s", docType, format))
	}
	if len(pats) == 0 {
		return result.Fail(fmt.Sprintf("no patterns configured for %s/%s", docType, format))
	}

	// Deterministic attempt order.
	names := make([]string, 0, len(pats))
	for name := range pats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		result.PatternsAttempted++
		value, ok := e.apply(doc, pats[name])
		if !ok {
			if e.logger != nil {
				e.logger.Debug("pattern missed", zap.String("pattern", name), zap.String("source", doc.SourcePath))
			}
			continue
		}
		result.PatternsMatched++
		result.Fields[name] = value
	}
	return result
}

// apply runs one pattern and returns the extracted text. A miss is a value,
// not an error.
func (e *Engine) apply(doc *spatial.Document, p *patterns.SearchPattern) (string, bool) {
	if p == nil {
		return "", false
	}

	var boxes []*geometry.BoundingBox
	switch p.Direction {
	case patterns.DirectionArea:
		if p.Region == nil {
			return "", false
		}
		boxes = doc.InNormalizedArea(p.Region.X1, p.Region.Y1, p.Region.X2, p.Region.Y2)
	case patterns.DirectionRight, patterns.DirectionBelow:
		anchor := e.findAnchor(doc, p)
		if anchor == nil {
			return "", false
		}
		if p.Direction == patterns.DirectionRight {
			boxes = doc.RightOf(anchor, p.EffectiveTolerance(e.rowTol))
		} else {
			boxes = doc.Below(anchor, p.EffectiveTolerance(e.colTol))
		}
	default:
		return "", false
	}

	parts := make([]string, 0, len(boxes))
	for _, b := range boxes {
		if p.MinConfidence > 0 && b.Confidence < p.MinConfidence {
			continue
		}
		if text := strings.TrimSpace(b.Text); text != "" {
			parts = append(parts, text)
		}
		if p.MaxBoxes > 0 && len(parts) >= p.MaxBoxes {
			break
		}
	}
	if len(parts) == 0 {
		return "", false
	}

	sep := p.Separator
	if sep == "" {
		sep = " "
	}
	return strings.Join(parts, sep), true
}

// findAnchor locates the pattern's keyword box. With several keyword hits the
// earliest by original index wins, keeping extraction reproducible.
func (e *Engine) findAnchor(doc *spatial.Document, p *patterns.SearchPattern) *geometry.BoundingBox {
	if len(p.Keywords) == 0 {
		return nil
	}
	hits := doc.FindAnyText(p.Keywords, p.ExactKeyword)
	if len(hits) == 0 {
		return nil
	}
	return hits[0]
}
