package parser

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/extract"
	"github.com/slipsense/slipsense/internal/mapping"
	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/patterns"
	"github.com/slipsense/slipsense/internal/spatial"
)

// PatternBased is the primary strategy: glyph-cluster merge, pattern
// extraction, then semantic mapping.
type PatternBased struct {
	engine         *extract.Engine
	mapper         *mapping.Mapper
	manager        *patterns.Manager
	validation     ValidationConfig
	mergeOpts      spatial.MergeOptions
	rowTol, colTol float64
	logger         *zap.Logger
}

// PatternBasedOption configures the strategy.
type PatternBasedOption func(*PatternBased)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) PatternBasedOption {
	return func(p *PatternBased) { p.logger = l }
}

// WithMergeOptions overrides the glyph-cluster merge tolerances.
func WithMergeOptions(opts spatial.MergeOptions) PatternBasedOption {
	return func(p *PatternBased) { p.mergeOpts = opts }
}

// WithTolerances overrides the fallback row and column alignment tolerances
// for patterns without their own.
func WithTolerances(row, col float64) PatternBasedOption {
	return func(p *PatternBased) {
		p.rowTol = row
		p.colTol = col
	}
}

// NewPatternBased wires the primary strategy. All dependencies are required;
// a nil manager means the strategy cannot be constructed and the caller
// should fall back to Select's emergency substitution.
func NewPatternBased(manager *patterns.Manager, validation ValidationConfig, opts ...PatternBasedOption) *PatternBased {
	if manager == nil {
		return nil
	}
	p := &PatternBased{
		mapper:     mapping.NewMapper(),
		manager:    manager,
		validation: validation,
		mergeOpts:  spatial.DefaultMergeOptions(),
	}
	for _, opt := range opts {
		opt(p)
	}
	engineOpts := []extract.EngineOption{}
	if p.logger != nil {
		engineOpts = append(engineOpts, extract.WithLogger(p.logger))
	}
	if p.rowTol > 0 || p.colTol > 0 {
		engineOpts = append(engineOpts, extract.WithTolerances(p.rowTol, p.colTol))
	}
	p.engine = extract.NewEngine(manager, engineOpts...)
	return p
}

// Name identifies the strategy.
func (p *PatternBased) Name() string { return "pattern-based" }

// CanAttempt requires a document with recognized text and a known format.
func (p *PatternBased) CanAttempt(doc *spatial.Document, fc FormatContext) bool {
	if doc == nil || strings.TrimSpace(doc.Text()) == "" {
		return false
	}
	_, ok := p.manager.Patterns(context.Background(), fc.DocumentType, fc.FormatName)
	return ok
}

// Extract runs the full pipeline over one document. The merge pass runs
// before matching; patterns match on merged word text, not raw OCR tokens.
func (p *PatternBased) Extract(ctx context.Context, doc *spatial.Document, fc FormatContext) *models.BankSlipData {
	sourcePath := ""
	if doc != nil {
		sourcePath = doc.SourcePath
		if merged := doc.MergeGlyphClusters(p.mergeOpts); merged > 0 && p.logger != nil {
			p.logger.Debug("merged glyph clusters", zap.Int("count", merged), zap.String("source", sourcePath))
		}
	}

	generic := p.engine.Extract(ctx, doc, fc.DocumentType, fc.FormatName)

	dualLang := false
	if info := p.manager.FormatInfo(ctx, fc.DocumentType, fc.FormatName); info != nil {
		dualLang = info.DualLang
	}

	result := p.mapper.Map(generic, sourcePath, dualLang)
	result.ParserName = p.Name()
	if result.Status != models.StatusFailed && validate(result, p.validation) {
		result.Status = models.StatusCompleted
	}
	return result
}

// Validate re-applies the acceptance rules to any result.
func (p *PatternBased) Validate(result *models.BankSlipData) bool {
	return validate(result, p.validation)
}
