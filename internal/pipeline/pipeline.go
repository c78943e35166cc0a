// Package pipeline runs a decoded OCR response through extraction and
// delivers the structured result to the export sink. It is shared by the
// inbox watcher, the extract subcommand, and the HTTP extract endpoint.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/export"
	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/ocr"
	"github.com/slipsense/slipsense/internal/parser"
	"github.com/slipsense/slipsense/internal/spatial"
	"github.com/slipsense/slipsense/pkg/utils"
)

// Pipeline wires decoding, extraction and export together.
type Pipeline struct {
	parser parser.Parser
	writer *export.XLSXWriter
	logger *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithExporter attaches a workbook sink. Without one, results are returned
// but not persisted anywhere.
func WithExporter(w *export.XLSXWriter) Option {
	return func(p *Pipeline) { p.writer = w }
}

// New builds a pipeline around an extraction strategy.
func New(strategy parser.Parser, opts ...Option) (*Pipeline, error) {
	if strategy == nil {
		return nil, fmt.Errorf("pipeline requires an extraction strategy")
	}
	p := &Pipeline{parser: strategy}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessFile decodes one OCR response file and extracts it. The file may be
// either the plain word-list shape or a stored Document AI response; the
// word-list decoder is tried first.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, fc parser.FormatContext) (*models.BankSlipData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ocr response: %w", err)
	}

	doc, err := decode(data, path)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, doc, fc)
}

// Process extracts an already decoded document and exports the result.
// Extraction itself never returns an error; only the export sink can fail.
func (p *Pipeline) Process(ctx context.Context, doc *spatial.Document, fc parser.FormatContext) (*models.BankSlipData, error) {
	result := p.parser.Extract(ctx, doc, fc)

	if p.logger != nil {
		if doc != nil {
			p.logger.Debug("document text", zap.String("text", utils.Truncate(doc.Text(), 200)))
		}
		p.logger.Info("processed document",
			zap.String("source", result.SourcePath),
			zap.String("status", string(result.Status)),
			zap.String("parser", result.ParserName),
			zap.Float64("pattern_success_rate", result.PatternSuccessRate))
	}

	if p.writer != nil {
		if err := p.writer.Append(result); err != nil {
			return result, fmt.Errorf("failed to export result: %w", err)
		}
	}
	return result, nil
}

func decode(data []byte, path string) (*spatial.Document, error) {
	wordDoc, wordErr := ocr.DecodeWordList(data, path)
	if wordErr == nil && len(wordDoc.Boxes) > 0 {
		return wordDoc, nil
	}
	docaiDoc, docaiErr := ocr.DecodeDocumentAI(data, path)
	if docaiErr == nil {
		return docaiDoc, nil
	}
	if wordErr == nil {
		// A well-formed but empty word list is a structural extraction
		// failure, not a decode error.
		return wordDoc, nil
	}
	return nil, fmt.Errorf("failed to decode %s as word list (%v) or document ai response (%v)",
		filepath.Base(path), wordErr, docaiErr)
}
