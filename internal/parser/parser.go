// Package parser holds the extraction strategy family: the pattern-based
// primary, the always-failing emergency fallback, selection between them, and
// minimum-acceptance validation.
package parser

import (
	"context"

	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/spatial"
)

// FormatContext identifies which pattern set a parser should use.
type FormatContext struct {
	DocumentType string `json:"document_type"`
	FormatName   string `json:"format_name"`
}

// Parser is the capability set every extraction strategy implements. The
// closed set of strategies is {pattern-based, emergency fallback}; legacy
// per-vendor parsers are superseded.
type Parser interface {
	// CanAttempt reports whether the strategy can run against the document.
	CanAttempt(doc *spatial.Document, fc FormatContext) bool
	// Extract produces a structured result. Failures are result values with
	// a Failed status, never errors.
	Extract(ctx context.Context, doc *spatial.Document, fc FormatContext) *models.BankSlipData
	// Name identifies the strategy for provenance.
	Name() string
	// Validate applies minimum-acceptance rules to a result.
	Validate(result *models.BankSlipData) bool
}

// Select returns the strategy to run. When the primary cannot be constructed
// (a wiring failure, not a data failure) the emergency parser takes over so
// the failure is loud: every emergency record is Failed and never validates.
func Select(primary Parser, logger *zap.Logger) Parser {
	if primary != nil {
		return primary
	}
	if logger != nil {
		logger.Error("primary parser unavailable, substituting emergency parser")
	}
	return NewEmergency()
}
