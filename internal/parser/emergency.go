package parser

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/spatial"
)

// EmergencyMarker is the operator-visible text planted in the recipient field
// of every emergency record, so it cannot be mistaken for a normal success.
const EmergencyMarker = "!! EMERGENCY PARSER - MANUAL REVIEW REQUIRED !!"

// Emergency is the deliberately-failing fallback strategy used only when the
// primary cannot be constructed. Every record it produces is Failed and never
// validates, guaranteeing routing to manual review.
type Emergency struct{}

// NewEmergency returns the emergency strategy.
func NewEmergency() *Emergency { return &Emergency{} }

// Name identifies the strategy.
func (e *Emergency) Name() string { return "emergency-fallback" }

// CanAttempt accepts any document with non-blank text.
func (e *Emergency) CanAttempt(doc *spatial.Document, _ FormatContext) bool {
	return doc != nil && strings.TrimSpace(doc.Text()) != ""
}

// Extract always produces a Failed record with the marker text.
func (e *Emergency) Extract(_ context.Context, doc *spatial.Document, fc FormatContext) *models.BankSlipData {
	sourcePath := ""
	if doc != nil {
		sourcePath = doc.SourcePath
	}
	result := &models.BankSlipData{
		ID:            uuid.New().String(),
		RecipientName: EmergencyMarker,
		ParserName:    e.Name(),
		Status:        models.StatusFailed,
		ErrorReason:   "primary extraction strategy unavailable",
		SourcePath:    sourcePath,
		ProcessedAt:   time.Now(),
	}
	result.AddNote("emergency", "record requires manual review")
	result.AddNote("format", fc.DocumentType+"/"+fc.FormatName)
	return result
}

// Validate is unconditionally false.
func (e *Emergency) Validate(*models.BankSlipData) bool { return false }
