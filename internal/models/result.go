// Package models defines the extraction result types shared across the engine,
// the semantic mapper, and the parser chain.
package models

import "time"

// ExtractionStatus is the outcome of a document-level extraction attempt.
type ExtractionStatus string

const (
	// StatusSuccess means the structural preconditions held and patterns ran.
	StatusSuccess ExtractionStatus = "Success"
	// StatusCompleted means semantic mapping produced an accepted result.
	StatusCompleted ExtractionStatus = "Completed"
	// StatusFailed means a structural precondition failed or the emergency
	// path was taken.
	StatusFailed ExtractionStatus = "Failed"
)

// GenericDocumentData is the flat field set produced by running a format's
// named patterns against a spatial document, before semantic mapping.
// A pattern that did not match is simply absent from Fields; absence is not
// an error.
type GenericDocumentData struct {
	DocumentType  string            `json:"document_type"`
	FormatName    string            `json:"format_name"`
	Fields        map[string]string `json:"fields"`
	Notes         map[string]string `json:"notes,omitempty"`
	Status        ExtractionStatus  `json:"status"`
	FailureReason string            `json:"failure_reason,omitempty"`

	// Bookkeeping for the pattern success rate on the structured result.
	PatternsAttempted int `json:"patterns_attempted"`
	PatternsMatched   int `json:"patterns_matched"`
}

// NewGenericDocumentData returns an empty successful result for the given
// document type and format.
func NewGenericDocumentData(docType, format string) *GenericDocumentData {
	return &GenericDocumentData{
		DocumentType: docType,
		FormatName:   format,
		Fields:       make(map[string]string),
		Notes:        make(map[string]string),
		Status:       StatusSuccess,
	}
}

// Fail marks the result failed with a reason and clears any partial fields;
// a structural failure returns no fields at all.
func (g *GenericDocumentData) Fail(reason string) *GenericDocumentData {
	g.Status = StatusFailed
	g.FailureReason = reason
	g.Fields = make(map[string]string)
	return g
}

// SuccessRate returns matched/attempted in [0,1]; 0 when nothing ran.
func (g *GenericDocumentData) SuccessRate() float64 {
	if g.PatternsAttempted == 0 {
		return 0
	}
	return float64(g.PatternsMatched) / float64(g.PatternsAttempted)
}

// BankSlipData is the structured result of mapping generic fields onto the
// bank-transfer-slip domain. Notes carry per-field provenance: which pattern
// produced each value and what fallbacks were taken.
type BankSlipData struct {
	ID                 string            `json:"id"`
	TransactionDate    time.Time         `json:"transaction_date"`
	Amount             float64           `json:"amount"`
	RecipientName      string            `json:"recipient_name"`
	RecipientNameLatin string            `json:"recipient_name_latin,omitempty"`
	SenderAccount      string            `json:"sender_account,omitempty"`
	ReceiverAccount    string            `json:"receiver_account,omitempty"`
	Memo               string            `json:"memo,omitempty"`
	ParserName         string            `json:"parser_name"`
	Notes              map[string]string `json:"notes,omitempty"`
	Status             ExtractionStatus  `json:"status"`
	ErrorReason        string            `json:"error_reason,omitempty"`
	PatternSuccessRate float64           `json:"pattern_success_rate"`
	SourcePath         string            `json:"source_path,omitempty"`
	ProcessedAt        time.Time         `json:"processed_at"`
}

// AddNote records a provenance note, creating the map on first use.
func (b *BankSlipData) AddNote(key, value string) {
	if b.Notes == nil {
		b.Notes = make(map[string]string)
	}
	b.Notes[key] = value
}
