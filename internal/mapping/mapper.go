package mapping

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/models"
)

// Slot is one semantic target of the bank-slip domain. The closed set keeps
// the mapping exhaustive instead of convention-driven string lookup.
type Slot string

const (
	SlotDate            Slot = "date"
	SlotAmount          Slot = "amount"
	SlotRecipient       Slot = "recipient"
	SlotRecipientLatin  Slot = "recipient_latin"
	SlotSenderAccount   Slot = "sender_account"
	SlotReceiverAccount Slot = "receiver_account"
	SlotMemo            Slot = "memo"
)

// candidates lists, per slot, the generic field names tried in order; the
// first present non-blank field wins and later candidates are never tried.
// Fee stands in for a missing Total only as a last resort; its use is
// recorded in the amount.source note.
var candidates = map[Slot][]string{
	SlotDate:            {"Date", "TransactionDate", "Time", "DateTime", "When"},
	SlotAmount:          {"Total", "Amount", "GrandTotal", "NetAmount", "Fee", "Cost"},
	SlotRecipient:       {"To", "Recipient", "ReceiverName", "Payee", "Beneficiary"},
	SlotRecipientLatin:  {"ToEN", "RecipientEN", "ReceiverNameEN", "PayeeEN"},
	SlotSenderAccount:   {"From", "FromAccount", "SenderAccount"},
	SlotReceiverAccount: {"ToAccount", "ReceiverAccount", "AccountNumber"},
	SlotMemo:            {"Memo", "Note", "Remark"},
}

// recipientBoilerplate holds label artifacts OCR sometimes glues onto the
// recipient value; both English and Thai forms are stripped.
var recipientBoilerplate = []string{
	"amount:", "fee:", "to:",
	"จำนวน:", "ค่าธรรมเนียม:", "ไปยัง:",
}

// Mapper maps generic extraction results onto BankSlipData.
type Mapper struct {
	logger *zap.Logger
}

// MapperOption configures a Mapper.
type MapperOption func(*Mapper)

// WithLogger sets a logger for mapping diagnostics.
func WithLogger(l *zap.Logger) MapperOption {
	return func(m *Mapper) { m.logger = l }
}

// NewMapper returns a mapper.
func NewMapper(opts ...MapperOption) *Mapper {
	m := &Mapper{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Map walks the per-slot candidate tables over the generic field set and
// builds the structured result. dualLang enables the transliterated recipient
// variant for formats flagged as dual-language. sourcePath is used for the
// last-modified date fallback. Every successful mapping records its source
// field and raw text in the result's notes; fields with no mapping target are
// preserved under the unmapped namespace.
func (m *Mapper) Map(generic *models.GenericDocumentData, sourcePath string, dualLang bool) *models.BankSlipData {
	// Status starts at Success; the parser promotes to Completed only after
	// minimum-acceptance validation passes.
	result := &models.BankSlipData{
		ID:          uuid.New().String(),
		Status:      models.StatusSuccess,
		SourcePath:  sourcePath,
		ProcessedAt: time.Now(),
	}

	if generic == nil || generic.Status == models.StatusFailed {
		result.Status = models.StatusFailed
		if generic != nil {
			result.ErrorReason = generic.FailureReason
		}
		return result
	}
	result.PatternSuccessRate = generic.SuccessRate()

	consumed := make(map[string]bool)
	m.mapDate(generic, result, sourcePath, consumed)
	m.mapAmount(generic, result, consumed)
	m.mapRecipient(generic, result, dualLang, consumed)
	m.mapText(generic, result, SlotSenderAccount, &result.SenderAccount, consumed)
	m.mapText(generic, result, SlotReceiverAccount, &result.ReceiverAccount, consumed)
	m.mapText(generic, result, SlotMemo, &result.Memo, consumed)

	// Preserve leftovers for debugging and future pattern authoring.
	for name, value := range generic.Fields {
		if !consumed[name] {
			result.AddNote("unmapped."+name, value)
		}
	}
	return result
}

// firstCandidate returns the first present, non-blank field for slot.
func firstCandidate(generic *models.GenericDocumentData, slot Slot) (name, value string, ok bool) {
	for _, candidate := range candidates[slot] {
		if v, present := generic.Fields[candidate]; present && strings.TrimSpace(v) != "" {
			return candidate, v, true
		}
	}
	return "", "", false
}

// mapDate tries each date candidate through ParseDate; when none parses it
// falls back to the source file's last-modified time, then to the processing
// time. A missing date never leaves the result with a zero date.
func (m *Mapper) mapDate(generic *models.GenericDocumentData, result *models.BankSlipData, sourcePath string, consumed map[string]bool) {
	for _, candidate := range candidates[SlotDate] {
		raw, present := generic.Fields[candidate]
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}
		consumed[candidate] = true
		if t, ok := ParseDate(raw); ok {
			result.TransactionDate = t
			result.AddNote("date.source", candidate)
			result.AddNote("date.raw", raw)
			return
		}
		result.AddNote("date.unparseable."+candidate, raw)
	}

	if info, err := os.Stat(sourcePath); err == nil {
		result.TransactionDate = info.ModTime()
		result.AddNote("date.fallback", "source file modification time")
		return
	}
	result.TransactionDate = result.ProcessedAt
	result.AddNote("date.fallback", "processing time; source file unavailable")
	if m.logger != nil {
		m.logger.Warn("no parseable date, using processing time", zap.String("source", sourcePath))
	}
}

// mapAmount takes the first candidate that parses; once one succeeds, later
// candidates are not tried.
func (m *Mapper) mapAmount(generic *models.GenericDocumentData, result *models.BankSlipData, consumed map[string]bool) {
	for _, candidate := range candidates[SlotAmount] {
		raw, present := generic.Fields[candidate]
		if !present || strings.TrimSpace(raw) == "" {
			continue
		}
		consumed[candidate] = true
		if value, ok := ParseAmount(raw); ok {
			result.Amount = value
			result.AddNote("amount.source", candidate)
			result.AddNote("amount.raw", raw)
			return
		}
		result.AddNote("amount.unparseable."+candidate, raw)
	}
}

// mapRecipient strips label boilerplate before accepting; the dual-script
// variant is attempted only for dual-language formats.
func (m *Mapper) mapRecipient(generic *models.GenericDocumentData, result *models.BankSlipData, dualLang bool, consumed map[string]bool) {
	if name, raw, ok := firstCandidate(generic, SlotRecipient); ok {
		consumed[name] = true
		result.RecipientName = stripBoilerplate(raw)
		result.AddNote("recipient.source", name)
		result.AddNote("recipient.raw", raw)
	}
	if !dualLang {
		return
	}
	if name, raw, ok := firstCandidate(generic, SlotRecipientLatin); ok {
		consumed[name] = true
		result.RecipientNameLatin = stripBoilerplate(raw)
		result.AddNote("recipient_latin.source", name)
	}
}

// mapText maps a plain text slot with provenance.
func (m *Mapper) mapText(generic *models.GenericDocumentData, result *models.BankSlipData, slot Slot, target *string, consumed map[string]bool) {
	if name, raw, ok := firstCandidate(generic, slot); ok {
		consumed[name] = true
		*target = strings.TrimSpace(raw)
		result.AddNote(string(slot)+".source", name)
	}
}

func stripBoilerplate(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range recipientBoilerplate {
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}
