package parser

import (
	"fmt"
	"strings"

	"github.com/slipsense/slipsense/internal/models"
)

// Default acceptance year window. The lower bound is the system launch year;
// it is configuration, not a constant truth, which is why ValidationConfig
// exists.
const (
	DefaultMinYear = 2017
	DefaultMaxYear = 2030
)

// ValidationConfig holds the minimum-acceptance rules.
type ValidationConfig struct {
	MinYear int `yaml:"min_year"`
	MaxYear int `yaml:"max_year"`
}

// DefaultValidationConfig returns the standard window.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{MinYear: DefaultMinYear, MaxYear: DefaultMaxYear}
}

// validate applies the minimum-acceptance rules: date present and within the
// year window, amount strictly positive, recipient (either script) non-blank.
// Failures are recorded as provenance notes on the result, not errors; the
// caller decides whether a failed validation blocks downstream use.
func validate(result *models.BankSlipData, cfg ValidationConfig) bool {
	if result == nil {
		return false
	}
	ok := true

	year := result.TransactionDate.Year()
	if result.TransactionDate.IsZero() || year < cfg.MinYear || year > cfg.MaxYear {
		result.AddNote("validation.date", fmt.Sprintf("year %d outside %d-%d", year, cfg.MinYear, cfg.MaxYear))
		ok = false
	}
	if result.Amount <= 0 {
		result.AddNote("validation.amount", fmt.Sprintf("amount %.2f is not positive", result.Amount))
		ok = false
	}
	if strings.TrimSpace(result.RecipientName) == "" && strings.TrimSpace(result.RecipientNameLatin) == "" {
		result.AddNote("validation.recipient", "recipient is blank")
		ok = false
	}
	return ok
}
