package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/slipsense/slipsense/internal/geometry"
	"github.com/slipsense/slipsense/internal/models"
	"github.com/slipsense/slipsense/internal/patterns"
	"github.com/slipsense/slipsense/internal/spatial"
	"github.com/slipsense/slipsense/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *patterns.Manager) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "patterns.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	m := patterns.NewManager(store)
	return NewEngine(m), m
}

func slipDocument() *spatial.Document {
	boxes := []geometry.BoundingBox{
		{Text: "Date", Confidence: 0.98, X1: 10, Y1: 10, X2: 60, Y2: 30, OriginalIndex: 0},
		{Text: "01/02/2567", Confidence: 0.95, X1: 100, Y1: 12, X2: 200, Y2: 32, OriginalIndex: 1},
		{Text: "Total", Confidence: 0.97, X1: 10, Y1: 100, X2: 60, Y2: 120, OriginalIndex: 2},
		{Text: "1,500.00", Confidence: 0.96, X1: 100, Y1: 102, X2: 200, Y2: 122, OriginalIndex: 3},
		{Text: "บาท", Confidence: 0.91, X1: 210, Y1: 102, X2: 250, Y2: 122, OriginalIndex: 4},
		{Text: "To", Confidence: 0.99, X1: 10, Y1: 200, X2: 40, Y2: 220, OriginalIndex: 5},
		{Text: "Somchai", Confidence: 0.94, X1: 100, Y1: 202, X2: 220, Y2: 222, OriginalIndex: 6},
	}
	return spatial.NewDocument(boxes, 600, 400, "slip.json")
}

func seedSlipPatterns(t *testing.T, m *patterns.Manager) {
	t.Helper()
	ctx := context.Background()
	seed := []*patterns.SearchPattern{
		{Name: "Date", Keywords: []string{"Date", "วันที่"}, ExactKeyword: true, Direction: patterns.DirectionRight},
		{Name: "Total", Keywords: []string{"Total", "จำนวนเงิน"}, ExactKeyword: true, Direction: patterns.DirectionRight},
		{Name: "To", Keywords: []string{"To", "ไปยัง"}, ExactKeyword: true, Direction: patterns.DirectionRight},
		{Name: "Memo", Keywords: []string{"Memo", "Note"}, ExactKeyword: true, Direction: patterns.DirectionRight},
	}
	for _, p := range seed {
		if err := m.SavePattern(ctx, "BankSlips", "KBIZ", p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestEngine_Extract(t *testing.T) {
	engine, m := newTestEngine(t)
	seedSlipPatterns(t, m)

	result := engine.Extract(context.Background(), slipDocument(), "BankSlips", "KBIZ")
	if result.Status != models.StatusSuccess {
		t.Fatalf("Status = %s (%s), want Success", result.Status, result.FailureReason)
	}

	tests := []struct {
		field string
		want  string
	}{
		{"Date", "01/02/2567"},
		{"Total", "1,500.00 บาท"},
		{"To", "Somchai"},
	}
	for _, tt := range tests {
		if got := result.Fields[tt.field]; got != tt.want {
			t.Errorf("Fields[%q] = %q, want %q", tt.field, got, tt.want)
		}
	}

	// A missed pattern is absent, not an error.
	if _, ok := result.Fields["Memo"]; ok {
		t.Error("Memo should be absent when its anchor is missing")
	}
	if result.PatternsAttempted != 4 || result.PatternsMatched != 3 {
		t.Errorf("attempted/matched = %d/%d, want 4/3", result.PatternsAttempted, result.PatternsMatched)
	}
	if rate := result.SuccessRate(); rate != 0.75 {
		t.Errorf("SuccessRate() = %v, want 0.75", rate)
	}
}

func TestEngine_Extract_StructuralFailures(t *testing.T) {
	engine, m := newTestEngine(t)
	seedSlipPatterns(t, m)
	ctx := context.Background()

	tests := []struct {
		name    string
		doc     *spatial.Document
		docType string
		format  string
	}{
		{"unknown format", slipDocument(), "BankSlips", "Unknown"},
		{"unknown document type", slipDocument(), "Invoices", "KBIZ"},
		{"empty document", spatial.NewDocument(nil, 600, 400, "empty.json"), "BankSlips", "KBIZ"},
		{"nil document", nil, "BankSlips", "KBIZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.Extract(ctx, tt.doc, tt.docType, tt.format)
			if result.Status != models.StatusFailed {
				t.Errorf("Status = %s, want Failed", result.Status)
			}
			if result.FailureReason == "" {
				t.Error("structural failure must carry a reason")
			}
			if len(result.Fields) != 0 {
				t.Errorf("structural failure returned %d partial fields, want 0", len(result.Fields))
			}
		})
	}
}

func TestEngine_Extract_ConfidenceFilter(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()
	err := m.SavePattern(ctx, "BankSlips", "KBIZ", &patterns.SearchPattern{
		Name:          "Total",
		Keywords:      []string{"Total"},
		ExactKeyword:  true,
		Direction:     patterns.DirectionRight,
		MinConfidence: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := spatial.NewDocument([]geometry.BoundingBox{
		{Text: "Total", Confidence: 0.99, X1: 10, Y1: 100, X2: 60, Y2: 120, OriginalIndex: 0},
		{Text: "1,500.00", Confidence: 0.5, X1: 100, Y1: 102, X2: 200, Y2: 122, OriginalIndex: 1},
	}, 600, 400, "slip.json")

	result := engine.Extract(ctx, doc, "BankSlips", "KBIZ")
	if _, ok := result.Fields["Total"]; ok {
		t.Error("low-confidence value box must not produce a field")
	}
}

func TestEngine_Extract_AreaPattern(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()
	err := m.SavePattern(ctx, "BankSlips", "KBIZ", &patterns.SearchPattern{
		Name:      "Header",
		Direction: patterns.DirectionArea,
		Region:    &patterns.Region{X1: 0, Y1: 0, X2: 1, Y2: 0.2},
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := spatial.NewDocument([]geometry.BoundingBox{
		{Text: "KBank", Confidence: 0.99, NormX1: 0.1, NormY1: 0.02, NormX2: 0.3, NormY2: 0.08, X1: 60, Y1: 8, X2: 180, Y2: 32, OriginalIndex: 0},
		{Text: "Transfer", Confidence: 0.99, NormX1: 0.35, NormY1: 0.02, NormX2: 0.6, NormY2: 0.08, X1: 210, Y1: 8, X2: 360, Y2: 32, OriginalIndex: 1},
		{Text: "Footer", Confidence: 0.99, NormX1: 0.1, NormY1: 0.9, NormX2: 0.3, NormY2: 0.95, X1: 60, Y1: 360, X2: 180, Y2: 380, OriginalIndex: 2},
	}, 600, 400, "slip.json")

	result := engine.Extract(ctx, doc, "BankSlips", "KBIZ")
	if got := result.Fields["Header"]; got != "KBank Transfer" {
		t.Errorf("Fields[Header] = %q, want %q", got, "KBank Transfer")
	}
}

func TestEngine_Extract_MaxBoxes(t *testing.T) {
	engine, m := newTestEngine(t)
	ctx := context.Background()
	err := m.SavePattern(ctx, "BankSlips", "KBIZ", &patterns.SearchPattern{
		Name:         "Total",
		Keywords:     []string{"Total"},
		ExactKeyword: true,
		Direction:    patterns.DirectionRight,
		MaxBoxes:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	result := engine.Extract(ctx, slipDocument(), "BankSlips", "KBIZ")
	if got := result.Fields["Total"]; got != "1,500.00" {
		t.Errorf("Fields[Total] = %q, want just the first value box", got)
	}
}
