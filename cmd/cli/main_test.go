package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

func TestBuildValuer_LoadsPricesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	contents := "date,asset,price\n2024-06-10,BTC,16000\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("failed to write prices file: %v", err)
	}

	valuer, err := buildValuer(path)
	if err != nil {
		t.Fatalf("buildValuer() error = %v", err)
	}

	at := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	value, fixed, err := valuer.GetValue(context.Background(), "BTC", at, decimal.NewFromInt(2))
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if !value.Equal(decimal.NewFromInt(32000)) {
		t.Fatalf("expected value 32000, got %s", value)
	}
	if fixed {
		t.Fatal("table prices are not fixed values")
	}
}

func TestBuildValuer_MissingFile(t *testing.T) {
	if _, err := buildValuer("/nonexistent/prices.csv"); err == nil {
		t.Fatal("expected an error for a missing prices file")
	}
}

func TestPrintReport(t *testing.T) {
	rep := &usecase.Report{
		TaxYears: []int{2024},
		CapitalGains: map[int]*usecase.CapitalGainsReport{
			2024: {
				TaxYear: "2024/25",
				ShortTerm: []*domain.CapitalGainsEvent{{
					Asset: "BTC",
					Gain:  decimal.NewFromInt(6000),
				}},
				ShortTermTotals: usecase.GainsTotals{Gain: decimal.NewFromInt(6000)},
				TaxableTotals:   usecase.GainsTotals{Gain: decimal.NewFromInt(6000)},
			},
		},
		Income: map[int]*usecase.IncomeReport{2024: {TaxYear: "2024/25"}},
		Margin: map[int]*usecase.MarginReport{2024: {TaxYear: "2024/25"}},
		HoldingValuations: []usecase.HoldingValuation{
			{Asset: "ETH", Quantity: decimal.NewFromInt(2), Cost: decimal.NewFromInt(3000)},
		},
		UnmatchedDisposals: true,
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	out := buf.String()

	for _, want := range []string{
		"Tax year 2024/25",
		"Short-term: 1 disposals, gain 6000",
		"ETH: 2 (cost 3000, unpriced)",
		"WARNING: some disposals could not be matched",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintHoldings_Empty(t *testing.T) {
	var buf bytes.Buffer
	printHoldings(&buf, &usecase.Report{})

	if buf.Len() != 0 {
		t.Fatalf("expected no output for empty holdings, got %q", buf.String())
	}
}
