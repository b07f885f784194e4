package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/infrastructure/config"
	"github.com/iho/cryptotax/internal/usecase"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.CostBasisMethod != "FIFO" {
		t.Fatalf("expected default method FIFO, got %s", cfg.CostBasisMethod)
	}

	if cfg.TaxYearStartMonth != 4 || cfg.TaxYearStartDay != 6 {
		t.Fatalf("expected default tax year start 4/6, got %d/%d",
			cfg.TaxYearStartMonth, cfg.TaxYearStartDay)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COST_BASIS_METHOD", "HIFO")
	t.Setenv("FEE_ALLOCATION", "split")
	t.Setenv("ZERO_COST_FALLBACK", "true")
	t.Setenv("TAX_RULES", "company")
	t.Setenv("BASE_CURRENCY", "USD")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PRICE_RETRY_INTERVAL", "2s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.CostBasisMethod != "HIFO" || cfg.FeeAllocation != "split" {
		t.Fatalf("expected calculation overrides, got %s/%s",
			cfg.CostBasisMethod, cfg.FeeAllocation)
	}

	if !cfg.ZeroCostFallback {
		t.Fatal("expected zero cost fallback enabled")
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.PriceRetryInterval != 2*time.Second {
		t.Fatalf("expected retry interval override, got %s", cfg.PriceRetryInterval)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("unexpected error converting options: %v", err)
	}
	if opts.Method != domain.MethodHIFO || opts.FeeAllocation != usecase.FeeAllocationSplit {
		t.Fatalf("expected options to carry overrides, got %+v", opts)
	}
	if opts.Rules != domain.RulesCompany || opts.BaseCurrency != "USD" {
		t.Fatalf("expected rules/currency overrides, got %+v", opts)
	}
}

func TestOptionsInvalidMethod(t *testing.T) {
	t.Setenv("COST_BASIS_METHOD", "ACB")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if _, err := cfg.Options(); err == nil {
		t.Fatal("expected error for unknown cost basis method")
	}
}

func TestOptionsInvalidTaxYearStart(t *testing.T) {
	t.Setenv("TAX_YEAR_START_MONTH", "13")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if _, err := cfg.Options(); err == nil {
		t.Fatal("expected error for out-of-range month")
	}
}

func TestOptionsImpossibleCalendarDate(t *testing.T) {
	cases := []struct {
		month string
		day   string
	}{
		{"2", "30"},
		{"2", "29"},
		{"4", "31"},
	}
	for _, tc := range cases {
		t.Run(tc.month+"/"+tc.day, func(t *testing.T) {
			t.Setenv("TAX_YEAR_START_MONTH", tc.month)
			t.Setenv("TAX_YEAR_START_DAY", tc.day)

			cfg, err := config.Load()
			if err != nil {
				t.Fatalf("unexpected error loading config: %v", err)
			}

			if _, err := cfg.Options(); err == nil {
				t.Fatalf("expected error for tax year start %s/%s", tc.month, tc.day)
			}
		})
	}
}

func TestOptionsLastDayOfMonth(t *testing.T) {
	t.Setenv("TAX_YEAR_START_MONTH", "1")
	t.Setenv("TAX_YEAR_START_DAY", "31")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("unexpected error converting options: %v", err)
	}
	if opts.TaxYearStart.Month != time.January || opts.TaxYearStart.Day != 31 {
		t.Fatalf("expected tax year start 1/31, got %+v", opts.TaxYearStart)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
