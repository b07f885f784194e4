package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/cryptotax/internal/adapter/http/dto"
	"github.com/iho/cryptotax/internal/adapter/ledgercsv"
	"github.com/iho/cryptotax/internal/adapter/valuation"
	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/infrastructure/config"
	"github.com/iho/cryptotax/internal/infrastructure/logger"
	"github.com/iho/cryptotax/internal/usecase"
)

var (
	ledgerPath string
	pricesPath string
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cryptotax",
		Short: "Cryptotax CLI tool",
		Long:  `Calculates capital gains, income and margin trading reports from a ledger CSV.`,
	}

	rootCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", "", "Path to the ledger CSV file")
	rootCmd.PersistentFlags().StringVar(&pricesPath, "prices", "", "Path to a price table CSV file (date,asset,price)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Emit the report as JSON")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Calculate the full tax report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := calculate(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(os.Stdout, dto.ReportFromUseCase(rep))
			}
			printReport(os.Stdout, rep)

			return nil
		},
	}

	holdingsCmd := &cobra.Command{
		Use:   "holdings",
		Short: "Show the final holdings after the ledger is replayed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := calculate(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				resp := dto.ReportFromUseCase(rep)
				return writeJSON(os.Stdout, resp.Holdings)
			}
			printHoldings(os.Stdout, rep)

			return nil
		},
	}

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(holdingsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// calculate runs the full pipeline over the configured ledger file.
func calculate(ctx context.Context) (*usecase.Report, error) {
	if ledgerPath == "" {
		return nil, fmt.Errorf("--ledger is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid tax options: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	records, err := readLedger(log, ledgerPath)
	if err != nil {
		return nil, err
	}

	valuer, err := buildValuer(pricesPath)
	if err != nil {
		return nil, err
	}

	taxUC := usecase.NewTaxUseCase(valuer, opts, log)

	return taxUC.CalculateReport(ctx, records)
}

func readLedger(log zerolog.Logger, path string) ([]*domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	reader := ledgercsv.NewReader(ledgercsv.NewULIDGenerator(), log)
	records, err := reader.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	return records, nil
}

func buildValuer(path string) (usecase.Valuer, error) {
	table := valuation.NewTableValuer()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open prices file: %w", err)
		}
		defer f.Close()

		if err := table.LoadCSV(f); err != nil {
			return nil, fmt.Errorf("load prices file: %w", err)
		}
	}

	return valuation.NewCachingValuer(table, nil), nil
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(data)
}

// printReport writes a human-readable summary.
func printReport(w io.Writer, rep *usecase.Report) {
	for _, y := range rep.TaxYears {
		cg := rep.CapitalGains[y]
		fmt.Fprintf(w, "Tax year %s\n", cg.TaxYear)
		fmt.Fprintf(w, "  Capital gains\n")
		fmt.Fprintf(w, "    Short-term: %d disposals, gain %s\n", len(cg.ShortTerm), cg.ShortTermTotals.Gain)
		fmt.Fprintf(w, "    Long-term:  %d disposals, gain %s\n", len(cg.LongTerm), cg.LongTermTotals.Gain)
		fmt.Fprintf(w, "    Proceeds %s, cost %s, taxable gain %s\n",
			cg.TaxableTotals.Proceeds, cg.TaxableTotals.Cost, cg.TaxableTotals.Gain)

		if est := cg.Estimate; est != nil {
			fmt.Fprintf(w, "  Estimate (individual)\n")
			fmt.Fprintf(w, "    Allowance %s (used %s), taxable %s\n", est.Allowance, est.AllowanceUsed, est.TaxableGain)
			fmt.Fprintf(w, "    Basic rate tax %s, higher rate tax %s\n", est.BasicRateTax, est.HigherRateTax)
			if est.ProceedsWarning {
				fmt.Fprintf(w, "    WARNING: proceeds exceed the reporting threshold %s\n", est.ReportingThreshold)
			}
		}
		if est := cg.CompanyEstimate; est != nil {
			fmt.Fprintf(w, "  Estimate (company)\n")
			fmt.Fprintf(w, "    Rate %s%%, taxable %s, tax %s\n", est.Rate, est.TaxableGain, est.Tax)
		}

		inc := rep.Income[y]
		if len(inc.Events) > 0 {
			fmt.Fprintf(w, "  Income: %s (fees %s)\n", inc.TotalAmount, inc.TotalFees)
			for asset, amount := range inc.ByAsset {
				fmt.Fprintf(w, "    %s: %s\n", asset, amount)
			}
		}

		mar := rep.Margin[y]
		if len(mar.Events) > 0 {
			fmt.Fprintf(w, "  Margin trading: gains %s, losses %s, fees %s\n",
				mar.Totals.Gains, mar.Totals.Losses, mar.Totals.Fees)
		}

		fmt.Fprintln(w)
	}

	printHoldings(w, rep)

	if rep.UnmatchedDisposals {
		fmt.Fprintln(w, "WARNING: some disposals could not be matched to acquisitions")
	}
	if rep.TransferMismatch {
		fmt.Fprintln(w, "WARNING: deposit and withdrawal counts do not line up")
	}
	for _, r := range rep.DataErrors {
		fmt.Fprintf(w, "DATA ERROR: record %s: %v\n", r.ID, r.Err)
	}
}

func printHoldings(w io.Writer, rep *usecase.Report) {
	if len(rep.HoldingValuations) == 0 {
		return
	}

	fmt.Fprintln(w, "Holdings")
	for _, h := range rep.HoldingValuations {
		if h.Priced {
			fmt.Fprintf(w, "  %s: %s (cost %s, value %s, gain %s)\n", h.Asset, h.Quantity, h.Cost, h.Value, h.Gain)
			continue
		}
		fmt.Fprintf(w, "  %s: %s (cost %s, unpriced)\n", h.Asset, h.Quantity, h.Cost)
	}
}
