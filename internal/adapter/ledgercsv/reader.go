// Package ledgercsv reads normalized ledger records from CSV. One row
// is one record: a transaction type plus optional buy, sell and fee
// legs, a wallet, a timestamp and a note.
package ledgercsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cryptotax/internal/domain"
	"github.com/iho/cryptotax/internal/usecase"
)

// Expected header columns, case-insensitive, in any order.
const (
	colType         = "type"
	colBuyQuantity  = "buy quantity"
	colBuyAsset     = "buy asset"
	colBuyValue     = "buy value"
	colSellQuantity = "sell quantity"
	colSellAsset    = "sell asset"
	colSellValue    = "sell value"
	colFeeQuantity  = "fee quantity"
	colFeeAsset     = "fee asset"
	colFeeValue     = "fee value"
	colWallet       = "wallet"
	colTimestamp    = "timestamp"
	colNote         = "note"
	colID           = "id"
)

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Reader parses ledger CSV into records. Rows that cannot be parsed
// become records carrying a data error, so one bad row never aborts
// the file.
type Reader struct {
	ids    usecase.IDGenerator
	logger zerolog.Logger
}

// NewReader creates a Reader. Rows without an id column get a
// generated one.
func NewReader(ids usecase.IDGenerator, logger zerolog.Logger) *Reader {
	return &Reader{ids: ids, logger: logger}
}

// Read parses all rows. The first row must be a header naming at least
// the type and timestamp columns.
func (rd *Reader) Read(r io.Reader) ([]*domain.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colType, colTimestamp} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("header is missing the %q column", required)
		}
	}

	var records []*domain.Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line+1, err)
		}
		line++

		rec := rd.parseRow(cols, row, line)
		records = append(records, rec)
		if rec.Err != nil {
			rd.logger.Warn().Err(rec.Err).Int("line", line).Msg("unparseable ledger row")
		}
	}
	return records, nil
}

func (rd *Reader) parseRow(cols map[string]int, row []string, line int) *domain.Record {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := &domain.Record{
		ID:     field(colID),
		Type:   domain.TransactionType(field(colType)),
		Wallet: field(colWallet),
		Note:   field(colNote),
	}
	if rec.ID == "" {
		rec.ID = rd.ids.Generate()
	}

	ts, err := parseTimestamp(field(colTimestamp))
	if err != nil {
		rec.Err = fmt.Errorf("row %d: %w", line, err)
		return rec
	}
	rec.Timestamp = ts

	if rec.Buy, err = parseLeg(field(colBuyQuantity), field(colBuyAsset), field(colBuyValue)); err != nil {
		rec.Err = fmt.Errorf("row %d buy leg: %w", line, err)
		return rec
	}
	if rec.Sell, err = parseLeg(field(colSellQuantity), field(colSellAsset), field(colSellValue)); err != nil {
		rec.Err = fmt.Errorf("row %d sell leg: %w", line, err)
		return rec
	}
	if rec.Fee, err = parseLeg(field(colFeeQuantity), field(colFeeAsset), field(colFeeValue)); err != nil {
		rec.Err = fmt.Errorf("row %d fee leg: %w", line, err)
		return rec
	}

	return rec
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, domain.ErrMissingTimestamp
	}
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseLeg builds one leg from its three columns. A leg with no
// quantity and no asset is absent; a partial leg is an error.
func parseLeg(qty, asset, value string) (*domain.RecordLeg, error) {
	if qty == "" && asset == "" {
		return nil, nil
	}
	if qty == "" || asset == "" {
		return nil, fmt.Errorf("quantity and asset must both be present")
	}

	q, err := decimal.NewFromString(qty)
	if err != nil {
		return nil, fmt.Errorf("quantity %q: %w", qty, err)
	}

	leg := &domain.RecordLeg{
		Asset:    strings.ToUpper(asset),
		Quantity: q,
	}
	if value != "" {
		v, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", value, err)
		}
		leg.Value = &v
	}
	return leg, nil
}
