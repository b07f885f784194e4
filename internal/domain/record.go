package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxAssetLength = 16
	MaxNoteLength  = 255
)

var assetRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// RecordLeg is one side of a ledger record: an amount of some asset,
// with an optional fiat value. A nil Value means the leg needs
// valuation via a price lookup.
type RecordLeg struct {
	Asset    string
	Quantity decimal.Decimal
	Value    *decimal.Decimal
}

// Validate checks a single leg.
func (l *RecordLeg) Validate() error {
	if l.Asset == "" || len(l.Asset) > MaxAssetLength || !assetRegex.MatchString(l.Asset) {
		return fmt.Errorf("%w: %q", ErrInvalidAsset, l.Asset)
	}
	if l.Quantity.IsNegative() {
		return fmt.Errorf("%w: %s %s", ErrNegativeQuantity, l.Quantity, l.Asset)
	}
	if l.Value != nil && l.Value.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeValue, l.Value)
	}
	return nil
}

// Record is a normalized ledger record as produced by the ingestion
// collaborators. A record may carry a buy leg, a sell leg and a fee leg
// together; the splitter turns them into independent transactions.
//
// The fee is always expressed as a disposal of some asset.
type Record struct {
	ID        string
	Type      TransactionType
	Wallet    string
	Timestamp time.Time
	Note      string
	Buy       *RecordLeg
	Sell      *RecordLeg
	Fee       *RecordLeg

	// Err records a data error detected during validation or splitting.
	// Records with a data error are excluded from the matching run but
	// do not abort processing of other records.
	Err error
}

// Validate checks the record. The first failure is returned and also
// attached to the record.
func (r *Record) Validate() error {
	err := r.validate()
	if err != nil {
		r.Err = err
	}
	return err
}

func (r *Record) validate() error {
	if _, err := ParseTransactionType(string(r.Type)); err != nil {
		return err
	}
	if r.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if r.Buy == nil && r.Sell == nil && r.Fee == nil {
		return ErrEmptyRecord
	}
	for _, leg := range []*RecordLeg{r.Buy, r.Sell, r.Fee} {
		if leg == nil {
			continue
		}
		if err := leg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// String renders enough context to locate the source record.
func (r *Record) String() string {
	return fmt.Sprintf("%s %s wallet=%s ts=%s",
		r.ID, r.Type, r.Wallet, r.Timestamp.Format(time.RFC3339))
}
