package analytics

import (
	"fmt"
	"strings"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// RecordError describes a raw record rejected by Sanitize
type RecordError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Err   error  `json:"-"`
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.ID, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// Sanitize converts raw records into transactions of the given type. A record
// with a malformed amount, date or category is skipped and reported; the
// remaining records are still converted.
func Sanitize(raw []domain.RawTransaction, txType domain.TransactionType) ([]domain.Transaction, []RecordError) {
	txs := make([]domain.Transaction, 0, len(raw))
	var rejected []RecordError

	for i, r := range raw {
		tx, err := sanitizeRecord(r, txType)
		if err != nil {
			log.Warn().
				Err(err).
				Int("index", i).
				Str("id", r.ID).
				Msg("Skipping malformed transaction record")
			rejected = append(rejected, RecordError{Index: i, ID: r.ID, Err: err})
			continue
		}
		txs = append(txs, tx)
	}

	return txs, rejected
}

func sanitizeRecord(r domain.RawTransaction, txType domain.TransactionType) (domain.Transaction, error) {
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return domain.Transaction{}, err
	}

	date, err := util.ParseDate(r.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, r.Date)
	}

	if strings.TrimSpace(r.Category) == "" {
		return domain.Transaction{}, domain.ErrMissingCategory
	}

	return domain.Transaction{
		ID:       recordID(r.ID),
		Name:     r.Name,
		Amount:   amount,
		Category: r.Category,
		Type:     txType,
		Date:     date,
	}, nil
}

const (
	// maxAmountScale is the most fractional digits an amount may carry
	maxAmountScale = 10
)

// maxAmount bounds a single record so sums and fixed-point rendering stay small
var maxAmount = decimal.New(1, 12)

// ParseAmount parses a plain decimal amount, rejecting empty, non-numeric,
// negative and out-of-range values. Exponent notation is not accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", domain.ErrInvalidAmount)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: exponent notation %q", domain.ErrInvalidAmount, s)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	if -amount.Exponent() > maxAmountScale {
		return decimal.Zero, fmt.Errorf("%w: more than %d decimal places", domain.ErrInvalidAmount, maxAmountScale)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", domain.ErrInvalidAmount, s)
	}
	return amount, nil
}

// recordID keeps UUID ids, maps any other id deterministically onto a
// name-based UUID and generates one when missing
func recordID(id string) uuid.UUID {
	id = strings.TrimSpace(id)
	if id == "" {
		return uuid.New()
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(id))
}
