// Package convert translates Up Bank transactions into the Lunch Money
// ingestion shape, splitting out round-up sub-transactions.
package convert

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

const (
	defaultCurrency = "aud"
	defaultPayee    = "Unknown"

	// RoundUpSuffix derives a round-up's external id from its parent id.
	// At most one round-up can exist per parent, so the derived id stays
	// unique.
	RoundUpSuffix = "-roundup"
)

// Converter translates transactions, resolving account and category
// references through the mapping stores. It only ever reads the stores;
// populating them is the sync jobs' concern.
type Converter struct {
	accounts   mappings.Store
	categories mappings.Store
	now        func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithClock overrides the processing-time clock, used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New creates a Converter reading from the given mapping stores.
func New(accounts, categories mappings.Store, opts ...Option) *Converter {
	c := &Converter{
		accounts:   accounts,
		categories: categories,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert translates one Up transaction into one or two Lunch Money
// transactions: the main record, plus a round-up record when the source
// carries a non-zero round-up amount. The round-up always follows its parent
// in the returned slice.
//
// Malformed fields degrade rather than fail: an unparseable amount becomes
// "0.0" and a missing account or category mapping is logged and omitted.
// Only a mapping store read failure returns an error.
func (c *Converter) Convert(ctx context.Context, txn *upbank.Transaction) ([]lunchmoney.Transaction, error) {
	log := logger.FromContext(ctx)
	attrs := txn.Attributes

	currency := defaultCurrency
	amountValue := ""
	if attrs.Amount != nil {
		amountValue = attrs.Amount.Value
		if attrs.Amount.CurrencyCode != "" {
			currency = strings.ToLower(attrs.Amount.CurrencyCode)
		}
	}

	payee := attrs.Description
	if payee == "" {
		payee = defaultPayee
	}

	notes := ""
	if attrs.Message != nil {
		notes = *attrs.Message
	}

	main := lunchmoney.Transaction{
		Payee:      payee,
		Amount:     formatAmount(amountValue),
		Notes:      notes,
		Date:       c.transactionDate(attrs),
		ExternalID: txn.ID,
		Currency:   currency,
		Status:     lunchmoney.StatusUncleared,
	}

	if accountID := txn.Relationships.Account.RelatedID(); accountID != "" {
		assetID, err := c.lookupTargetID(ctx, c.accounts, accountID)
		if err != nil {
			return nil, err
		}
		if assetID == 0 {
			log.Warn().
				Str("transaction_id", txn.ID).
				Str("up_account_id", accountID).
				Msg("No asset mapping for account, syncing unattributed")
		}
		main.AssetID = assetID
	}

	if categoryID := txn.Relationships.Category.RelatedID(); categoryID != "" {
		targetID, err := c.lookupTargetID(ctx, c.categories, categoryID)
		if err != nil {
			return nil, err
		}
		if targetID == 0 {
			log.Warn().
				Str("transaction_id", txn.ID).
				Str("up_category_id", categoryID).
				Msg("No category mapping, syncing uncategorized")
		}
		main.CategoryID = targetID
	}

	roundUp, ok := roundUpValue(attrs.RoundUp)
	if !ok {
		return []lunchmoney.Transaction{main}, nil
	}

	log.Info().Str("transaction_id", txn.ID).Msg("Transaction has round-up")

	child := lunchmoney.Transaction{
		Payee:      "Round Up",
		Amount:     roundUp,
		Notes:      "Round up for: " + payee,
		Date:       main.Date,
		ExternalID: txn.ID + RoundUpSuffix,
		Currency:   currency,
		Status:     lunchmoney.StatusUncleared,
		AssetID:    main.AssetID,
	}

	return []lunchmoney.Transaction{main, child}, nil
}

// lookupTargetID resolves a source id to its numeric Lunch Money id.
// It returns 0 when no mapping exists or the stored target id is not numeric.
func (c *Converter) lookupTargetID(ctx context.Context, store mappings.Store, sourceID string) (int, error) {
	rec, err := store.Get(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}

	id, err := strconv.Atoi(rec.TargetID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("source_id", sourceID).
			Str("target_id", rec.TargetID).
			Msg("Stored target id is not numeric, ignoring mapping")
		return 0, nil
	}
	return id, nil
}

// transactionDate picks the settled timestamp, falling back to the created
// timestamp and finally the processing time, and truncates it to the calendar
// date Lunch Money expects.
func (c *Converter) transactionDate(attrs upbank.TransactionAttributes) string {
	ts := ""
	switch {
	case attrs.SettledAt != nil && *attrs.SettledAt != "":
		ts = *attrs.SettledAt
	case attrs.CreatedAt != nil && *attrs.CreatedAt != "":
		ts = *attrs.CreatedAt
	default:
		ts = c.now().Format(time.RFC3339)
	}

	date, _, _ := strings.Cut(ts, "T")
	return date
}

// formatAmount normalizes an amount string, preserving sign and trimming
// trailing zeros while keeping a decimal point. Unparseable input becomes
// "0.0" so a single malformed field never halts the sync.
func formatAmount(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "0.0"
	}

	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// roundUpValue extracts a formatted round-up amount, reporting whether a
// non-zero round-up is present. A zero or unparseable round-up produces no
// child transaction.
func roundUpValue(r *upbank.RoundUp) (string, bool) {
	if r == nil || r.Amount == nil {
		return "", false
	}

	d, err := decimal.NewFromString(strings.TrimSpace(r.Amount.Value))
	if err != nil || d.IsZero() {
		return "", false
	}

	return formatAmount(r.Amount.Value), true
}
