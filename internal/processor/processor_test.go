package processor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/convert"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings/memory"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/metrics"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

type fakeBank struct {
	txns    map[string]*upbank.Transaction
	fetches int
}

func (f *fakeBank) GetTransaction(_ context.Context, id string) (*upbank.Transaction, error) {
	f.fetches++
	txn, ok := f.txns[id]
	if !ok {
		return nil, upbank.ErrNotFound
	}
	return txn, nil
}

type fakeTarget struct {
	submitted []lunchmoney.Transaction
	failExtID string
}

func (f *fakeTarget) InsertTransactions(_ context.Context, txns []lunchmoney.Transaction) error {
	for _, txn := range txns {
		if txn.ExternalID == f.failExtID {
			return errors.New("rejected by target")
		}
		f.submitted = append(f.submitted, txn)
	}
	return nil
}

func eventBody(eventType, transactionID string) []byte {
	if transactionID == "" {
		return []byte(fmt.Sprintf(`{"data":{"attributes":{"eventType":%q}}}`, eventType))
	}
	return []byte(fmt.Sprintf(
		`{"data":{"attributes":{"eventType":%q},"relationships":{"transaction":{"data":{"type":"transactions","id":%q}}}}}`,
		eventType, transactionID,
	))
}

func settled(ts string) *string { return &ts }

func newProcessor(bank *fakeBank, target *fakeTarget) *Processor {
	conv := convert.New(memory.NewStore(), memory.NewStore())
	return New(bank, target, conv, metrics.New(prometheus.NewRegistry()))
}

func TestHandleTransactionCreated(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{
		"txn-1": {
			ID: "txn-1",
			Attributes: upbank.TransactionAttributes{
				Description: "Coffee shop",
				Amount:      &upbank.Amount{Value: "-4.50", CurrencyCode: "AUD"},
				SettledAt:   settled("2024-01-15T10:30:00+11:00"),
			},
		},
	}}
	target := &fakeTarget{}
	p := newProcessor(bank, target)

	err := p.Handle(context.Background(), queue.Message{
		ID:   "m1",
		Body: eventBody("TRANSACTION_CREATED", "txn-1"),
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(target.submitted) != 1 {
		t.Fatalf("submitted %d records, want 1", len(target.submitted))
	}
	got := target.submitted[0]
	if got.ExternalID != "txn-1" || got.Payee != "Coffee shop" || got.Amount != "-4.5" {
		t.Errorf("submitted = %+v", got)
	}
}

func TestHandleRoundUpSubmitsBothInOrder(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{
		"txn-2": {
			ID: "txn-2",
			Attributes: upbank.TransactionAttributes{
				Description: "Grocer",
				Amount:      &upbank.Amount{Value: "-19.20", CurrencyCode: "AUD"},
				RoundUp:     &upbank.RoundUp{Amount: &upbank.Amount{Value: "-0.80"}},
				SettledAt:   settled("2024-01-16T09:00:00+11:00"),
			},
		},
	}}
	target := &fakeTarget{}
	p := newProcessor(bank, target)

	err := p.Handle(context.Background(), queue.Message{
		ID:   "m2",
		Body: eventBody("TRANSACTION_UPDATED", "txn-2"),
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(target.submitted) != 2 {
		t.Fatalf("submitted %d records, want 2", len(target.submitted))
	}
	if target.submitted[0].ExternalID != "txn-2" {
		t.Errorf("first submitted = %q, want parent", target.submitted[0].ExternalID)
	}
	if target.submitted[1].ExternalID != "txn-2-roundup" {
		t.Errorf("second submitted = %q, want round-up", target.submitted[1].ExternalID)
	}
}

func TestHandleParentFailureSkipsRoundUp(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{
		"txn-3": {
			ID: "txn-3",
			Attributes: upbank.TransactionAttributes{
				Description: "Bar",
				Amount:      &upbank.Amount{Value: "-30.00", CurrencyCode: "AUD"},
				RoundUp:     &upbank.RoundUp{Amount: &upbank.Amount{Value: "-1.00"}},
				SettledAt:   settled("2024-01-17T21:00:00+11:00"),
			},
		},
	}}
	target := &fakeTarget{failExtID: "txn-3"}
	p := newProcessor(bank, target)

	err := p.Handle(context.Background(), queue.Message{
		ID:   "m3",
		Body: eventBody("TRANSACTION_CREATED", "txn-3"),
	})
	if err == nil {
		t.Fatal("expected error when parent submission fails")
	}
	// Fail-fast: the round-up is never attempted after the parent fails.
	if len(target.submitted) != 0 {
		t.Errorf("submitted %d records after parent failure, want 0", len(target.submitted))
	}
}

func TestHandleRoundUpFailureFailsMessage(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{
		"txn-4": {
			ID: "txn-4",
			Attributes: upbank.TransactionAttributes{
				Description: "Cafe",
				Amount:      &upbank.Amount{Value: "-10.00", CurrencyCode: "AUD"},
				RoundUp:     &upbank.RoundUp{Amount: &upbank.Amount{Value: "-0.50"}},
				SettledAt:   settled("2024-01-18T08:00:00+11:00"),
			},
		},
	}}
	target := &fakeTarget{failExtID: "txn-4-roundup"}
	p := newProcessor(bank, target)

	err := p.Handle(context.Background(), queue.Message{
		ID:   "m4",
		Body: eventBody("TRANSACTION_CREATED", "txn-4"),
	})
	// The parent went through but the message still fails so the queue
	// redelivers; dedup by external_id protects the parent from doubling.
	if err == nil {
		t.Fatal("expected error when round-up submission fails")
	}
	if len(target.submitted) != 1 {
		t.Errorf("submitted %d records, want 1 (parent only)", len(target.submitted))
	}
}

func TestHandleFetchFailurePropagates(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{}}
	target := &fakeTarget{}
	p := newProcessor(bank, target)

	err := p.Handle(context.Background(), queue.Message{
		ID:   "m5",
		Body: eventBody("TRANSACTION_CREATED", "txn-missing"),
	})
	if err == nil {
		t.Fatal("expected error when transaction fetch fails")
	}
	if len(target.submitted) != 0 {
		t.Errorf("submitted %d records, want 0", len(target.submitted))
	}
}

func TestHandlePingAndUnknownEvents(t *testing.T) {
	bank := &fakeBank{txns: map[string]*upbank.Transaction{}}
	target := &fakeTarget{}
	p := newProcessor(bank, target)

	tests := []struct {
		name string
		body []byte
	}{
		{"ping", eventBody("PING", "")},
		{"unknown type", eventBody("SOMETHING_ELSE", "txn-1")},
		{"missing transaction id", eventBody("TRANSACTION_CREATED", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Handle(context.Background(), queue.Message{ID: "m", Body: tt.body})
			if err != nil {
				t.Errorf("Handle() error = %v, want nil", err)
			}
		})
	}

	if bank.fetches != 0 {
		t.Errorf("fetches = %d, want 0", bank.fetches)
	}
	if len(target.submitted) != 0 {
		t.Errorf("submitted = %d, want 0", len(target.submitted))
	}
}

func TestHandleMalformedBodyFails(t *testing.T) {
	p := newProcessor(&fakeBank{}, &fakeTarget{})

	err := p.Handle(context.Background(), queue.Message{ID: "m", Body: []byte("{not json")})
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
}
