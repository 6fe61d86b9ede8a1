// Package processor consumes queued webhook events: it fetches the
// authoritative transaction record from Up, converts it, and submits the
// result to Lunch Money.
package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/lunchmoney"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/metrics"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

// Processing outcomes recorded on the events-processed counter.
const (
	outcomeSynced  = "synced"
	outcomeIgnored = "ignored"
	outcomePing    = "ping"
	outcomeFailed  = "failed"
)

// TransactionFetcher is the slice of the Up client the processor needs.
type TransactionFetcher interface {
	GetTransaction(ctx context.Context, id string) (*upbank.Transaction, error)
}

// TransactionSubmitter is the slice of the Lunch Money client the processor
// needs.
type TransactionSubmitter interface {
	InsertTransactions(ctx context.Context, txns []lunchmoney.Transaction) error
}

// Converter translates a fetched transaction into Lunch Money records.
type Converter interface {
	Convert(ctx context.Context, txn *upbank.Transaction) ([]lunchmoney.Transaction, error)
}

// Processor handles queued webhook events. It performs no retries itself:
// every hard failure is returned to the queue boundary so the delivery
// mechanism redrives or dead-letters the message.
type Processor struct {
	bank      TransactionFetcher
	target    TransactionSubmitter
	converter Converter
	metrics   *metrics.Metrics
}

// New creates a Processor.
func New(bank TransactionFetcher, target TransactionSubmitter, converter Converter, m *metrics.Metrics) *Processor {
	return &Processor{
		bank:      bank,
		target:    target,
		converter: converter,
		metrics:   m,
	}
}

// Handle implements queue.Handler. Transaction events are fetched, converted
// and submitted; pings are acknowledged; everything else is ignored.
func (p *Processor) Handle(ctx context.Context, msg queue.Message) error {
	log := logger.FromContext(ctx).With().Str("message_id", msg.ID).Logger()
	ctx = logger.WithContext(ctx, log)

	var event upbank.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		p.metrics.EventsProcessed.WithLabelValues(outcomeFailed).Inc()
		return fmt.Errorf("parsing webhook payload: %w", err)
	}

	eventType := event.EventType()
	log.Info().Str("event_type", eventType).Msg("Processing webhook")

	switch eventType {
	case upbank.EventTransactionCreated, upbank.EventTransactionUpdated:
		if err := p.processTransactionEvent(ctx, &event); err != nil {
			p.metrics.EventsProcessed.WithLabelValues(outcomeFailed).Inc()
			return err
		}
		p.metrics.EventsProcessed.WithLabelValues(outcomeSynced).Inc()
		return nil
	case upbank.EventPing:
		log.Info().Msg("Received ping from Up Bank")
		p.metrics.EventsProcessed.WithLabelValues(outcomePing).Inc()
		return nil
	default:
		log.Info().Str("event_type", eventType).Msg("Ignoring webhook type")
		p.metrics.EventsProcessed.WithLabelValues(outcomeIgnored).Inc()
		return nil
	}
}

func (p *Processor) processTransactionEvent(ctx context.Context, event *upbank.Event) error {
	log := logger.FromContext(ctx)

	transactionID := event.TransactionID()
	if transactionID == "" {
		// Redelivery cannot repair a payload with no transaction
		// reference, so this is logged and dropped rather than failed.
		log.Error().Msg("No transaction ID found in webhook")
		return nil
	}

	txn, err := p.bank.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("fetching transaction %s: %w", transactionID, err)
	}

	records, err := p.converter.Convert(ctx, txn)
	if err != nil {
		return fmt.Errorf("converting transaction %s: %w", transactionID, err)
	}

	// Records are submitted one at a time, parent first, failing fast: if
	// the parent fails its round-up is never attempted, and a round-up
	// failure fails the whole message. Redelivery then re-submits both;
	// Lunch Money deduplicates by external_id.
	for _, rec := range records {
		if err := p.target.InsertTransactions(ctx, []lunchmoney.Transaction{rec}); err != nil {
			return fmt.Errorf("submitting transaction %s: %w", rec.ExternalID, err)
		}
		p.metrics.TransactionsSubmitted.Inc()
		log.Info().Str("external_id", rec.ExternalID).Msg("Synced transaction to Lunch Money")
	}

	return nil
}
