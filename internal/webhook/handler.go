// Package webhook is the inbound front door: it authenticates Up webhook
// deliveries and hands them to the work queue without blocking on downstream
// processing.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/metrics"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/upbank"
)

// Publisher is the slice of the queue the handler needs.
type Publisher interface {
	Send(ctx context.Context, msg queue.Message) error
}

// Handler accepts webhook deliveries from Up.
type Handler struct {
	secret  string
	queue   Publisher
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewHandler creates a webhook handler verifying against secret and
// publishing accepted events to q.
func NewHandler(secret string, q Publisher, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		secret:  secret,
		queue:   q,
		metrics: m,
		log:     log,
	}
}

// ServeHTTP implements http.Handler. The raw body is verified against the
// signature header before anything is parsed or queued; a missing or invalid
// signature is rejected with 403.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read webhook body")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.log.Error().Msg("Missing signature header")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Missing signature"})
		return
	}

	if !VerifySignature(h.secret, body, signature) {
		h.log.Error().Msg("Invalid signature")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Invalid signature"})
		return
	}

	var event upbank.Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.log.Error().Err(err).Msg("Failed to parse webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload"})
		return
	}

	eventType := event.EventType()
	if eventType == "" {
		eventType = "unknown"
	}
	h.log.Info().Str("event_type", eventType).Msg("Received webhook")

	msg := queue.Message{
		Body:      body,
		EventType: eventType,
	}
	if err := h.queue.Send(r.Context(), msg); err != nil {
		h.log.Error().Err(err).Msg("Failed to queue webhook")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	h.metrics.WebhooksReceived.WithLabelValues(eventType).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Webhook queued successfully"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
