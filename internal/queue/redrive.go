package queue

import (
	"context"

	"github.com/google/uuid"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
)

// receiveBatch caps how many messages one Receive call asks for.
const receiveBatch = 10

// RedriveResult reports the outcome of one redrive invocation.
type RedriveResult struct {
	Redriven int
	Failed   int
}

// Redrive moves up to maxMessages messages from dlq back onto main for
// reprocessing. Each message is re-sent as a fresh delivery with a new id and
// a zero receive count, so it gets a full retry budget rather than being
// dead-lettered again on its first failure. A message is deleted from the DLQ
// only after it has been re-sent successfully; a failed send leaves the
// message in place and the batch continues. The move is per-message, not
// batch-atomic.
func Redrive(ctx context.Context, dlq, main Queue, maxMessages int) (RedriveResult, error) {
	log := logger.FromContext(ctx)

	var result RedriveResult

	for result.Redriven < maxMessages {
		want := maxMessages - result.Redriven
		if want > receiveBatch {
			want = receiveBatch
		}

		msgs, err := dlq.Receive(ctx, want)
		if err != nil {
			return result, err
		}
		if len(msgs) == 0 {
			log.Info().Msg("No more messages available in DLQ")
			break
		}

		for _, msg := range msgs {
			if result.Redriven >= maxMessages {
				break
			}

			fresh := msg
			fresh.ID = uuid.New().String()
			fresh.ReceiveCount = 0
			if err := main.Send(ctx, fresh); err != nil {
				result.Failed++
				log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to redrive message")
				continue
			}

			if err := dlq.Delete(ctx, msg.ID); err != nil {
				result.Failed++
				log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to delete redriven message from DLQ")
				continue
			}

			result.Redriven++
			log.Info().
				Str("message_id", msg.ID).
				Int("redriven", result.Redriven).
				Int("max", maxMessages).
				Msg("Redriven message")
		}
	}

	return result, nil
}
