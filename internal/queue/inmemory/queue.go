// Package inmemory implements a channel-free in-memory queue with visibility
// semantics close enough to SQS for the processor and redrive logic to be
// written against the same contract in production and in tests. It suits a
// single-instance deployment; multi-instance deployments should swap in a
// real broker behind the same interfaces.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/logger"
	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/queue"
)

const (
	defaultVisibility  = 30 * time.Second
	defaultMaxReceives = 3
	defaultWorkers     = 5
	pollInterval       = 100 * time.Millisecond
)

// Queue is an in-memory implementation of queue.Queue and queue.Consumer.
// It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	messages []queue.Message
	inflight map[string]time.Time

	notify    chan struct{}
	closeChan chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	dlq         *Queue
	maxReceives int
	visibility  time.Duration
	workers     int
	capacity    int
}

// Option configures a Queue.
type Option func(*Queue)

// WithDeadLetter attaches a dead-letter queue. Messages whose receive count
// reaches the maximum move there instead of being retried forever.
func WithDeadLetter(dlq *Queue) Option {
	return func(q *Queue) { q.dlq = dlq }
}

// WithMaxReceives sets how many deliveries a message gets before it is
// dead-lettered (or dropped, when no DLQ is attached).
func WithMaxReceives(n int) Option {
	return func(q *Queue) { q.maxReceives = n }
}

// WithWorkers sets the consumer worker count.
func WithWorkers(n int) Option {
	return func(q *Queue) { q.workers = n }
}

// WithVisibilityTimeout sets how long a received message stays invisible
// before it is redelivered.
func WithVisibilityTimeout(d time.Duration) Option {
	return func(q *Queue) { q.visibility = d }
}

// WithCapacity bounds how many messages the queue holds. Send fails once the
// bound is reached, which surfaces backpressure to the producer instead of
// growing without limit. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(q *Queue) { q.capacity = n }
}

// NewQueue creates a new in-memory queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		inflight:    make(map[string]time.Time),
		notify:      make(chan struct{}, 1),
		closeChan:   make(chan struct{}),
		maxReceives: defaultMaxReceives,
		visibility:  defaultVisibility,
		workers:     defaultWorkers,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Send implements the queue.Queue interface.
func (q *Queue) Send(_ context.Context, msg queue.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	q.mu.Lock()
	select {
	case <-q.closeChan:
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	default:
	}
	if q.capacity > 0 && len(q.messages) >= q.capacity {
		q.mu.Unlock()
		return fmt.Errorf("queue is full (%d messages)", q.capacity)
	}
	q.messages = append(q.messages, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive implements the queue.Queue interface. Each returned message has its
// receive count incremented and stays invisible for the visibility timeout.
func (q *Queue) Receive(_ context.Context, max int) ([]queue.Message, error) {
	now := time.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	var out []queue.Message
	for i := range q.messages {
		if len(out) >= max {
			break
		}
		if deadline, ok := q.inflight[q.messages[i].ID]; ok && deadline.After(now) {
			continue
		}

		q.messages[i].ReceiveCount++
		q.inflight[q.messages[i].ID] = now.Add(q.visibility)
		out = append(out, q.messages[i])
	}

	return out, nil
}

// Delete implements the queue.Queue interface.
func (q *Queue) Delete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.messages {
		if q.messages[i].ID == id {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			delete(q.inflight, id)
			return nil
		}
	}
	return fmt.Errorf("message not found: %s", id)
}

// release makes a failed message immediately visible again.
func (q *Queue) release(id string) {
	q.mu.Lock()
	delete(q.inflight, id)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of messages currently on the queue, visible or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Start implements the queue.Consumer interface. Each worker receives one
// message at a time: on handler success the message is deleted, on failure it
// is released for redelivery until its receive count reaches the maximum, at
// which point it moves to the dead-letter queue.
func (q *Queue) Start(ctx context.Context, handler queue.Handler) error {
	select {
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	default:
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler queue.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		default:
		}

		msgs, _ := q.Receive(ctx, 1)
		if len(msgs) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-q.closeChan:
				return
			case <-q.notify:
			case <-time.After(pollInterval):
			}
			continue
		}

		q.process(ctx, msgs[0], handler)
	}
}

func (q *Queue) process(ctx context.Context, msg queue.Message, handler queue.Handler) {
	log := logger.FromContext(ctx)

	err := handler(ctx, msg)
	if err == nil {
		_ = q.Delete(ctx, msg.ID)
		return
	}

	if msg.ReceiveCount < q.maxReceives {
		log.Warn().
			Err(err).
			Str("message_id", msg.ID).
			Int("receive_count", msg.ReceiveCount).
			Msg("Message failed, will redeliver")
		q.release(msg.ID)
		return
	}

	if q.dlq != nil {
		if dlqErr := q.dlq.Send(ctx, msg); dlqErr != nil {
			log.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("Failed to dead-letter message")
			q.release(msg.ID)
			return
		}
		log.Error().
			Err(err).
			Str("message_id", msg.ID).
			Int("receive_count", msg.ReceiveCount).
			Msg("Message exhausted retries, moved to DLQ")
	} else {
		log.Error().
			Err(err).
			Str("message_id", msg.ID).
			Msg("Message exhausted retries, dropping")
	}
	_ = q.Delete(ctx, msg.ID)
}

// Stop implements the queue.Consumer interface. It stops the workers and
// waits for in-flight messages to complete, bounded by ctx.
func (q *Queue) Stop(ctx context.Context) error {
	q.closeOnce.Do(func() { close(q.closeChan) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ queue.Queue = (*Queue)(nil)
var _ queue.Consumer = (*Queue)(nil)
