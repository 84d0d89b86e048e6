// Package webhook posts ledger events to an HTTP endpoint
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/newthinker/trendbot/internal/events"
	"go.uber.org/zap"
)

const (
	// DefaultQueueSize bounds the events waiting for delivery
	DefaultQueueSize = 64
	// DefaultTimeout bounds a single delivery
	DefaultTimeout = 5 * time.Second
)

// Webhook implements events.Sink for HTTP webhooks. Emit only enqueues; a
// single worker delivers events in order, and events arriving while the queue
// is full are dropped and logged.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan events.Event
	done   chan struct{}
}

// Option configures a Webhook
type Option func(*Webhook)

// WithTimeout sets the per-event delivery timeout
func WithTimeout(d time.Duration) Option {
	return func(w *Webhook) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithQueueSize sets how many events may wait for delivery
func WithQueueSize(n int) Option {
	return func(w *Webhook) {
		if n > 0 {
			w.queue = make(chan events.Event, n)
		}
	}
}

// New creates a new Webhook sink and starts its delivery worker
func New(url string, headers map[string]string, logger *zap.Logger, opts ...Option) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{},
		logger:  logger,
		timeout: DefaultTimeout,
		queue:   make(chan events.Event, DefaultQueueSize),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.run()
	return w, nil
}

func (w *Webhook) Name() string { return "webhook" }

// Emit queues the event without waiting for delivery
func (w *Webhook) Emit(e events.Event) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	select {
	case w.queue <- e:
	default:
		w.logger.Warn("webhook queue full, event dropped",
			zap.String("kind", string(e.Kind)),
			zap.String("symbol", e.Symbol),
		)
	}
}

// Close stops accepting events and waits until queued ones are delivered
func (w *Webhook) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return nil
}

func (w *Webhook) run() {
	defer close(w.done)
	for e := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.Send(ctx, e)
		cancel()
		if err != nil {
			w.logger.Warn("webhook delivery failed",
				zap.String("kind", string(e.Kind)),
				zap.String("symbol", e.Symbol),
				zap.Error(err),
			)
		}
	}
}

// Send posts a single event
func (w *Webhook) Send(ctx context.Context, e events.Event) error {
	body, err := json.Marshal(map[string]any{
		"type":  "ledger_event",
		"event": e,
	})
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
