// Package outbox delivers router replies. Request/response transports
// collect the replies produced while handling one event; everything else
// goes to a fallback sender.
package outbox

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rpggio/actionplan/internal/chat"
)

type contextKey string

const collectorKey contextKey = "outbox_collector"

// Collector accumulates the messages sent while handling one event.
type Collector struct {
	mu   sync.Mutex
	msgs []chat.Message
}

// WithCollector returns a context whose sends are captured by the returned
// collector.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey, c), c
}

// CollectorFromContext returns the collector attached to ctx, if any.
func CollectorFromContext(ctx context.Context) (*Collector, bool) {
	c, ok := ctx.Value(collectorKey).(*Collector)
	return c, ok && c != nil
}

// Messages returns a copy of the collected messages in send order.
func (c *Collector) Messages() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]chat.Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *Collector) add(msg chat.Message) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

// Sender routes messages to the context collector when present and to the
// fallback otherwise. Delivery is fire-and-forget: fallback errors are
// logged and returned, never retried.
type Sender struct {
	fallback chat.Sender
	logger   *slog.Logger
}

// NewSender creates a sender. A nil fallback logs and drops uncollected
// messages.
func NewSender(fallback chat.Sender, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sender{fallback: fallback, logger: logger}
}

// Send implements chat.Sender.
func (s *Sender) Send(ctx context.Context, msg chat.Message) error {
	if c, ok := CollectorFromContext(ctx); ok {
		c.add(msg)
		return nil
	}
	if s.fallback == nil {
		s.logger.Info("outbound message dropped", "target", msg.Target, "text", msg.Text)
		return nil
	}
	if err := s.fallback.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to deliver message", "target", msg.Target, "error", err)
		return err
	}
	return nil
}
