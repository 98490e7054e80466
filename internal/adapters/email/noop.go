package email

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"
)

// NoopSender stands in for a provider when no API key is configured.
// Receipts are logged and counted but never delivered.
type NoopSender struct {
	sent atomic.Int64
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the receipt instead of delivering it.
// POST: Sent() is incremented; the result carries a synthetic message id
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	n := s.sent.Add(1)
	slog.Info("email_skipped", "to", req.To, "subject", req.Subject, "category", req.Tags[TagCategory])
	return SendResult{MessageID: "noop-" + strconv.FormatInt(n, 10), SentAt: time.Now()}, nil
}

// Sent returns how many messages were accepted.
func (s *NoopSender) Sent() int64 {
	return s.sent.Load()
}
