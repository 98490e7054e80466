// Package email delivers application receipts to students.
package email

import (
	"context"
	"time"
)

// Tag names attached to every receipt.
const (
	TagCategory      = "category"
	TagApplicationID = "application_id"

	CategoryReceipt = "application_receipt"
)

// SendRequest is one outgoing message.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
	Text    string
	Tags    map[string]string // provider tags for filtering deliveries
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
