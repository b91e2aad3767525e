// Package notifier defines the notification port (interface) and capabilities.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Level    string `json:"level"`     // "info", "success", "warning", "error"
	Source   string `json:"source"`    // e.g. "review.created", "review.decided"
	ReviewID string `json:"review_id"` // the review this notification concerns
}

// Capabilities declares which features a notifier supports.
type Capabilities struct {
	RichFormatting bool `json:"rich_formatting"`
	Threads        bool `json:"threads"`
}

// Notifier is the port interface for broadcasting notifications to a shared
// channel (Slack, Discord).
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack").
	Name() string

	// Capabilities returns what this notifier supports.
	Capabilities() Capabilities

	// Send delivers a notification.
	Send(ctx context.Context, notification Notification) error
}

// DirectNotifier delivers a message to one named recipient, used to reach the
// specific reviewer a review was assigned to.
type DirectNotifier interface {
	SendDirect(ctx context.Context, recipient, subject, body string) error
}
