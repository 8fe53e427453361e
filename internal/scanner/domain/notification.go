package domain

import (
	"context"
	"time"
)

// Severity of a user-facing notification
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification is a toast shown to one user
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationSink delivers notifications fire-and-forget
type NotificationSink interface {
	Notify(ctx context.Context, userID string, n Notification)
}
