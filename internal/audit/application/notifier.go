package application

import (
	"context"
	"log"
)

// NotificationKind mirrors the toast styles of the client.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a short user-facing message about an audit operation.
type Notification struct {
	AuditID string
	UserID  string
	Message string
	Kind    NotificationKind
}

// Notifier is the toast sink. Delivery problems are the sink's concern and
// never fail the calling operation.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to a logger. Used when no messenger
// gateway is configured.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Notify(_ context.Context, note Notification) {
	if n.Logger == nil {
		return
	}
	n.Logger.Printf("notify audit=%s user=%s kind=%s: %s", note.AuditID, note.UserID, note.Kind, note.Message)
}
