package entities

import (
	"time"

	"github.com/google/uuid"
)

// NotificationLevel is the severity of a toast notification
type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelError   NotificationLevel = "error"
)

// Notification is one transient toast entry for the presentation layer.
// Failures from background operations surface here instead of being thrown.
type Notification struct {
	ID        uuid.UUID         `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewNotification creates a notification entry
func NewNotification(level NotificationLevel, message string) Notification {
	return Notification{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	}
}
