package model

import "time"

// NotificationKind distinguishes welcome messages from change alerts.
type NotificationKind string

const (
	NotificationWelcome      NotificationKind = "welcome"
	NotificationNewMovements NotificationKind = "new_movements"
)

// NotificationEvent records that an email about a tracked process was sent.
type NotificationEvent struct {
	// ID is a UUID assigned on creation.
	ID string `json:"id"`

	// ProcessID links the event to its TrackedProcess.
	ProcessID int64 `json:"process_id"`

	Kind NotificationKind `json:"kind"`

	// Subject and Body are the message as composed at send time.
	Subject string `json:"subject"`
	Body    string `json:"body"`

	SentAt time.Time `json:"sent_at"`
}
