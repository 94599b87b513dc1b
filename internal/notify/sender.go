// Package notify delivers notification emails and records that they were sent.
package notify

//go:generate mockgen -source=sender.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/nhle/juscheck/internal/model"
)

// Message is a composed notification, independent of its recipients.
type Message struct {
	Kind    model.NotificationKind
	Subject string
	HTML    string
}

// Envelope is a message addressed for delivery.
type Envelope struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers one envelope through a transactional email transport.
type Sender interface {
	Send(ctx context.Context, env Envelope) error
}

// Copier keeps a copy of every delivered message, e.g. in an IMAP Sent folder.
type Copier interface {
	Append(ctx context.Context, raw []byte) error
}
