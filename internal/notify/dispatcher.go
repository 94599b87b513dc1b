package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/juscheck/internal/model"
)

// ErrDispatch wraps every delivery failure.
var ErrDispatch = errors.New("notification dispatch failed")

// EventStore records sent notifications.
type EventStore interface {
	CreateNotification(ctx context.Context, n model.NotificationEvent) error
}

// Recorder counts dispatch attempts by kind and result.
type Recorder interface {
	IncNotification(kind string, sent bool)
}

// Dispatcher sends a message and, once sent, records a NotificationEvent.
// Delivery is attempted once; there are no retries.
type Dispatcher struct {
	sender   Sender
	events   EventStore
	from     string
	copier   Copier
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithCopier keeps a copy of each sent message.
func WithCopier(c Copier) DispatcherOption {
	return func(d *Dispatcher) { d.copier = c }
}

// WithRecorder counts dispatches.
func WithRecorder(r Recorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher creates a dispatcher sending from the given address.
func NewDispatcher(
	sender Sender,
	events EventStore,
	from string,
	logger *slog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		events: events,
		from:   from,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch delivers msg to recipients and records the event against
// processID. Blank recipients are dropped; with none left nothing is sent.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	processID int64,
	recipients []string,
	msg Message,
) error {
	to := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r = strings.TrimSpace(r); r != "" {
			to = append(to, r)
		}
	}
	if len(to) == 0 {
		return nil
	}

	env := Envelope{From: d.from, To: to, Subject: msg.Subject, HTML: msg.HTML}
	if err := d.sender.Send(ctx, env); err != nil {
		d.record(msg.Kind, false)
		return fmt.Errorf("%w: process %d: %v", ErrDispatch, processID, err)
	}
	d.record(msg.Kind, true)

	sentAt := d.now()
	event := model.NotificationEvent{
		ID:        uuid.New().String(),
		ProcessID: processID,
		Kind:      msg.Kind,
		Subject:   msg.Subject,
		Body:      msg.HTML,
		SentAt:    sentAt,
	}
	if err := d.events.CreateNotification(ctx, event); err != nil {
		return fmt.Errorf("recording notification for process %d: %w", processID, err)
	}

	if d.copier != nil {
		d.keepCopy(ctx, processID, env, sentAt)
	}
	return nil
}

// keepCopy is best effort; the message has already been delivered.
func (d *Dispatcher) keepCopy(ctx context.Context, processID int64, env Envelope, at time.Time) {
	raw, err := BuildMIME(env, at)
	if err == nil {
		err = d.copier.Append(ctx, raw)
	}
	if err != nil {
		d.logger.WarnContext(ctx, "failed to keep copy of notification",
			"process_id", processID,
			"error", err,
		)
	}
}

func (d *Dispatcher) record(kind model.NotificationKind, sent bool) {
	if d.recorder != nil {
		d.recorder.IncNotification(string(kind), sent)
	}
}
