// Package reconcile compares a tracked process's last-known state with the
// registry's current snapshot and applies the resulting writes and
// notifications.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/juscheck/internal/datajud"
	"github.com/nhle/juscheck/internal/model"
	"github.com/nhle/juscheck/internal/notify"
)

// Outcome is the mutually exclusive result class of one reconciliation.
type Outcome string

const (
	// OutcomeUnavailable: the registry had no snapshot; only the check time moves.
	OutcomeUnavailable Outcome = "unavailable"
	// OutcomeFirstCheck: welcome message and full state sync, no history backfill.
	OutcomeFirstCheck Outcome = "first_check"
	// OutcomeNewMovements: the count grew; the delta becomes history.
	OutcomeNewMovements Outcome = "new_movements"
	// OutcomeNoChange: display fields are re-synced silently.
	OutcomeNoChange Outcome = "no_change"
)

// Decision is everything a reconciliation pass must write and send.
type Decision struct {
	Outcome Outcome

	// State is the new engine-owned state. Unused for OutcomeUnavailable.
	State model.ProcessState

	// NewMovements are the movements to append to history, newest first.
	NewMovements []datajud.Movement

	// Message is set when a notification must be sent.
	Message *notify.Message
}

// Engine decides reconciliation outcomes. It performs no I/O.
type Engine struct {
	composer Composer
}

// NewEngine returns an engine rendering timestamps in loc.
func NewEngine(loc *time.Location) Engine {
	return Engine{composer: NewComposer(loc)}
}

// Decide compares prior state with a snapshot. A nil snapshot means the
// registry was unavailable. An error means the notification could not be
// rendered; the decision must then not be committed.
//
// The stored movement count never decreases: when the registry reports fewer
// movements than previously seen, the count is held and only the display
// fields follow the snapshot.
func (e Engine) Decide(
	prior model.TrackedProcess,
	snap *datajud.Snapshot,
	firstCheck bool,
	now time.Time,
) (Decision, error) {
	if snap == nil {
		return Decision{
			Outcome: OutcomeUnavailable,
			State: model.ProcessState{
				MovementCount:     prior.LastMovementCount,
				LatestAt:          prior.LastMovementAt,
				LatestDescription: prior.LastMovementDescription,
				CheckedAt:         now,
			},
		}, nil
	}

	d := Decision{State: stateFrom(prior, snap, now)}

	var err error
	switch {
	case firstCheck:
		d.Outcome = OutcomeFirstCheck
		d.Message, err = e.composer.Welcome(prior.Number, snap)
	case snap.Count() > prior.LastMovementCount:
		d.Outcome = OutcomeNewMovements
		d.NewMovements = snap.Newest(snap.Count() - prior.LastMovementCount)
		d.Message, err = e.composer.NewMovements(prior.Number, d.NewMovements)
	default:
		d.Outcome = OutcomeNoChange
	}
	if err != nil {
		return d, fmt.Errorf("composing %s message: %w", d.Outcome, err)
	}

	if d.Message != nil && !deliverable(prior.Email, d.Message) {
		d.Message = nil
	}
	return d, nil
}

// stateFrom never lowers the stored count; a snapshot with zero movements
// clears the latest-movement fields but keeps the count.
func stateFrom(prior model.TrackedProcess, snap *datajud.Snapshot, now time.Time) model.ProcessState {
	state := model.ProcessState{
		MovementCount: max(snap.Count(), prior.LastMovementCount),
		CheckedAt:     now,
	}
	if latest, ok := snap.Latest(); ok {
		desc := latest.Description
		state.LatestDescription = &desc
		if !latest.At.IsZero() {
			at := latest.At
			state.LatestAt = &at
		}
	}
	return state
}

// deliverable requires a recipient and a non-empty message.
func deliverable(recipient string, msg *notify.Message) bool {
	return strings.TrimSpace(recipient) != "" &&
		strings.TrimSpace(msg.Subject) != "" &&
		strings.TrimSpace(msg.HTML) != ""
}
