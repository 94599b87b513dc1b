package model

import "time"

// DefaultPriority is the priority assigned to processes registered without one.
const DefaultPriority = "Não definido"

// TrackedProcess is one recipient's subscription to one judicial process.
// The pair (Email, Number) is unique.
type TrackedProcess struct {
	// ID is the store-assigned identifier.
	ID int64 `json:"id"`

	// Number is the 20-digit CNJ number, digits only.
	Number string `json:"number"`

	// Email is the recipient address notified about this process.
	Email string `json:"email"`

	// LastMovementCount is the movement count seen on the last successful check.
	LastMovementCount int `json:"last_movement_count"`

	// LastMovementAt is the timestamp of the most recent movement seen.
	LastMovementAt *time.Time `json:"last_movement_at,omitempty"`

	// LastMovementDescription is the description of the most recent movement seen.
	LastMovementDescription *string `json:"last_movement_description,omitempty"`

	// LastCheckedAt is when the registry was last consulted for this process.
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`

	// Label is an optional free-text tag set by the user.
	Label *string `json:"label,omitempty"`

	// Priority is a user classification such as "Alta" or "Baixa".
	Priority string `json:"priority"`

	// Favorite pins the process to the top of listings.
	Favorite bool `json:"favorite"`

	CreatedAt time.Time `json:"created_at"`
}

// State returns the engine-owned part of the process.
func (p TrackedProcess) State() ProcessState {
	return ProcessState{
		MovementCount:     p.LastMovementCount,
		LatestAt:          p.LastMovementAt,
		LatestDescription: p.LastMovementDescription,
	}
}

// ProcessState holds the fields mutated only by reconciliation.
type ProcessState struct {
	MovementCount     int
	LatestAt          *time.Time
	LatestDescription *string
	CheckedAt         time.Time
}

// ProcessSummary is a TrackedProcess enriched for list views.
type ProcessSummary struct {
	TrackedProcess

	// LastNotifiedAt is when the most recent notification was sent, if any.
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
}
