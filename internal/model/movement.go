package model

import "time"

// MovementRecord is one history entry appended the first time a movement is seen.
type MovementRecord struct {
	ID           int64     `json:"id"`
	ProcessID    int64     `json:"process_id"`
	MovedAt      time.Time `json:"moved_at"`
	Description  string    `json:"description"`
	DiscoveredAt time.Time `json:"discovered_at"`
}
