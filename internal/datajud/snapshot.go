package datajud

import (
	"encoding/json"
	"sort"
	"time"
)

// Snapshot is the registry's current view of one process. Its movements are
// always ordered newest first; ties keep registry order.
type Snapshot struct {
	Number      string
	Court       string
	Grade       string
	Class       string
	JudgingBody string
	FiledAt     *time.Time

	movements []Movement
}

// NewSnapshot builds a snapshot, sorting a copy of movements newest first.
func NewSnapshot(number string, movements []Movement) *Snapshot {
	sorted := make([]Movement, len(movements))
	copy(sorted, movements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At.After(sorted[j].At)
	})
	return &Snapshot{Number: number, movements: sorted}
}

// snapshotFromProcess maps a registry document onto a Snapshot.
func snapshotFromProcess(number string, p Process) *Snapshot {
	var raws []RawMovement
	if p.Movimentos != nil {
		raws = *p.Movimentos
	}
	movements := make([]Movement, 0, len(raws))
	for _, raw := range raws {
		movements = append(movements, raw.Resolve())
	}

	snap := NewSnapshot(number, movements)
	snap.Court = p.Tribunal
	snap.Grade = p.Grau
	if p.Classe != nil {
		snap.Class = p.Classe.Nome
	}
	if p.OrgaoJulgador != nil {
		snap.JudgingBody = p.OrgaoJulgador.Nome
	}
	if filed := parseRegistryTime(p.DataAjuizamento); !filed.IsZero() {
		snap.FiledAt = &filed
	}
	return snap
}

// Count is the number of movements the registry reports.
func (s *Snapshot) Count() int {
	return len(s.movements)
}

// Movements returns a copy of all movements, newest first.
func (s *Snapshot) Movements() []Movement {
	out := make([]Movement, len(s.movements))
	copy(out, s.movements)
	return out
}

// Latest returns the newest movement, if any.
func (s *Snapshot) Latest() (Movement, bool) {
	if len(s.movements) == 0 {
		return Movement{}, false
	}
	return s.movements[0], true
}

// Newest returns up to n of the most recent movements, newest first.
func (s *Snapshot) Newest(n int) []Movement {
	if n <= 0 {
		return nil
	}
	if n > len(s.movements) {
		n = len(s.movements)
	}
	out := make([]Movement, n)
	copy(out, s.movements[:n])
	return out
}

// MarshalJSON exposes the snapshot for lookup responses.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number      string     `json:"number"`
		Court       string     `json:"court,omitempty"`
		Grade       string     `json:"grade,omitempty"`
		Class       string     `json:"class,omitempty"`
		JudgingBody string     `json:"judging_body,omitempty"`
		FiledAt     *time.Time `json:"filed_at,omitempty"`
		Count       int        `json:"movement_count"`
		Movements   []Movement `json:"movements"`
	}{
		Number:      s.Number,
		Court:       s.Court,
		Grade:       s.Grade,
		Class:       s.Class,
		JudgingBody: s.JudgingBody,
		FiledAt:     s.FiledAt,
		Count:       len(s.movements),
		Movements:   s.Movements(),
	})
}
