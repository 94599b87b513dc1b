package datajud

import (
	"strings"
	"time"
)

// PlaceholderDescription is used when a movement carries no description.
const PlaceholderDescription = "Movimentação"

// Movement is a registry movement with its description resolved.
type Movement struct {
	Code        int       `json:"code,omitempty"`
	At          time.Time `json:"at"`
	Description string    `json:"description"`
}

// Description resolves the display text of a movement. The national
// standardized description wins, then nome, then descricao, then the
// court-local description. Blank values count as absent.
func (m RawMovement) Description() string {
	candidates := []*string{m.nationalDescription(), m.Nome, m.Descricao, m.localDescription()}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if s := strings.TrimSpace(*c); s != "" {
			return s
		}
	}
	return PlaceholderDescription
}

func (m RawMovement) nationalDescription() *string {
	if m.MovimentoNacional == nil {
		return nil
	}
	return m.MovimentoNacional.Descricao
}

func (m RawMovement) localDescription() *string {
	if m.MovimentoLocal == nil {
		return nil
	}
	return m.MovimentoLocal.Descricao
}

// Resolve converts a raw movement into a Movement.
func (m RawMovement) Resolve() Movement {
	return Movement{
		Code:        m.Codigo,
		At:          parseRegistryTime(m.DataHora),
		Description: m.Description(),
	}
}

// registryTimeLayouts lists the timestamp shapes seen across courts.
// Values without an offset are read as UTC.
var registryTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"20060102150405",
	"2006-01-02",
}

// parseRegistryTime returns the zero time for empty or unrecognized input.
func parseRegistryTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range registryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
