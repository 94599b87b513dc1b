package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeStyle(t *testing.T) {
	assert.Equal(t, ColorGreen, OutcomeStyle("new_movements").GetForeground())
	assert.Equal(t, ColorYellow, OutcomeStyle("unavailable").GetForeground())
	assert.Equal(t, ColorRed, OutcomeStyle("").GetForeground())
}

func TestPriorityStyle(t *testing.T) {
	assert.Equal(t, ColorRed, PriorityStyle(" URGENTE ").GetForeground())
	assert.Equal(t, ColorOrange, PriorityStyle("Alta").GetForeground())
	assert.Equal(t, ColorGray, PriorityStyle("Não definido").GetForeground())
}
