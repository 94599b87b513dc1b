package datajud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func TestNewSnapshotSortsNewestFirst(t *testing.T) {
	input := []Movement{
		{At: day(2), Description: "b"},
		{At: day(5), Description: "e"},
		{At: day(1), Description: "a"},
		{At: day(3), Description: "c"},
	}

	snap := NewSnapshot("00012345620248260100", input)

	got := snap.Movements()
	require.Len(t, got, 4)
	assert.Equal(t, []string{"e", "c", "b", "a"}, []string{
		got[0].Description, got[1].Description, got[2].Description, got[3].Description,
	})
	// input untouched
	assert.Equal(t, "b", input[0].Description)
}

func TestSnapshotStableOnTies(t *testing.T) {
	snap := NewSnapshot("n", []Movement{
		{At: day(1), Description: "first"},
		{At: day(1), Description: "second"},
	})
	got := snap.Movements()
	assert.Equal(t, "first", got[0].Description)
	assert.Equal(t, "second", got[1].Description)
}

func TestSnapshotNewestAndLatest(t *testing.T) {
	snap := NewSnapshot("n", []Movement{
		{At: day(1), Description: "a"},
		{At: day(2), Description: "b"},
		{At: day(3), Description: "c"},
	})

	latest, ok := snap.Latest()
	require.True(t, ok)
	assert.Equal(t, "c", latest.Description)

	assert.Len(t, snap.Newest(2), 2)
	assert.Equal(t, "b", snap.Newest(2)[1].Description)
	assert.Len(t, snap.Newest(10), 3)
	assert.Nil(t, snap.Newest(0))

	empty := NewSnapshot("n", nil)
	_, ok = empty.Latest()
	assert.False(t, ok)
	assert.Equal(t, 0, empty.Count())
}
