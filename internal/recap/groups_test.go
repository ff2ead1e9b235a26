package recap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupMapping(t *testing.T) {
	m, err := ParseGroupMapping(" Run:run, TrailRun:run ,, Ride:ride")
	require.NoError(t, err)

	assert.Equal(t, "run", m.GroupOf("TrailRun"))
	assert.Equal(t, "ride", m.GroupOf("Ride"))
	assert.Equal(t, "Swim", m.GroupOf("Swim"))

	empty, err := ParseGroupMapping("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseGroupMapping("Run")
	assert.Error(t, err)
	_, err = ParseGroupMapping("Run:")
	assert.Error(t, err)
}

func TestNilGroupMapping(t *testing.T) {
	var m GroupMapping
	assert.Equal(t, "Run", m.GroupOf("Run"))
	assert.True(t, m.inGroups("Run", nil))
	assert.False(t, m.inGroups("Ride", []string{"run"}))
}

func TestNormalizeTypes(t *testing.T) {
	got := NormalizeTypes([]string{" Run", "Ride", "", "  ", "Run", "Swim", "Ride "})
	assert.Equal(t, []string{"Run", "Ride", "Swim"}, got)

	assert.Equal(t, []string{}, NormalizeTypes(nil))
	assert.Equal(t, got, NormalizeTypes(got))
}

func TestPlaceholderDays(t *testing.T) {
	days := PlaceholderDays([]string{"2026-10-14", "2026-10-12", "2026-10-14", "garbage", "2026-10-13T07:00:00Z"})

	require.Len(t, days, 3)
	assert.Equal(t, "2026-10-12", days[0].Date)
	assert.Equal(t, "2026-10-13", days[1].Date)
	assert.Equal(t, "2026-10-14", days[2].Date)
	for _, d := range days {
		assert.Equal(t, 1, d.ActivityCount)
		assert.Zero(t, d.DistanceMeters)
		assert.Zero(t, d.EffortScore)
		assert.Equal(t, EffortNone, d.EffortMetric)
		assert.NotNil(t, d.Types)
	}
}

func TestUniqueTypes(t *testing.T) {
	assert.Equal(t, []string{"Run", " Run", ""}, UniqueTypes([]string{"Run", " Run", "Run", "", ""}))
	assert.NotNil(t, UniqueTypes(nil))
}
