package activity

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

func TestParseWindowParamsDefaults(t *testing.T) {
	p := ParseWindowParams(url.Values{})

	assert.Equal(t, WindowRolling, p.Type)
	assert.Equal(t, DefaultDays, p.Days)
	assert.Equal(t, UnitMonth, p.Unit)
	assert.Equal(t, 0, p.Offset)
}

func TestParseWindowParamsDays(t *testing.T) {
	tests := []struct {
		name string
		days string
		want int
	}{
		{"valid", "30", 30},
		{"too large", "400", 365},
		{"zero", "0", 1},
		{"negative", "-5", 1},
		{"unparseable", "lots", 7},
		{"empty", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParseWindowParams(url.Values{"days": {tt.days}})
			assert.Equal(t, tt.want, p.Days)
		})
	}
}

func TestParseWindowParamsCaseInsensitive(t *testing.T) {
	p := ParseWindowParams(url.Values{"type": {"Calendar"}, "unit": {"YEAR"}, "offset": {"-1"}})

	assert.Equal(t, WindowCalendar, p.Type)
	assert.Equal(t, UnitYear, p.Unit)
	assert.Equal(t, -1, p.Offset)
}

func TestResolveRolling(t *testing.T) {
	w := WindowParams{Type: WindowRolling, Days: 7}.Resolve(now)

	assert.Equal(t, now.AddDate(0, 0, -7), w.Start)
	assert.Equal(t, now, w.End)
}

func TestResolveCalendarMonth(t *testing.T) {
	w := WindowParams{Type: WindowCalendar, Unit: UnitMonth}.Resolve(now)

	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, now, w.End)
}

func TestResolveCalendarYearCurrent(t *testing.T) {
	w := WindowParams{Type: WindowCalendar, Unit: UnitYear}.Resolve(now)

	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, now, w.End)
}

func TestResolveCalendarYearPrevious(t *testing.T) {
	w := WindowParams{Type: WindowCalendar, Unit: UnitYear, Offset: -1}.Resolve(now)

	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, time.December, 31, 23, 59, 59, 0, time.UTC), w.End)
}

func TestResolveOffsetIgnoredForMonth(t *testing.T) {
	w := WindowParams{Type: WindowCalendar, Unit: UnitMonth, Offset: -3}.Resolve(now)

	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestResolveAlwaysOrdered(t *testing.T) {
	var params []WindowParams
	for _, days := range []int{-10, 0, 1, 7, 90, 365, 1000} {
		params = append(params, WindowParams{Type: WindowRolling, Days: days})
	}
	for _, offset := range []int{-5, -1, 0, 1, 3} {
		params = append(params,
			WindowParams{Type: WindowCalendar, Unit: UnitYear, Offset: offset},
			WindowParams{Type: WindowCalendar, Unit: UnitMonth, Offset: offset},
		)
	}

	instants := []time.Time{
		now,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC),
	}

	for _, p := range params {
		for _, at := range instants {
			w := p.Resolve(at)
			require.NoError(t, w.Validate(), "params %+v at %s", p, at)
		}
	}
}

func TestWindowValuesStable(t *testing.T) {
	a := WindowParams{Type: WindowRolling, Days: 7, Unit: UnitYear, Offset: 4}
	b := ParseWindowParams(url.Values{"days": {"7"}})

	assert.Equal(t, a.Values().Encode(), b.Values().Encode())
	assert.Equal(t, "days=7&type=rolling", b.Values().Encode())

	c := WindowParams{Type: WindowCalendar, Unit: UnitYear, Offset: -1}
	assert.Equal(t, "offset=-1&type=calendar&unit=year", c.Values().Encode())
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: now.Add(-time.Hour), End: now}

	assert.True(t, w.Contains(now))
	assert.True(t, w.Contains(now.Add(-time.Hour)))
	assert.False(t, w.Contains(now.Add(time.Second)))
}

func TestRecordHelpers(t *testing.T) {
	r := Record{
		StartTime:         time.Date(2026, time.October, 17, 23, 30, 0, 0, time.FixedZone("x", -2*3600)),
		DistanceMeters:    5000,
		MovingTimeSeconds: 1500,
	}

	assert.Equal(t, "2026-10-18", r.Date())
	assert.Equal(t, 1, r.StartHour())
	assert.InDelta(t, 300.0, r.PaceSecondsPerKm(), 0.001)

	r.LocalStartTime = time.Date(2026, time.October, 17, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 23, r.StartHour())
}
