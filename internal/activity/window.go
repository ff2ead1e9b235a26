package activity

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Window range limits
const (
	DefaultDays = 7
	MinDays     = 1
	MaxDays     = 365
)

// WindowType selects how the window is anchored
type WindowType string

const (
	WindowRolling  WindowType = "rolling"
	WindowCalendar WindowType = "calendar"
)

// WindowUnit is the calendar period used by calendar windows
type WindowUnit string

const (
	UnitMonth WindowUnit = "month"
	UnitYear  WindowUnit = "year"
)

// Window is an inclusive UTC time range
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate reports whether the window is well formed
func (w Window) Validate() error {
	if w.Start.After(w.End) {
		return fmt.Errorf("window start %s is after end %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowParams are the caller-supplied inputs a Window is derived from.
// Offset is only meaningful for calendar windows measured in years.
type WindowParams struct {
	Type   WindowType
	Days   int
	Unit   WindowUnit
	Offset int
}

// DefaultWindowParams returns a rolling seven day window
func DefaultWindowParams() WindowParams {
	return WindowParams{Type: WindowRolling, Days: DefaultDays, Unit: UnitMonth}
}

// ParseWindowParams reads window parameters from a query string. It never
// fails: unknown or unparseable values fall back to their defaults and days
// are clamped into range.
func ParseWindowParams(q url.Values) WindowParams {
	p := DefaultWindowParams()

	switch WindowType(strings.ToLower(strings.TrimSpace(q.Get("type")))) {
	case WindowCalendar:
		p.Type = WindowCalendar
	default:
		p.Type = WindowRolling
	}

	if days, err := strconv.Atoi(strings.TrimSpace(q.Get("days"))); err == nil {
		p.Days = max(MinDays, min(MaxDays, days))
	}

	if WindowUnit(strings.ToLower(strings.TrimSpace(q.Get("unit")))) == UnitYear {
		p.Unit = UnitYear
	}

	if offset, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil {
		p.Offset = offset
	}

	return p.Normalize()
}

// Normalize clamps days and drops fields that do not apply to the window type,
// so equal windows always produce equal parameters.
func (p WindowParams) Normalize() WindowParams {
	if p.Type != WindowCalendar {
		p.Type = WindowRolling
	}
	if p.Unit != UnitYear {
		p.Unit = UnitMonth
	}
	p.Days = ClampDays(p.Days)

	switch p.Type {
	case WindowRolling:
		p.Unit = UnitMonth
		p.Offset = 0
	case WindowCalendar:
		p.Days = DefaultDays
		if p.Unit != UnitYear {
			p.Offset = 0
		}
	}
	return p
}

// ClampDays forces a day count into [MinDays, MaxDays]. Zero means unset.
func ClampDays(days int) int {
	switch {
	case days == 0:
		return DefaultDays
	case days < MinDays:
		return MinDays
	case days > MaxDays:
		return MaxDays
	}
	return days
}

// Resolve turns the parameters into a concrete UTC window ending at now
func (p WindowParams) Resolve(now time.Time) Window {
	p = p.Normalize()
	now = now.UTC()

	if p.Type == WindowRolling {
		return Window{Start: now.AddDate(0, 0, -p.Days), End: now}
	}

	if p.Unit == UnitMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: now}
	}

	if p.Offset == 0 {
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: now}
	}

	year := now.Year() + p.Offset
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC),
	}
}

// Values encodes the normalized parameters back into query form
func (p WindowParams) Values() url.Values {
	p = p.Normalize()
	v := url.Values{"type": {string(p.Type)}}
	switch p.Type {
	case WindowRolling:
		v.Set("days", strconv.Itoa(p.Days))
	case WindowCalendar:
		v.Set("unit", string(p.Unit))
		if p.Unit == UnitYear && p.Offset != 0 {
			v.Set("offset", strconv.Itoa(p.Offset))
		}
	}
	return v
}
