package recap

import (
	"fmt"
	"sort"
	"strings"

	"activity-recap/internal/activity"
)

// GroupMapping assigns activity types to a coarser group, e.g. TrailRun to run
type GroupMapping map[string]string

// ParseGroupMapping parses "Type:group,Type:group". Blank entries are
// skipped; an entry without a colon is an error.
func ParseGroupMapping(raw string) (GroupMapping, error) {
	m := GroupMapping{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		typ, group, ok := strings.Cut(entry, ":")
		typ, group = strings.TrimSpace(typ), strings.TrimSpace(group)
		if !ok || typ == "" || group == "" {
			return nil, fmt.Errorf("invalid activity group entry %q", entry)
		}
		m[typ] = group
	}
	return m, nil
}

// GroupOf returns the group for an activity type. Unmapped types are their
// own group.
func (g GroupMapping) GroupOf(activityType string) string {
	if group, ok := g[activityType]; ok {
		return group
	}
	return activityType
}

// inGroups reports whether the type's group is one of groups. An empty list
// admits every type.
func (g GroupMapping) inGroups(activityType string, groups []string) bool {
	if len(groups) == 0 {
		return true
	}
	group := g.GroupOf(activityType)
	for _, want := range groups {
		if strings.EqualFold(group, want) {
			return true
		}
	}
	return false
}

// NormalizeTypes trims, drops blanks and de-duplicates while keeping order
func NormalizeTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// UniqueTypes de-duplicates exact type strings while keeping order
func UniqueTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// PlaceholderDays synthesizes minimal heatmap entries for a list of date
// keys. Dates are sorted and de-duplicated; invalid dates are dropped.
func PlaceholderDays(dates []string) []Day {
	keys := SortDates(dates)
	days := make([]Day, 0, len(keys))
	for _, d := range keys {
		days = append(days, Day{
			Date:          d,
			ActivityCount: 1,
			EffortMetric:  EffortNone,
			Types:         []string{},
		})
	}
	return days
}

// SortDates returns the valid, distinct date keys in ascending order
func SortDates(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if len(d) > len(activity.DateLayout) {
			d = d[:len(activity.DateLayout)]
		}
		if !validDate(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
