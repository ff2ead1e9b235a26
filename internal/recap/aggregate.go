package recap

import (
	"math"
	"sort"
	"time"

	"activity-recap/internal/activity"
)

// Options tune aggregation
type Options struct {
	// AvailableTypes, when set, orders the breakdown
	AvailableTypes []string
	// Groups maps activity types to groups
	Groups GroupMapping
	// PaceGroups restricts pace-based highlights to these groups
	PaceGroups []string
}

// Aggregate builds a recap from activities. It is pure: the same input
// always yields the same result, and it never fails.
func Aggregate(records []activity.Record, window activity.Window, opts Options) Result {
	res := Result{
		Window:                 window,
		Breakdown:              []TypeTotal{},
		AvailableActivityTypes: []string{},
		ActiveDays:             []string{},
		ActivityDays:           []Day{},
	}
	if len(records) == 0 {
		return res
	}

	for _, r := range records {
		res.Total.add(r)
	}
	res.Breakdown = breakdown(records, opts.AvailableTypes)

	types := make([]string, len(res.Breakdown))
	for i, b := range res.Breakdown {
		types[i] = b.Type
	}
	res.AvailableActivityTypes = NormalizeTypes(types)

	res.ActivityDays = buildDays(records)
	res.ActiveDays = make([]string, len(res.ActivityDays))
	for i, d := range res.ActivityDays {
		res.ActiveDays[i] = d.Date
	}

	res.Highlights = buildHighlights(records, res.ActivityDays, opts)
	return res
}

// breakdown groups by exact type. Listed types come first in list order,
// then any remaining types in first-seen order.
func breakdown(records []activity.Record, order []string) []TypeTotal {
	byType := make(map[string]*Total)
	var seen []string
	for _, r := range records {
		t, ok := byType[r.Type]
		if !ok {
			t = &Total{}
			byType[r.Type] = t
			seen = append(seen, r.Type)
		}
		t.add(r)
	}

	out := make([]TypeTotal, 0, len(seen))
	used := make(map[string]bool, len(seen))
	for _, typ := range order {
		if t, ok := byType[typ]; ok && !used[typ] {
			out = append(out, TypeTotal{Type: typ, Total: *t})
			used[typ] = true
		}
	}
	for _, typ := range seen {
		if !used[typ] {
			out = append(out, TypeTotal{Type: typ, Total: *byType[typ]})
			used[typ] = true
		}
	}
	return out
}

type dayAcc struct {
	day        Day
	typeDist   map[string]float64
	typeTime   map[string]int64
	typesOrder []string
}

func buildDays(records []activity.Record) []Day {
	byDate := make(map[string]*dayAcc)
	for _, r := range records {
		key := r.Date()
		acc, ok := byDate[key]
		if !ok {
			acc = &dayAcc{
				day:      Day{Date: key, Types: []string{}},
				typeDist: make(map[string]float64),
				typeTime: make(map[string]int64),
			}
			byDate[key] = acc
		}
		acc.day.ActivityCount++
		acc.day.DistanceMeters += r.DistanceMeters
		acc.day.MovingTimeSeconds += r.MovingTimeSeconds
		if _, seen := acc.typeTime[r.Type]; !seen {
			acc.typesOrder = append(acc.typesOrder, r.Type)
		}
		acc.typeDist[r.Type] += r.DistanceMeters
		acc.typeTime[r.Type] += r.MovingTimeSeconds
	}

	typicalDist := median(positiveDistances(records))
	typicalTime := median(positiveTimes(records))

	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]Day, 0, len(keys))
	for _, k := range keys {
		acc := byDate[k]
		acc.day.Types = append(acc.day.Types, acc.typesOrder...)
		scoreDay(acc, typicalDist, typicalTime)
		days = append(days, acc.day)
	}
	return days
}

// scoreDay picks the dominant metric relative to the period's typical
// single-activity scale and maps it onto [1,100]. 50 is a typical day.
func scoreDay(acc *dayAcc, typicalDist, typicalTime float64) {
	d := &acc.day
	var distRatio, timeRatio float64
	if typicalDist > 0 {
		distRatio = d.DistanceMeters / typicalDist
	}
	if typicalTime > 0 {
		timeRatio = float64(d.MovingTimeSeconds) / typicalTime
	}

	var ratio float64
	switch {
	case distRatio > 0 && distRatio >= timeRatio:
		d.EffortMetric, d.EffortValue, ratio = EffortDistance, d.DistanceMeters, distRatio
	case timeRatio > 0:
		d.EffortMetric, d.EffortValue, ratio = EffortTime, float64(d.MovingTimeSeconds), timeRatio
	default:
		d.EffortMetric, d.EffortScore, d.EffortValue = EffortNone, 0, 0
		return
	}

	d.EffortScore = ClampScore(int(math.Round(50 * ratio)))
	if d.EffortScore < 1 {
		d.EffortScore = 1
	}

	var best string
	var bestVal float64
	for _, t := range acc.typesOrder {
		v := acc.typeDist[t]
		if d.EffortMetric == EffortTime {
			v = float64(acc.typeTime[t])
		}
		if v > bestVal {
			best, bestVal = t, v
		}
	}
	if bestVal > 0 {
		d.EffortType = &best
	}
}

// ClampScore forces an effort score into [0,100]
func ClampScore(score int) int {
	return max(0, min(100, score))
}

func positiveDistances(records []activity.Record) []float64 {
	var out []float64
	for _, r := range records {
		if r.DistanceMeters > 0 {
			out = append(out, r.DistanceMeters)
		}
	}
	return out
}

func positiveTimes(records []activity.Record) []float64 {
	var out []float64
	for _, r := range records {
		if r.MovingTimeSeconds > 0 {
			out = append(out, float64(r.MovingTimeSeconds))
		}
	}
	return out
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func validDate(s string) bool {
	_, err := time.Parse(activity.DateLayout, s)
	return err == nil
}
