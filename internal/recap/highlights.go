package recap

import (
	"math"
	"sort"
	"time"

	"activity-recap/internal/activity"
)

// Distance targets and the tolerance band for best-effort highlights
const (
	FiveKMeters    = 5000.0
	TenKMeters     = 10000.0
	RaceTolerance  = 0.05
	weekWindowDays = 7
)

// slot tracks the best record for one highlight. better reports whether a
// candidate value strictly beats the current one.
type slot struct {
	best   *activity.Record
	value  float64
	better func(candidate, current float64) bool
}

func (s *slot) offer(r *activity.Record, v float64) {
	if s.best == nil || s.better(v, s.value) {
		s.best, s.value = r, v
	}
}

func (s *slot) highlight() *ActivityHighlight {
	if s.best == nil {
		return nil
	}
	return &ActivityHighlight{
		ActivityID: s.best.ID,
		Name:       s.best.Name,
		Type:       s.best.Type,
		StartTime:  s.best.StartTime,
		Value:      s.value,
	}
}

func higher(c, cur float64) bool { return c > cur }
func lower(c, cur float64) bool  { return c < cur }

func buildHighlights(records []activity.Record, days []Day, opts Options) Highlights {
	// Ascending start order plus strict comparisons keeps the earliest on ties
	ordered := make([]activity.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime.Before(ordered[j].StartTime)
	})

	longest := slot{better: higher}
	farthest := slot{better: higher}
	climb := slot{better: higher}
	pace := slot{better: lower}
	best5k := slot{better: lower}
	best10k := slot{better: lower}
	avgHR := slot{better: higher}
	maxHR := slot{better: higher}

	for i := range ordered {
		r := &ordered[i]
		if r.MovingTimeSeconds > 0 {
			longest.offer(r, float64(r.MovingTimeSeconds))
		}
		if r.DistanceMeters > 0 {
			farthest.offer(r, r.DistanceMeters)
		}
		if r.ElevationGainMeters > 0 {
			climb.offer(r, r.ElevationGainMeters)
		}
		if r.AverageHeartRate != nil && *r.AverageHeartRate > 0 {
			avgHR.offer(r, *r.AverageHeartRate)
		}
		if r.MaxHeartRate != nil && *r.MaxHeartRate > 0 {
			maxHR.offer(r, *r.MaxHeartRate)
		}

		if !opts.Groups.inGroups(r.Type, opts.PaceGroups) {
			continue
		}
		if p := r.PaceSecondsPerKm(); p > 0 {
			pace.offer(r, p)
		}
		if r.MovingTimeSeconds > 0 {
			if withinTolerance(r.DistanceMeters, FiveKMeters) {
				best5k.offer(r, float64(r.MovingTimeSeconds))
			}
			if withinTolerance(r.DistanceMeters, TenKMeters) {
				best10k.offer(r, float64(r.MovingTimeSeconds))
			}
		}
	}

	return Highlights{
		Longest:             longest.highlight(),
		Farthest:            farthest.highlight(),
		BiggestClimb:        climb.highlight(),
		FastestPace:         pace.highlight(),
		Best5K:              best5k.highlight(),
		Best10K:             best10k.highlight(),
		MostActiveDay:       mostActiveDay(days),
		LongestWeek:         longestWeek(days),
		TimeOfDay:           timeOfDay(ordered),
		HighestAvgHeartRate: avgHR.highlight(),
		HighestMaxHeartRate: maxHR.highlight(),
	}
}

func withinTolerance(distance, target float64) bool {
	return math.Abs(distance-target) <= target*RaceTolerance
}

// mostActiveDay expects days in ascending date order
func mostActiveDay(days []Day) *DayHighlight {
	var best *Day
	for i := range days {
		if best == nil || days[i].ActivityCount > best.ActivityCount {
			best = &days[i]
		}
	}
	if best == nil {
		return nil
	}
	return &DayHighlight{Date: best.Date, ActivityCount: best.ActivityCount, DistanceMeters: best.DistanceMeters}
}

// longestWeek finds the trailing seven day span, ending on an active day,
// with the largest distance.
func longestWeek(days []Day) *WeekHighlight {
	parsed := make([]time.Time, len(days))
	for i, d := range days {
		parsed[i], _ = time.Parse(activity.DateLayout, d.Date)
	}

	var best *WeekHighlight
	for i := range days {
		end := parsed[i]
		start := end.AddDate(0, 0, -(weekWindowDays - 1))

		week := WeekHighlight{
			StartDate: start.Format(activity.DateLayout),
			EndDate:   days[i].Date,
		}
		for j := i; j >= 0 && !parsed[j].Before(start); j-- {
			week.DistanceMeters += days[j].DistanceMeters
			week.Activities += days[j].ActivityCount
		}

		if week.DistanceMeters <= 0 {
			continue
		}
		if best == nil || week.DistanceMeters > best.DistanceMeters {
			w := week
			best = &w
		}
	}
	return best
}

// Bucket returns the time-of-day bucket for a wall clock hour
func Bucket(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour <= 11:
		return Morning
	case hour >= 12 && hour <= 16:
		return Afternoon
	case hour >= 17 && hour <= 20:
		return Evening
	default:
		return Night
	}
}

func timeOfDay(ordered []activity.Record) *TimeOfDayHighlight {
	if len(ordered) == 0 {
		return nil
	}

	// seen is in first-activity order, so a tie keeps the earliest bucket
	counts := make(map[TimeOfDay]int)
	var seen []TimeOfDay
	for _, r := range ordered {
		b := Bucket(r.StartHour())
		if counts[b] == 0 {
			seen = append(seen, b)
		}
		counts[b]++
	}

	best := seen[0]
	for _, b := range seen[1:] {
		if counts[b] > counts[best] {
			best = b
		}
	}

	return &TimeOfDayHighlight{
		Bucket:     best,
		Activities: counts[best],
		Percent:    int(math.Round(float64(counts[best]) * 100 / float64(len(ordered)))),
	}
}
