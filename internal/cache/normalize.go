package cache

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/recap"
)

// Repaired field names, reported by Normalize and counted in metrics
const (
	RepairTotal          = "total"
	RepairTypeCount      = "breakdown.activities"
	RepairAvailableTypes = "availableActivityTypes"
	RepairActivityDays   = "activityDays"
	RepairActiveDays     = "activeDays"
	RepairEffort         = "effort"
	RepairNegative       = "negative"
	RepairHighlights     = "highlights"
	RepairWindow         = "window"
	RepairMistyped       = "mistyped"
)

// object is one stored JSON object. Fields are read one at a time so a
// mistyped field is repaired on its own instead of failing the payload.
type object map[string]json.RawMessage

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// asObject decodes raw as an object; ok is false for anything else
func asObject(raw json.RawMessage) (object, bool) {
	var o object
	if isNull(raw) || json.Unmarshal(raw, &o) != nil {
		return nil, false
	}
	return o, true
}

// present reports whether key holds a non-null value
func (o object) present(key string) bool {
	return !isNull(o[key])
}

// number reads a JSON number or a numeric string. Missing and null give nil;
// anything else unreadable gives nil and is recorded.
func (o object) number(key string, fixed *repairs) *float64 {
	raw := o[key]
	if isNull(raw) {
		return nil
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return &f
	}
	fixed.add(RepairMistyped)
	var str string
	if json.Unmarshal(raw, &str) == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return &f
		}
	}
	return nil
}

// text reads a string field, formatting a number as its decimal text
func (o object) text(key string, fixed *repairs) string {
	s, _ := asText(o[key], fixed)
	return s
}

func asText(raw json.RawMessage, fixed *repairs) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str, true
	}
	fixed.add(RepairMistyped)
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String(), true
	}
	return "", false
}

// list reads an array field. A missing, null or non-array value gives nil.
func (o object) list(key string, fixed *repairs) []json.RawMessage {
	raw := o[key]
	if isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		fixed.add(RepairMistyped)
		return nil
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items
}

// texts reads an array of strings, coercing numbers and dropping the rest.
// It returns nil when the field is missing or not an array.
func (o object) texts(key string, fixed *repairs) *[]string {
	items := o.list(key, fixed)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asText(item, fixed); ok {
			out = append(out, s)
		} else {
			fixed.add(RepairMistyped)
		}
	}
	return &out
}

// timestamp reads an RFC 3339 string or epoch seconds
func (o object) timestamp(key string, fixed *repairs) time.Time {
	raw := o[key]
	if isNull(raw) {
		return time.Time{}
	}
	var t time.Time
	if json.Unmarshal(raw, &t) == nil {
		return t
	}
	fixed.add(RepairMistyped)
	if secs := o.number(key, fixed); secs != nil && *secs > 0 {
		return time.Unix(clampInt64(*secs), 0).UTC()
	}
	return time.Time{}
}

// coerceDate accepts YYYYMMDD and full timestamps as day keys
func coerceDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 8 && strings.Trim(s, "0123456789") == "" {
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return s
}

func coerceDates(dates []string) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = coerceDate(d)
	}
	return out
}

// repairs collects distinct repaired field names in first-seen order
type repairs []string

func (r *repairs) add(field string) {
	for _, f := range *r {
		if f == field {
			return
		}
	}
	*r = append(*r, field)
}

// Normalize decodes any stored recap shape, current or legacy, into the
// current contract. It returns the fields it had to repair. Only a payload
// that is not a JSON object at all is an error; anything else is coerced.
// Normalizing an already normalized payload changes nothing.
func Normalize(payload []byte) (recap.Result, []string, error) {
	var stored object
	if err := json.Unmarshal(payload, &stored); err != nil {
		return recap.Result{}, nil, fmt.Errorf("failed to decode cached recap: %w", err)
	}

	var fixed repairs
	res := recap.Result{
		Provider:    stored.text("provider", &fixed),
		GeneratedAt: stored.timestamp("generatedAt", &fixed),
	}

	if stored.present("window") {
		if err := json.Unmarshal(stored["window"], &res.Window); err != nil {
			res.Window = activity.Window{}
			fixed.add(RepairWindow)
		}
	}

	items := stored.list("breakdown", &fixed)
	res.Breakdown = make([]recap.TypeTotal, 0, len(items))
	for _, item := range items {
		b, ok := asObject(item)
		if !ok {
			fixed.add(RepairTypeCount)
			continue
		}
		if !b.present("activities") {
			fixed.add(RepairTypeCount)
		}
		res.Breakdown = append(res.Breakdown, recap.TypeTotal{
			Type:  b.text("type", &fixed),
			Total: readTotal(b, &fixed),
		})
	}

	if total, ok := asObject(stored["total"]); ok {
		res.Total = readTotal(total, &fixed)
	} else {
		fixed.add(RepairTotal)
		for _, b := range res.Breakdown {
			res.Total.Activities = clampInt(float64(res.Total.Activities) + float64(b.Activities))
			res.Total.DistanceMeters += b.DistanceMeters
			res.Total.MovingTimeSeconds = clampInt64(float64(res.Total.MovingTimeSeconds) + float64(b.MovingTimeSeconds))
			res.Total.ElevationGainMeters += b.ElevationGainMeters
		}
	}

	breakdownTypes := make([]string, len(res.Breakdown))
	for i, b := range res.Breakdown {
		breakdownTypes[i] = b.Type
	}
	available := stored.texts("availableActivityTypes", &fixed)
	switch {
	case available == nil,
		len(*available) == 0 && len(res.Breakdown) > 0:
		fixed.add(RepairAvailableTypes)
		res.AvailableActivityTypes = recap.NormalizeTypes(breakdownTypes)
	default:
		res.AvailableActivityTypes = recap.NormalizeTypes(*available)
		if len(res.AvailableActivityTypes) != len(*available) {
			fixed.add(RepairAvailableTypes)
		}
	}

	var legacyDays []string
	activeDays := stored.texts("activeDays", &fixed)
	if activeDays != nil {
		legacyDays = coerceDates(*activeDays)
	}

	if days := stored.list("activityDays", &fixed); days == nil {
		fixed.add(RepairActivityDays)
		res.ActivityDays = recap.PlaceholderDays(legacyDays)
	} else {
		res.ActivityDays = normalizeDays(days, &fixed)
	}

	if activeDays == nil {
		fixed.add(RepairActiveDays)
		dates := make([]string, len(res.ActivityDays))
		for i, d := range res.ActivityDays {
			dates[i] = d.Date
		}
		res.ActiveDays = recap.SortDates(dates)
	} else {
		res.ActiveDays = recap.SortDates(legacyDays)
		if !sort.StringsAreSorted(*activeDays) || len(res.ActiveDays) != len(*activeDays) {
			fixed.add(RepairActiveDays)
		}
	}

	if stored.present("highlights") {
		if err := json.Unmarshal(stored["highlights"], &res.Highlights); err != nil {
			res.Highlights = recap.Highlights{}
			fixed.add(RepairHighlights)
		}
	}

	return res, fixed, nil
}

func readTotal(o object, fixed *repairs) recap.Total {
	return recap.Total{
		Activities:          clampInt(nonNegative(o.number("activities", fixed), fixed)),
		DistanceMeters:      nonNegative(o.number("distanceMeters", fixed), fixed),
		MovingTimeSeconds:   clampInt64(nonNegative(o.number("movingTimeSeconds", fixed), fixed)),
		ElevationGainMeters: nonNegative(o.number("elevationGainMeters", fixed), fixed),
	}
}

// nonNegative dereferences v, treating nil, NaN and negatives as zero
func nonNegative(v *float64, fixed *repairs) float64 {
	if v == nil {
		return 0
	}
	if math.IsNaN(*v) || *v < 0 {
		fixed.add(RepairNegative)
		return 0
	}
	return *v
}

// clampInt converts a non-negative float, saturating at math.MaxInt
func clampInt(v float64) int {
	if v >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(v)
}

func clampInt64(v float64) int64 {
	if v >= float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(v)
}

func normalizeDays(stored []json.RawMessage, fixed *repairs) []recap.Day {
	days := make([]recap.Day, 0, len(stored))
	seen := make(map[string]bool, len(stored))

	for _, item := range stored {
		sd, ok := asObject(item)
		if !ok {
			fixed.add(RepairActivityDays)
			continue
		}

		rawDate := sd.text("date", fixed)
		dates := recap.SortDates([]string{coerceDate(rawDate)})
		if len(dates) == 0 || seen[dates[0]] {
			fixed.add(RepairActivityDays)
			continue
		}
		seen[dates[0]] = true

		var effortType *string
		if sd.present("effortType") {
			t := sd.text("effortType", fixed)
			effortType = &t
		}
		var types []string
		if list := sd.texts("types", fixed); list != nil {
			types = *list
		}

		d := recap.Day{
			Date:              dates[0],
			ActivityCount:     clampInt(nonNegative(sd.number("activityCount", fixed), fixed)),
			DistanceMeters:    nonNegative(sd.number("distanceMeters", fixed), fixed),
			MovingTimeSeconds: clampInt64(nonNegative(sd.number("movingTimeSeconds", fixed), fixed)),
			EffortValue:       nonNegative(sd.number("effortValue", fixed), fixed),
			EffortMetric:      recap.EffortMetric(sd.text("effortMetric", fixed)),
			EffortType:        effortType,
			Types:             recap.UniqueTypes(types),
		}
		if d.Date != rawDate {
			fixed.add(RepairActivityDays)
		}
		if d.ActivityCount < 1 {
			d.ActivityCount = 1
			fixed.add(RepairActivityDays)
		}

		storedScore := sd.number("effortScore", fixed)
		score := 0
		if storedScore != nil {
			score = int(math.Round(max(0, min(100, *storedScore))))
		}
		d.EffortScore = recap.ClampScore(score)

		// A scored metric needs a positive score; "none" never carries one
		if !d.EffortMetric.Valid() || d.EffortScore == 0 {
			if d.EffortMetric != recap.EffortNone {
				fixed.add(RepairEffort)
			}
			d.EffortMetric = recap.EffortNone
		}
		if d.EffortMetric == recap.EffortNone {
			d.EffortScore, d.EffortValue, d.EffortType = 0, 0, nil
		}
		if storedScore != nil && float64(d.EffortScore) != *storedScore {
			fixed.add(RepairEffort)
		}

		days = append(days, d)
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
