package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"activity-recap/internal/activity"
	"activity-recap/internal/cache"
	"activity-recap/internal/recap"
)

var (
	heading     = color.New(color.FgCyan, color.Bold)
	hardColor   = color.New(color.FgRed, color.Bold)
	steadyColor = color.New(color.FgYellow)
	easyColor   = color.New(color.FgGreen)
	restColor   = color.New(color.FgHiBlack)
	okColor     = color.New(color.FgGreen, color.Bold)
)

func formatKm(meters float64) string {
	return strconv.FormatFloat(meters/1000, 'f', 1, 64) + " km"
}

// formatDuration renders seconds as h:mm:ss, or m:ss under an hour
func formatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 || math.IsInf(secondsPerKm, 0) || math.IsNaN(secondsPerKm) {
		return "-"
	}
	return formatDuration(int64(math.Round(secondsPerKm))) + " /km"
}

// effortLabel colours an effort score by intensity
func effortLabel(score int) string {
	text := strconv.Itoa(score)
	switch {
	case score >= 75:
		return hardColor.Sprint(text)
	case score >= 50:
		return steadyColor.Sprint(text)
	case score > 0:
		return easyColor.Sprint(text)
	default:
		return restColor.Sprint(text)
	}
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

func renderTable(table *tablewriter.Table, rows [][]string) error {
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func printRecap(w io.Writer, res *recap.Result) error {
	heading.Fprintf(w, "%s recap %s to %s\n\n", res.Provider,
		res.Window.Start.Format("2006-01-02"), res.Window.End.Format("2006-01-02"))

	if res.Total.Activities == 0 {
		fmt.Fprintln(w, "No activities in this window.")
		return nil
	}

	rows := [][]string{totalRow("Total", res.Total)}
	for _, b := range res.Breakdown {
		rows = append(rows, totalRow(b.Type, b.Total))
	}
	if err := renderTable(newTable(w, "Type", "Activities", "Distance", "Time", "Elevation"), rows); err != nil {
		return err
	}

	fmt.Fprintln(w)
	heading.Fprintln(w, "Days")
	rows = nil
	for _, d := range res.ActivityDays {
		effortType := ""
		if d.EffortType != nil {
			effortType = *d.EffortType
		}
		rows = append(rows, []string{
			d.Date,
			strconv.Itoa(d.ActivityCount),
			formatKm(d.DistanceMeters),
			formatDuration(d.MovingTimeSeconds),
			effortLabel(d.EffortScore),
			string(d.EffortMetric),
			effortType,
		})
	}
	if err := renderTable(newTable(w, "Date", "Count", "Distance", "Time", "Effort", "Metric", "Type"), rows); err != nil {
		return err
	}

	lines := highlightLines(res.Highlights)
	if len(lines) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Highlights")
		for _, l := range lines {
			fmt.Fprintln(w, "  "+l)
		}
	}
	return nil
}

func totalRow(label string, t recap.Total) []string {
	return []string{
		label,
		strconv.Itoa(t.Activities),
		formatKm(t.DistanceMeters),
		formatDuration(t.MovingTimeSeconds),
		strconv.FormatFloat(t.ElevationGainMeters, 'f', 0, 64) + " m",
	}
}

// highlightLines renders every filled highlight slot in a fixed order
func highlightLines(h recap.Highlights) []string {
	var lines []string
	activityLine := func(label string, a *recap.ActivityHighlight, value string) {
		lines = append(lines, fmt.Sprintf("%-18s %s (%s, %s)", label, value, a.Name, a.StartTime.Format("2006-01-02")))
	}

	if h.Longest != nil {
		activityLine("Longest", h.Longest, formatDuration(int64(h.Longest.Value)))
	}
	if h.Farthest != nil {
		activityLine("Farthest", h.Farthest, formatKm(h.Farthest.Value))
	}
	if h.BiggestClimb != nil {
		activityLine("Biggest climb", h.BiggestClimb, strconv.FormatFloat(h.BiggestClimb.Value, 'f', 0, 64)+" m")
	}
	if h.FastestPace != nil {
		activityLine("Fastest pace", h.FastestPace, formatPace(h.FastestPace.Value))
	}
	if h.Best5K != nil {
		activityLine("Best 5K", h.Best5K, formatDuration(int64(h.Best5K.Value)))
	}
	if h.Best10K != nil {
		activityLine("Best 10K", h.Best10K, formatDuration(int64(h.Best10K.Value)))
	}
	if d := h.MostActiveDay; d != nil {
		lines = append(lines, fmt.Sprintf("%-18s %s (%d activities, %s)", "Most active day", d.Date, d.ActivityCount, formatKm(d.DistanceMeters)))
	}
	if wk := h.LongestWeek; wk != nil {
		lines = append(lines, fmt.Sprintf("%-18s %s to %s (%s)", "Longest week", wk.StartDate, wk.EndDate, formatKm(wk.DistanceMeters)))
	}
	if tod := h.TimeOfDay; tod != nil {
		lines = append(lines, fmt.Sprintf("%-18s %s (%d%%)", "Usually active", tod.Bucket, tod.Percent))
	}
	if h.HighestAvgHeartRate != nil {
		activityLine("Highest avg HR", h.HighestAvgHeartRate, strconv.FormatFloat(h.HighestAvgHeartRate.Value, 'f', 0, 64)+" bpm")
	}
	if h.HighestMaxHeartRate != nil {
		activityLine("Highest max HR", h.HighestMaxHeartRate, strconv.FormatFloat(h.HighestMaxHeartRate.Value, 'f', 0, 64)+" bpm")
	}
	return lines
}

func printProfile(w io.Writer, providerID string, p *activity.Profile) {
	heading.Fprintf(w, "%s\n", p.DisplayName())
	fmt.Fprintf(w, "  Provider: %s\n", providerID)
	fmt.Fprintf(w, "  ID:       %s\n", p.ID)
	if loc := strings.Trim(p.City+", "+p.Country, ", "); loc != "" {
		fmt.Fprintf(w, "  Location: %s\n", loc)
	}
}

func printCacheStatus(w io.Writer, prefix string, st cache.Status) error {
	oldest, newest := "-", "-"
	if st.Entries > 0 {
		oldest = st.Oldest.Local().Format("2006-01-02 15:04:05")
		newest = st.Newest.Local().Format("2006-01-02 15:04:05")
	}
	location := st.Location
	if location == "" {
		location = "-"
	}

	table := newTable(w, "Backend", "Location", "Prefix", "Entries", "Oldest", "Newest")
	return renderTable(table, [][]string{{
		string(st.Backend), location, prefix, strconv.Itoa(st.Entries), oldest, newest,
	}})
}
