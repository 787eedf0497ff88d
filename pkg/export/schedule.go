package export

import (
	"sort"
	"strings"
)

// ScheduleEntry is one calendar event.
type ScheduleEntry struct {
	Time     string `json:"time"`
	Event    string `json:"event"`
	Location string `json:"location"`
}

var mockSchedule = map[string][]ScheduleEntry{
	"today": {
		{Time: "01:00", Event: "Talk with Stefan at NativeCamp", Location: "NativeCamp"},
		{Time: "09:00", Event: "Drop off kids at kindergarten", Location: "Kindergarten"},
		{Time: "13:30", Event: "Get a haircut in Shinjuku", Location: "Shinjuku"},
		{Time: "17:00", Event: "Pick up kids from kindergarten", Location: "Kindergarten"},
		{Time: "18:00", Event: "AI meeting with colleagues", Location: "Online"},
	},
	"tomorrow": {
		{Time: "10:00", Event: "Team standup", Location: "Office"},
		{Time: "14:00", Event: "Client presentation", Location: "Conference Room A"},
	},
}

// Schedule returns the events for a date key. Only "today" and "tomorrow"
// have data; any other key yields an empty schedule.
func Schedule(dateKey string) []ScheduleEntry {
	entries := mockSchedule[dateKey]
	out := make([]ScheduleEntry, len(entries))
	copy(out, entries)
	return out
}

// NormalizeSchedule trims every field, replaces an empty location with "-"
// and sorts by time. The sort is stable and compares "HH:MM" strings.
func NormalizeSchedule(entries []ScheduleEntry) []ScheduleEntry {
	out := make([]ScheduleEntry, 0, len(entries))
	for _, e := range entries {
		location := strings.TrimSpace(e.Location)
		if location == "" {
			location = "-"
		}
		out = append(out, ScheduleEntry{
			Time:     strings.TrimSpace(e.Time),
			Event:    strings.TrimSpace(e.Event),
			Location: location,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// FormatSchedule renders normalized entries as a table.
func FormatSchedule(entries []ScheduleEntry, f Format) string {
	t := table{
		header:      []string{"Time", "Event", "Location"},
		separator:   "|------|-------|----------|",
		placeholder: []string{"-", "No events", "-"},
	}
	for _, e := range entries {
		t.rows = append(t.rows, []string{e.Time, e.Event, e.Location})
	}
	return t.render(f)
}

// ExportSchedule normalizes the schedule for dateKey and writes it to path.
// An empty path uses DefaultOutputPath. The written path is returned.
func ExportSchedule(dateKey string, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultOutputPath("schedule", dateKey, f)
	}
	content := FormatSchedule(NormalizeSchedule(Schedule(dateKey)), f)
	if err := WriteFile(path, content); err != nil {
		return "", err
	}
	return path, nil
}
