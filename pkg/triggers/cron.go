package triggers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronField is the parsed set of valid values for one of the five cron
// fields.
type cronField map[int]bool

func parseCronField(field string, min, max int) (cronField, error) {
	values := make(cronField)
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "*":
			for v := min; v <= max; v++ {
				values[v] = true
			}
		case strings.HasPrefix(part, "*/"):
			step, err := strconv.Atoi(part[2:])
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("triggers: invalid step %q", part)
			}
			for v := min; v <= max; v += step {
				values[v] = true
			}
		case strings.Contains(part, "-") && strings.Contains(part, "/"):
			rangePart, stepPart, _ := strings.Cut(part, "/")
			step, err := strconv.Atoi(stepPart)
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("triggers: invalid step in %q", part)
			}
			start, end, err := parseRange(rangePart)
			if err != nil {
				return nil, err
			}
			for v := start; v <= end; v += step {
				values[v] = true
			}
		case strings.Contains(part, "-"):
			start, end, err := parseRange(part)
			if err != nil {
				return nil, err
			}
			for v := start; v <= end; v++ {
				values[v] = true
			}
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("triggers: invalid cron value %q", part)
			}
			values[v] = true
		}
	}
	for v := range values {
		if v < min || v > max {
			return nil, fmt.Errorf("triggers: value %d out of range [%d,%d]", v, min, max)
		}
	}
	return values, nil
}

func parseRange(part string) (int, int, error) {
	lo, hi, ok := strings.Cut(part, "-")
	if !ok {
		return 0, 0, fmt.Errorf("triggers: invalid range %q", part)
	}
	start, err := strconv.Atoi(lo)
	if err != nil {
		return 0, 0, fmt.Errorf("triggers: invalid range %q", part)
	}
	end, err := strconv.Atoi(hi)
	if err != nil {
		return 0, 0, fmt.Errorf("triggers: invalid range %q", part)
	}
	return start, end, nil
}

// schedule is a parsed 5-field cron expression (minute hour day month
// weekday), weekday 0=Monday (note: Go's time.Weekday has Sunday=0, so
// weekday membership checks translate through weekdayMondayZero).
type schedule struct {
	minute, hour, day, month, weekday cronField
}

func parseCron(expr string) (*schedule, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("triggers: cron expression %q must have 5 fields", expr)
	}
	minute, err := parseCronField(parts[0], 0, 59)
	if err != nil {
		return nil, err
	}
	hour, err := parseCronField(parts[1], 0, 23)
	if err != nil {
		return nil, err
	}
	day, err := parseCronField(parts[2], 1, 31)
	if err != nil {
		return nil, err
	}
	month, err := parseCronField(parts[3], 1, 12)
	if err != nil {
		return nil, err
	}
	weekday, err := parseCronField(parts[4], 0, 6)
	if err != nil {
		return nil, err
	}
	return &schedule{minute: minute, hour: hour, day: day, month: month, weekday: weekday}, nil
}

// weekdayMondayZero converts Go's time.Weekday (Sunday=0) to the cron
// dialect's Monday=0 numbering.
func weekdayMondayZero(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// maxSearchMinutes bounds how far forward nextRunTime searches before giving
// up: one year of minutes.
const maxSearchMinutes = 525600

// nextRunTime returns the first instant at or after (after + 1 minute),
// truncated to the minute, matching the cron expression in the given
// location.
func nextRunTime(expr string, after time.Time, loc *time.Location) (time.Time, error) {
	sched, err := parseCron(expr)
	if err != nil {
		return time.Time{}, err
	}
	current := after.In(loc).Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < maxSearchMinutes; i++ {
		if sched.minute[current.Minute()] &&
			sched.hour[current.Hour()] &&
			sched.day[current.Day()] &&
			sched.month[int(current.Month())] &&
			sched.weekday[weekdayMondayZero(current.Weekday())] {
			return current, nil
		}
		current = current.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("triggers: no run time found for %q within %d minutes", expr, maxSearchMinutes)
}
