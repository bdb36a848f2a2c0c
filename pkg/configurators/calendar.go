package configurators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Repeat intervals in seconds recognized by the calendar app.
const (
	repeatDaily  = 86400
	repeatWeekly = 604800
)

const defaultEventDurationMins = 30

// Calendar configures the calendar app's event database.
type Calendar struct {
	rng *sample.Provider
}

func (c *Calendar) Domain() spec.Domain { return spec.DomainCalendar }

func (c *Calendar) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgCalendar); err != nil {
		return err
	}
	for _, perm := range []string{"android.permission.READ_CALENDAR", "android.permission.WRITE_CALENDAR"} {
		if _, err := dev.RunShell(ctx, fmt.Sprintf("pm grant %s %s", pkgCalendar, perm)); err != nil {
			return fmt.Errorf("grant %s: %w", perm, err)
		}
	}
	return nil
}

func (c *Calendar) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.CalendarSpec)
	o := engine.NewOutcome(spec.DomainCalendar)

	if s.ClearEvents {
		if err := clearTable(ctx, dev, calendarDBPath, calendarTable); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, ev := range s.AddEvents {
		o.ItemsTotal++
		if err := c.insertEvent(ctx, dev, ev); err != nil {
			o.RecordError("add_event", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomEvents {
		for i := 0; i < s.EventCount(); i++ {
			o.ItemsTotal++
			if err := c.insertRandomEvent(ctx, dev); err != nil {
				o.RecordError("add_random_event", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Calendar) insertEvent(ctx context.Context, dev device.Controller, ev spec.EventRecord) error {
	start, err := c.resolveStart(ev)
	if err != nil {
		return err
	}
	duration := ev.DurationMins
	if duration <= 0 {
		duration = defaultEventDurationMins
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	repeatRule := 0
	if ev.RepeatInterval == repeatWeekly {
		repeatRule = 1 << weekdayIndex(start.Weekday())
	}

	return insertRow(ctx, dev, calendarDBPath, calendarTable,
		[]string{"start_ts", "end_ts", "title", "location", "description", "repeat_interval", "repeat_rule"},
		[]string{
			sqlInt(start.Unix()),
			sqlInt(end.Unix()),
			sqlString(ev.Title),
			sqlString(ev.Location),
			sqlString(ev.Description),
			sqlInt(int64(ev.RepeatInterval)),
			sqlInt(int64(repeatRule)),
		})
}

func (c *Calendar) insertRandomEvent(ctx context.Context, dev device.Controller) error {
	sampleEvent := c.rng.Event()
	start := time.Now().
		AddDate(0, 0, c.rng.IntBetween(1, 14)).
		Truncate(time.Hour).
		Add(time.Duration(c.rng.IntBetween(8, 19)) * time.Hour)
	return c.insertEvent(ctx, dev, spec.EventRecord{
		Title:        sampleEvent.Title,
		Description:  sampleEvent.Description,
		StartTime:    start.Format(datetimeLayout),
		DurationMins: c.rng.IntBetween(1, 4) * 30,
	})
}

// resolveStart computes the event start from an absolute time or the next
// occurrence of a weekday.
func (c *Calendar) resolveStart(ev spec.EventRecord) (time.Time, error) {
	if ev.StartTime != "" {
		for _, layout := range []string{datetimeLayout, "2006-01-02 15:04", "2006-01-02"} {
			if t, err := time.Parse(layout, ev.StartTime); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid start_time %q", ev.StartTime)
	}
	if ev.DayOfWeek != "" {
		target, err := parseWeekday(ev.DayOfWeek)
		if err != nil {
			return time.Time{}, err
		}
		now := time.Now()
		daysAhead := (weekdayIndex(target) - weekdayIndex(now.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		day := now.AddDate(0, 0, daysAhead)
		return time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, now.Location()), nil
	}
	return time.Now().Add(time.Hour).Truncate(time.Hour), nil
}

// weekdayIndex maps weekdays onto the app's Monday-first bit positions.
func weekdayIndex(d time.Weekday) int {
	if d == time.Sunday {
		return 6
	}
	return int(d) - 1
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(name) {
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return 0, fmt.Errorf("invalid day_of_week %q", name)
	}
}
