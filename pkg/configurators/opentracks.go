package configurators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

const defaultActivityDurationMins = 30

// OpenTracks configures the activity tracker app's track database.
type OpenTracks struct {
	rng *sample.Provider
}

func (c *OpenTracks) Domain() spec.Domain { return spec.DomainOpenTracks }

func (c *OpenTracks) EnsureReady(ctx context.Context, dev device.Controller) error {
	return ensureApp(ctx, dev, pkgOpenTracksActivity)
}

func (c *OpenTracks) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.OpenTracksSpec)
	o := engine.NewOutcome(spec.DomainOpenTracks)

	if s.ClearActivities {
		if err := clearTable(ctx, dev, opentracksDBPath, opentracksTracksTable); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	loc := c.deviceLocation(ctx, dev)

	for i, a := range s.AddActivities {
		o.ItemsTotal++
		if err := c.insertActivity(ctx, dev, a, loc); err != nil {
			o.RecordError("add_activity", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomActivities {
		for i := 0; i < s.ActivityCount(); i++ {
			o.ItemsTotal++
			if err := c.insertRandomActivity(ctx, dev, loc); err != nil {
				o.RecordError("add_random_activity", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

// deviceLocation resolves the device timezone so track timestamps line up
// with what the app displays. Falls back to UTC.
func (c *OpenTracks) deviceLocation(ctx context.Context, dev device.Controller) *time.Location {
	out, err := dev.RunShell(ctx, "getprop persist.sys.timezone")
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(out))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *OpenTracks) insertActivity(ctx context.Context, dev device.Controller, a spec.ActivityRecord, loc *time.Location) error {
	category := a.Category
	if category == "" {
		category = "running"
	}
	description := a.Description
	if description == "" {
		description = a.Name + " activity"
	}

	start, err := resolveActivityStart(a, loc)
	if err != nil {
		return err
	}
	duration := a.DurationMins
	if duration <= 0 {
		duration = defaultActivityDurationMins
	}

	return c.insertTrackRow(ctx, dev, trackRow{
		name:          a.Name,
		description:   description,
		category:      category,
		start:         start,
		durationMins:  duration,
		distance:      a.Distance,
		elevationGain: a.ElevationGain,
		elevationLoss: a.ElevationLoss,
	})
}

func (c *OpenTracks) insertRandomActivity(ctx context.Context, dev device.Controller, loc *time.Location) error {
	a := c.rng.Activity()
	start := time.Now().In(loc).Add(-time.Duration(c.rng.IntBetween(0, 30*24*60)) * time.Minute)
	return c.insertTrackRow(ctx, dev, trackRow{
		name:          a.Name,
		description:   "Random " + a.Name + " activity",
		category:      a.Category,
		start:         start,
		durationMins:  c.rng.IntBetween(15, 180),
		distance:      c.rng.ActivityDistance(a.Category),
		elevationGain: c.rng.Float64Between(0, 500),
		elevationLoss: c.rng.Float64Between(0, 500),
	})
}

type trackRow struct {
	name          string
	description   string
	category      string
	start         time.Time
	durationMins  int
	distance      float64
	elevationGain float64
	elevationLoss float64
}

func (c *OpenTracks) insertTrackRow(ctx context.Context, dev device.Controller, row trackRow) error {
	startMs := row.start.UnixMilli()
	totalMs := int64(row.durationMins) * 60 * 1000
	stopMs := startMs + totalMs

	avgSpeed := 0.0
	if totalMs > 0 {
		avgSpeed = row.distance / (float64(totalMs) / 1000)
	}
	_, offsetSecs := row.start.Zone()

	return insertRow(ctx, dev, opentracksDBPath, opentracksTracksTable,
		[]string{
			"name", "description", "category", "activity_type",
			"starttime", "stoptime", "totaldistance",
			"totaltime", "movingtime",
			"avgspeed", "avgmovingspeed",
			"elevationgain", "elevationloss",
			"uuid", "starttime_offset", "icon",
		},
		[]string{
			sqlString(row.name), sqlString(row.description), sqlString(row.category), sqlString(row.category),
			sqlInt(startMs), sqlInt(stopMs), sqlFloat(row.distance),
			sqlInt(totalMs), sqlInt(totalMs),
			sqlFloat(avgSpeed), sqlFloat(avgSpeed),
			sqlFloat(row.elevationGain), sqlFloat(row.elevationLoss),
			sqlString(uuid.New().String()), sqlInt(int64(offsetSecs)), sqlString("activity_" + row.category),
		})
}

// resolveActivityStart parses the start date and time, defaulting to the
// current day at midnight.
func resolveActivityStart(a spec.ActivityRecord, loc *time.Location) (time.Time, error) {
	day := time.Now().In(loc)
	if a.StartDate != "" {
		parsed, err := parseActivityDate(a.StartDate)
		if err != nil {
			return time.Time{}, err
		}
		day = parsed
	}

	clock := "00:00"
	if a.StartTime != "" {
		clock = a.StartTime
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start_time %q", a.StartTime)
	}

	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func parseActivityDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "January 2 2006", "01/02/2006"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid start_date %q", value)
}
