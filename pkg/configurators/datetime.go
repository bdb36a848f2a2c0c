package configurators

import (
	"context"
	"fmt"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// datetimeLayout is the absolute timestamp form the spec accepts.
const datetimeLayout = "2006-01-02 15:04:05"

// dateCmdLayout is the argument form of the shell date command: MMDDhhmmYY.SS.
const dateCmdLayout = "0102150406.05"

// Datetime configures the device clock and timezone.
type Datetime struct {
	rng *sample.Provider
}

func (c *Datetime) Domain() spec.Domain { return spec.DomainDatetime }

func (c *Datetime) EnsureReady(ctx context.Context, dev device.Controller) error {
	return ensureApp(ctx, dev, pkgSettings)
}

func (c *Datetime) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.DatetimeSpec)
	o := engine.NewOutcome(spec.DomainDatetime)

	if s.AutoSettingsDisabled() {
		o.ItemsTotal++
		if err := c.disableAutoSync(ctx, dev); err != nil {
			o.RecordError("disable_auto_sync", -1, err)
		} else {
			o.ItemsWritten++
		}
	}

	if s.Timezone != "" {
		o.ItemsTotal++
		if err := c.setTimezone(ctx, dev, s.Timezone); err != nil {
			o.RecordError("set_timezone", -1, err)
		} else {
			o.ItemsWritten++
		}
	}

	if t, ok, err := c.resolveTime(s); err != nil {
		o.ItemsTotal++
		o.RecordError("set_time", -1, err)
	} else if ok {
		o.ItemsTotal++
		if err := c.setTime(ctx, dev, t); err != nil {
			o.RecordError("set_time", -1, err)
		} else {
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Datetime) disableAutoSync(ctx context.Context, dev device.Controller) error {
	if _, err := dev.RunShell(ctx, "settings put global auto_time 0"); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, "settings put global auto_time_zone 0")
	return err
}

// setTimezone writes the Olson name through the alarm service and forces the
// clock display to 24 hour mode so the result is unambiguous.
func (c *Datetime) setTimezone(ctx context.Context, dev device.Controller, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	if _, err := dev.RunShell(ctx, fmt.Sprintf("service call alarm 3 s16 %s", tz)); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, "settings put system time_12_24 24")
	return err
}

func (c *Datetime) setTime(ctx context.Context, dev device.Controller, t time.Time) error {
	if _, err := dev.RunShell(ctx, "date "+t.Format(dateCmdLayout)); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, "am broadcast -a android.intent.action.TIME_SET")
	return err
}

// resolveTime computes the target timestamp from the spec. The second return
// reports whether a timestamp was requested at all.
func (c *Datetime) resolveTime(s *spec.DatetimeSpec) (time.Time, bool, error) {
	if s.UseRandomDatetime {
		center, err := time.Parse(datetimeLayout, s.RandomWindowCenter)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid random_window_center: %w", err)
		}
		windowSecs := s.WindowDays() * 24 * 60 * 60
		offset := c.rng.Intn(windowSecs) - windowSecs/2
		return center.Add(time.Duration(offset) * time.Second), true, nil
	}
	if s.Datetime != "" {
		t, err := time.Parse(datetimeLayout, s.Datetime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid datetime: %w", err)
		}
		return t, true, nil
	}
	if s.Year != 0 {
		month := s.Month
		if month == 0 {
			month = 1
		}
		day := s.Day
		if day == 0 {
			day = 1
		}
		return time.Date(s.Year, time.Month(month), day, s.Hour, s.Minute, s.Second, 0, time.UTC), true, nil
	}
	return time.Time{}, false, nil
}
