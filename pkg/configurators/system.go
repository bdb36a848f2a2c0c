package configurators

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Brightness bounds of the screen_brightness system setting.
const (
	brightnessMin = 1
	brightnessMax = 255
)

// System configures system-level settings: brightness, radios, clipboard,
// and app visibility.
type System struct{}

func (c *System) Domain() spec.Domain { return spec.DomainSystem }

func (c *System) EnsureReady(ctx context.Context, dev device.Controller) error {
	return nil
}

func (c *System) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.SystemSpec)
	o := engine.NewOutcome(spec.DomainSystem)

	apply := func(op string, fn func() error) {
		o.ItemsTotal++
		if err := fn(); err != nil {
			o.RecordError(op, -1, err)
			return
		}
		o.ItemsWritten++
	}

	if s.Brightness != "" {
		apply("set_brightness", func() error { return c.setBrightness(ctx, dev, s.Brightness) })
	}
	if s.Wifi != "" {
		apply("set_wifi", func() error { return c.setWifi(ctx, dev, s.Wifi) })
	}
	if s.Bluetooth != "" {
		apply("set_bluetooth", func() error { return c.setBluetooth(ctx, dev, s.Bluetooth) })
	}
	if s.AirplaneMode != "" {
		apply("set_airplane_mode", func() error { return c.setAirplaneMode(ctx, dev, s.AirplaneMode) })
	}
	if s.Clipboard != "" {
		apply("set_clipboard", func() error { return c.setClipboard(ctx, dev, s.Clipboard) })
	}
	if s.CloseAllApps {
		o.ItemsTotal++
		if err := dev.CloseAllApps(ctx); err != nil {
			o.RecordError("close_all_apps", -1, err)
		} else {
			o.ItemsWritten++
			o.Cleared = true
		}
	}
	if s.OpenApp != "" {
		apply("open_app", func() error { return dev.LaunchApp(ctx, s.OpenApp) })
	}

	o.Finalize()
	return o
}

// setBrightness maps "min"/"max"/percentage onto the raw setting range and
// verifies the written value.
func (c *System) setBrightness(ctx context.Context, dev device.Controller, level string) error {
	var value int
	switch level {
	case "min":
		value = brightnessMin
	case "max":
		value = brightnessMax
	default:
		pct, err := strconv.Atoi(strings.TrimSuffix(level, "%"))
		if err != nil || pct < 0 || pct > 100 {
			return fmt.Errorf("invalid brightness %q", level)
		}
		value = brightnessMin + pct*(brightnessMax-brightnessMin)/100
	}
	if _, err := dev.RunShell(ctx, fmt.Sprintf("settings put system screen_brightness %d", value)); err != nil {
		return err
	}
	got, err := dev.RunShell(ctx, "settings get system screen_brightness")
	if err != nil {
		return err
	}
	if strings.TrimSpace(got) != strconv.Itoa(value) {
		return fmt.Errorf("brightness readback %q, wanted %d", strings.TrimSpace(got), value)
	}
	return nil
}

func (c *System) setWifi(ctx context.Context, dev device.Controller, state string) error {
	verb := "enable"
	if state == "off" {
		verb = "disable"
	}
	if _, err := dev.RunShell(ctx, "svc wifi "+verb); err != nil {
		return err
	}
	got, err := dev.RunShell(ctx, "settings get global wifi_on")
	if err != nil {
		return err
	}
	v := strings.TrimSpace(got)
	if state == "on" && v != "1" && v != "2" {
		return fmt.Errorf("wifi did not come up (wifi_on=%s)", v)
	}
	if state == "off" && v != "0" {
		return fmt.Errorf("wifi did not go down (wifi_on=%s)", v)
	}
	return nil
}

func (c *System) setBluetooth(ctx context.Context, dev device.Controller, state string) error {
	verb := "enable"
	if state == "off" {
		verb = "disable"
	}
	if _, err := dev.RunShell(ctx, "svc bluetooth "+verb); err != nil {
		return err
	}
	got, err := dev.RunShell(ctx, "settings get global bluetooth_on")
	if err != nil {
		return err
	}
	v := strings.TrimSpace(got)
	if state == "on" && v != "1" {
		return fmt.Errorf("bluetooth did not come up (bluetooth_on=%s)", v)
	}
	if state == "off" && v != "0" {
		return fmt.Errorf("bluetooth did not go down (bluetooth_on=%s)", v)
	}
	return nil
}

func (c *System) setAirplaneMode(ctx context.Context, dev device.Controller, state string) error {
	value := "1"
	bc := "true"
	if state == "off" {
		value = "0"
		bc = "false"
	}
	if _, err := dev.RunShell(ctx, "settings put global airplane_mode_on "+value); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, "am broadcast -a android.intent.action.AIRPLANE_MODE --ez state "+bc)
	return err
}

func (c *System) setClipboard(ctx context.Context, dev device.Controller, text string) error {
	_, err := dev.RunShell(ctx, fmt.Sprintf("am broadcast -a clipper.set -e text '%s'", strings.ReplaceAll(text, "'", "'\\''")))
	return err
}
