package configurators

import (
	"context"
	"fmt"
	"strings"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

// AudioRecorder configures the audio recorder app's recordings directory.
type AudioRecorder struct{}

func (c *AudioRecorder) Domain() spec.Domain { return spec.DomainAudioRecorder }

func (c *AudioRecorder) EnsureReady(ctx context.Context, dev device.Controller) error {
	return ensureApp(ctx, dev, pkgAudioRecorder)
}

func (c *AudioRecorder) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.AudioRecorderSpec)
	o := engine.NewOutcome(spec.DomainAudioRecorder)

	if s.ClearRecordings {
		if err := c.clearRecordings(ctx, dev); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	o.Finalize()
	return o
}

// clearRecordings removes recording files, creating the directory when the
// app has never recorded anything.
func (c *AudioRecorder) clearRecordings(ctx context.Context, dev device.Controller) error {
	out, err := dev.RunShell(ctx, fmt.Sprintf("ls %s 2>/dev/null || echo not_found", audioRecordingsDir))
	if err != nil {
		return err
	}
	if strings.Contains(out, "not_found") {
		return mkdirAll(ctx, dev, audioRecordingsDir)
	}
	_, err = dev.RunShell(ctx, fmt.Sprintf("rm -f %s/*.m4a %s/*.wav %s/*.3gp",
		audioRecordingsDir, audioRecordingsDir, audioRecordingsDir))
	return err
}
