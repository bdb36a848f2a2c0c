package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

// stubConfigurator lets each test script a domain's behavior.
type stubConfigurator struct {
	domain   spec.Domain
	readyErr error
	runFn    func(ds spec.DomainSpec) *engine.DomainOutcome
	ran      *int
}

func (s *stubConfigurator) Domain() spec.Domain { return s.domain }

func (s *stubConfigurator) EnsureReady(ctx context.Context, dev device.Controller) error {
	return s.readyErr
}

func (s *stubConfigurator) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	if s.ran != nil {
		*s.ran++
	}
	if s.runFn != nil {
		return s.runFn(ds)
	}
	o := engine.NewOutcome(s.domain)
	o.ItemsTotal = 1
	o.ItemsWritten = 1
	o.Finalize()
	return o
}

type stubRegistry map[spec.Domain]engine.Configurator

func (r stubRegistry) Resolve(d spec.Domain) (engine.Configurator, error) {
	cfg, ok := r[d]
	if !ok {
		return nil, fmt.Errorf("no configurator registered for domain %s", d)
	}
	return cfg, nil
}

type memHistory struct {
	reports []*engine.RunReport
}

func (h *memHistory) RecordRun(ctx context.Context, report *engine.RunReport) error {
	h.reports = append(h.reports, report)
	return nil
}

type denyGate struct {
	err error
}

func (g *denyGate) Check(ctx context.Context, rs *spec.RunSpec) error { return g.err }

func quietTelemetry(t *testing.T) *telemetry.Telemetry {
	t.Helper()
	cfg := telemetry.DefaultConfig()
	cfg.Logging.Level = "error"
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		t.Fatalf("NewTelemetry: %v", err)
	}
	return tel
}

func newTestEngine(t *testing.T, cfg engine.Config) *engine.Engine {
	t.Helper()
	if cfg.Telemetry == nil {
		cfg.Telemetry = quietTelemetry(t)
	}
	if cfg.Device == nil {
		cfg.Device = device.NewFake()
	}
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func docOf(t *testing.T, payloads map[spec.Domain]string) *spec.Document {
	t.Helper()
	raw := make(map[spec.Domain]json.RawMessage, len(payloads))
	for d, p := range payloads {
		raw[d] = json.RawMessage(p)
	}
	return &spec.Document{Source: "test-doc", Raw: raw}
}

func TestEngineRequiresRegistryAndDevice(t *testing.T) {
	if _, err := engine.New(engine.Config{Device: device.NewFake()}); err == nil {
		t.Error("expected error without registry")
	}
	if _, err := engine.New(engine.Config{Registry: stubRegistry{}}); err == nil {
		t.Error("expected error without device")
	}
}

func TestDomainFailureDoesNotStopLaterDomains(t *testing.T) {
	galleryRan := 0
	registry := stubRegistry{
		spec.DomainContacts: &stubConfigurator{
			domain: spec.DomainContacts,
			runFn: func(spec.DomainSpec) *engine.DomainOutcome {
				o := engine.NewOutcome(spec.DomainContacts)
				o.ItemsTotal = 2
				o.RecordError("add_contact", 0, errors.New("provider unavailable"))
				o.RecordError("add_contact", 1, errors.New("provider unavailable"))
				o.Finalize()
				return o
			},
		},
		spec.DomainGallery: &stubConfigurator{domain: spec.DomainGallery, ran: &galleryRan},
	}

	eng := newTestEngine(t, engine.Config{Registry: registry})
	doc := docOf(t, map[spec.Domain]string{
		spec.DomainContacts: `{"add_contacts": [{"name": "A", "number": "1"}, {"name": "B", "number": "2"}]}`,
		spec.DomainGallery:  `{"clear_images": true}`,
	})

	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}

	if galleryRan != 1 {
		t.Errorf("gallery ran %d times, want 1", galleryRan)
	}
	if report.Overall != engine.OverallPartialFailure {
		t.Errorf("overall = %s", report.Overall)
	}

	contacts := report.Outcome(spec.DomainContacts)
	if contacts == nil || contacts.Status != engine.StatusFailed {
		t.Errorf("contacts outcome = %+v", contacts)
	}
	gallery := report.Outcome(spec.DomainGallery)
	if gallery == nil || gallery.Status != engine.StatusApplied {
		t.Errorf("gallery outcome = %+v", gallery)
	}
}

func TestOutcomesFollowCanonicalOrder(t *testing.T) {
	registry := stubRegistry{}
	for _, d := range spec.CanonicalOrder {
		registry[d] = &stubConfigurator{domain: d}
	}

	// The document lists domains in an arbitrary order; the report must
	// come back in canonical order regardless.
	doc := docOf(t, map[spec.Domain]string{
		spec.DomainGallery:  `{}`,
		spec.DomainDatetime: `{}`,
		spec.DomainMusic:    `{}`,
		spec.DomainContacts: `{}`,
	})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}

	want := []spec.Domain{spec.DomainDatetime, spec.DomainContacts, spec.DomainMusic, spec.DomainGallery}
	if len(report.Outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(report.Outcomes), len(want))
	}
	for i, d := range want {
		if report.Outcomes[i].Domain != d {
			t.Errorf("outcome %d = %s, want %s", i, report.Outcomes[i].Domain, d)
		}
	}
}

func TestMissingAppSkipsDomain(t *testing.T) {
	registry := stubRegistry{
		spec.DomainJoplin: &stubConfigurator{
			domain:   spec.DomainJoplin,
			readyErr: fmt.Errorf("net.cozic.joplin: %w", engine.ErrAppNotInstalled),
		},
		spec.DomainFiles: &stubConfigurator{domain: spec.DomainFiles},
	}

	doc := docOf(t, map[spec.Domain]string{
		spec.DomainJoplin: `{"add_random_notes": true}`,
		spec.DomainFiles:  `{"create_folders": [{"name": "Work"}]}`,
	})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}

	joplin := report.Outcome(spec.DomainJoplin)
	if joplin == nil || joplin.Status != engine.StatusSkipped {
		t.Fatalf("joplin outcome = %+v", joplin)
	}

	// The skipped domain never reached its requested state, so the run
	// cannot count as a clean success.
	if report.Overall != engine.OverallPartialFailure {
		t.Errorf("overall = %s", report.Overall)
	}
	files := report.Outcome(spec.DomainFiles)
	if files == nil || files.Status != engine.StatusApplied {
		t.Errorf("files outcome = %+v", files)
	}
}

func TestAllDomainsSkippedIsFailure(t *testing.T) {
	registry := stubRegistry{
		spec.DomainJoplin: &stubConfigurator{
			domain:   spec.DomainJoplin,
			readyErr: fmt.Errorf("net.cozic.joplin: %w", engine.ErrAppNotInstalled),
		},
		spec.DomainMarkor: &stubConfigurator{
			domain:   spec.DomainMarkor,
			readyErr: fmt.Errorf("net.gsantner.markor: %w", engine.ErrAppNotInstalled),
		},
	}

	doc := docOf(t, map[spec.Domain]string{
		spec.DomainJoplin: `{"add_random_notes": true}`,
		spec.DomainMarkor: `{"add_random_notes": true}`,
	})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}
	if report.Overall != engine.OverallFailure {
		t.Errorf("overall = %s", report.Overall)
	}
}

func TestRejectedDomainFailsWithoutRunning(t *testing.T) {
	ran := 0
	registry := stubRegistry{
		spec.DomainSystem:   &stubConfigurator{domain: spec.DomainSystem, ran: &ran},
		spec.DomainContacts: &stubConfigurator{domain: spec.DomainContacts},
	}

	doc := docOf(t, map[spec.Domain]string{
		spec.DomainSystem:   `{"brightness": "banana"}`,
		spec.DomainContacts: `{"clear_contacts": true}`,
	})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}

	if ran != 0 {
		t.Errorf("rejected domain's configurator ran %d times", ran)
	}

	system := report.Outcome(spec.DomainSystem)
	if system == nil || system.Status != engine.StatusFailed {
		t.Fatalf("system outcome = %+v", system)
	}
	if len(system.Errors) != 1 || system.Errors[0].Op != "parse" {
		t.Errorf("system errors = %+v", system.Errors)
	}
	if report.Overall != engine.OverallPartialFailure {
		t.Errorf("overall = %s", report.Overall)
	}
}

func TestPolicyDenialAbortsBeforeMutation(t *testing.T) {
	ran := 0
	registry := stubRegistry{
		spec.DomainContacts: &stubConfigurator{domain: spec.DomainContacts, ran: &ran},
	}
	history := &memHistory{}

	eng := newTestEngine(t, engine.Config{
		Registry: registry,
		Policy:   &denyGate{err: errors.New("physical device clears denied")},
		History:  history,
	})

	doc := docOf(t, map[spec.Domain]string{
		spec.DomainContacts: `{"clear_contacts": true}`,
	})

	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{DeviceSerial: "R58M1"})
	if err == nil {
		t.Fatal("expected policy denial error")
	}
	if ran != 0 {
		t.Errorf("configurator ran despite denial")
	}
	if report.Overall != engine.OverallFailure {
		t.Errorf("overall = %s", report.Overall)
	}
	if report.PreflightError == "" {
		t.Error("preflight error not recorded")
	}
	if len(report.Outcomes) != 0 {
		t.Errorf("outcomes = %+v", report.Outcomes)
	}
	if len(history.reports) != 1 {
		t.Errorf("denied run not persisted: %d reports", len(history.reports))
	}
}

func TestRunReportPersistedToHistory(t *testing.T) {
	registry := stubRegistry{
		spec.DomainFiles: &stubConfigurator{domain: spec.DomainFiles},
	}
	history := &memHistory{}

	eng := newTestEngine(t, engine.Config{Registry: registry, History: history})
	doc := docOf(t, map[spec.Domain]string{spec.DomainFiles: `{}`})

	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}
	if len(history.reports) != 1 {
		t.Fatalf("got %d persisted reports", len(history.reports))
	}
	if history.reports[0].RunID != report.RunID {
		t.Errorf("persisted run id %s, want %s", history.reports[0].RunID, report.RunID)
	}
}

func TestEmulatorSetupClosesAppsAroundRun(t *testing.T) {
	fake := device.NewFake()
	registry := stubRegistry{
		spec.DomainFiles: &stubConfigurator{domain: spec.DomainFiles},
	}

	eng := newTestEngine(t, engine.Config{Registry: registry, Device: fake})
	doc := docOf(t, map[spec.Domain]string{spec.DomainFiles: `{}`})

	_, err := eng.ApplyRun(context.Background(), doc, spec.Options{EmulatorSetup: true})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}
	if got := len(fake.CallsMatching("close_all")); got != 2 {
		t.Errorf("close_all called %d times, want 2", got)
	}
}

func TestUnregisteredDomainFailsThatDomainOnly(t *testing.T) {
	registry := stubRegistry{
		spec.DomainFiles: &stubConfigurator{domain: spec.DomainFiles},
	}

	doc := docOf(t, map[spec.Domain]string{
		spec.DomainFiles:  `{}`,
		spec.DomainMarkor: `{}`,
	})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}

	markor := report.Outcome(spec.DomainMarkor)
	if markor == nil || markor.Status != engine.StatusFailed {
		t.Errorf("markor outcome = %+v", markor)
	}
	files := report.Outcome(spec.DomainFiles)
	if files == nil || files.Status != engine.StatusApplied {
		t.Errorf("files outcome = %+v", files)
	}
}

func TestApplyFileRejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"not_a_domain": {}}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	eng := newTestEngine(t, engine.Config{Registry: stubRegistry{}})
	report, err := eng.ApplyFile(context.Background(), path, spec.Options{})
	if err == nil {
		t.Fatal("expected malformed input error")
	}
	if !engine.IsMalformedInput(err) {
		t.Errorf("error class: %v", err)
	}
	if report == nil || report.Overall != engine.OverallFailure {
		t.Errorf("report = %+v", report)
	}
	if report.PreflightError == "" {
		t.Error("preflight error not recorded")
	}
}

func TestOverallFailureWhenNothingApplies(t *testing.T) {
	registry := stubRegistry{
		spec.DomainFiles: &stubConfigurator{
			domain: spec.DomainFiles,
			runFn: func(spec.DomainSpec) *engine.DomainOutcome {
				o := engine.NewOutcome(spec.DomainFiles)
				o.ItemsTotal = 1
				o.RecordError("add_file", 0, errors.New("disk full"))
				o.Finalize()
				return o
			},
		},
	}

	doc := docOf(t, map[spec.Domain]string{spec.DomainFiles: `{"add_files": [{"name": "a.txt"}]}`})

	eng := newTestEngine(t, engine.Config{Registry: registry})
	report, err := eng.ApplyRun(context.Background(), doc, spec.Options{})
	if err != nil {
		t.Fatalf("ApplyRun: %v", err)
	}
	if report.Overall != engine.OverallFailure {
		t.Errorf("overall = %s", report.Overall)
	}
}
