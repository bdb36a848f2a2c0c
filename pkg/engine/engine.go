package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

// ErrAppNotInstalled is returned by a configurator's EnsureReady when the
// domain's target app is missing from the device. The engine reports the
// domain as skipped rather than failed.
var ErrAppNotInstalled = errors.New("app not installed")

// Configurator applies one domain's spec to the device.
type Configurator interface {
	// Domain returns the domain this configurator handles.
	Domain() spec.Domain

	// EnsureReady verifies the domain's preconditions, e.g. that the
	// target app is installed. Return ErrAppNotInstalled (wrapped is
	// fine) to skip the domain instead of failing it.
	EnsureReady(ctx context.Context, dev device.Controller) error

	// Run applies the domain spec. It never returns an error: every
	// failure is recorded in the outcome so the engine can continue with
	// the remaining domains.
	Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *DomainOutcome
}

// Registry resolves domains to their configurators.
type Registry interface {
	Resolve(d spec.Domain) (Configurator, error)
}

// PolicyGate evaluates a parsed run spec before any device mutation.
type PolicyGate interface {
	Check(ctx context.Context, rs *spec.RunSpec) error
}

// History persists finished run reports.
type History interface {
	RecordRun(ctx context.Context, report *RunReport) error
}

// Config wires the engine's collaborators. Registry and Device are required;
// the rest are optional.
type Config struct {
	Registry  Registry
	Device    device.Controller
	Parser    *spec.Parser
	Telemetry *telemetry.Telemetry
	Policy    PolicyGate
	History   History
}

// Engine drives a seeding run: parse, gate, apply each domain in canonical
// order, aggregate.
type Engine struct {
	registry Registry
	dev      device.Controller
	parser   *spec.Parser
	tel      *telemetry.Telemetry
	policy   PolicyGate
	history  History
	log      *telemetry.Logger
}

// New creates an engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry == nil {
		return nil, errors.New("engine requires a configurator registry")
	}
	if cfg.Device == nil {
		return nil, errors.New("engine requires a device controller")
	}
	parser := cfg.Parser
	if parser == nil {
		parser = spec.NewParser()
	}
	tel := cfg.Telemetry
	if tel == nil {
		var err error
		tel, err = telemetry.NewTelemetry(telemetry.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}
	return &Engine{
		registry: cfg.Registry,
		dev:      cfg.Device,
		parser:   parser,
		tel:      tel,
		policy:   cfg.Policy,
		history:  cfg.History,
		log:      tel.Logger.NewComponentLogger("engine"),
	}, nil
}

// ApplyFile loads a spec file and applies it. Load errors are malformed
// input: the returned report carries the preflight error and an overall
// failure, and no device mutation has happened.
func (e *Engine) ApplyFile(ctx context.Context, path string, opts spec.Options) (*RunReport, error) {
	doc, err := e.parser.LoadFile(path)
	if err != nil {
		seedErr := NewMalformedInputError("spec document rejected", err)
		report := e.rejectedReport(path, seedErr)
		return report, seedErr
	}
	return e.ApplyRun(ctx, doc, opts)
}

// ApplyRun applies a parsed document to the device. Domains run one at a
// time in canonical order; a failed domain is recorded and the run moves on.
// The returned error is non-nil only for pre-mutation aborts (malformed
// input or a policy denial); per-domain failures surface in the report.
func (e *Engine) ApplyRun(ctx context.Context, doc *spec.Document, opts spec.Options) (*RunReport, error) {
	runID := uuid.New().String()
	started := time.Now()

	log := e.log.WithRunID(runID).WithDevice(opts.DeviceSerial, opts.ConsolePort)
	log.Infof("starting run from %s", doc.Source)

	ctx, runSpan := e.tel.Tracer.StartRunSpan(ctx, runID, doc.Source)
	defer runSpan.End()
	e.tel.Metrics.RecordRunStarted(doc.Source)
	_ = e.tel.Events.PublishRunStarted(runID, doc.Source, opts.DeviceSerial)

	report := &RunReport{
		RunID:     runID,
		Source:    doc.Source,
		StartedAt: started,
	}

	rs := e.parser.ParseRunSpec(doc, opts)

	if e.policy != nil {
		if err := e.policy.Check(ctx, rs); err != nil {
			log.WithError(err).Error("run denied by policy")
			report.PreflightError = err.Error()
			report.Overall = OverallFailure
			report.CompletedAt = time.Now()
			telemetry.RecordError(runSpan, err)
			e.tel.Metrics.RecordRunCompleted(string(OverallFailure), time.Since(started))
			_ = e.tel.Events.PublishRunRejected(runID, err.Error())
			e.persist(ctx, report)
			return report, err
		}
	}

	if opts.EmulatorSetup {
		if err := e.dev.CloseAllApps(ctx); err != nil {
			log.WithError(err).Warn("pre-run app cleanup failed")
		}
	}

	agg := NewAggregator()
	for _, d := range spec.CanonicalOrder {
		if !rs.Present(d) {
			continue
		}
		outcome := e.applyDomain(ctx, log, runID, rs, d)
		agg.Record(outcome)
		e.tel.Metrics.RecordDomainPass(string(d), string(outcome.Status), outcome.ItemsWritten, outcome.Duration)
		_ = e.tel.Events.PublishDomainCompleted(runID, string(d), string(outcome.Status), outcome.ItemsWritten, outcome.Duration)
	}

	if opts.EmulatorSetup {
		if err := e.dev.CloseAllApps(ctx); err != nil {
			log.WithError(err).Warn("post-run app cleanup failed")
		}
	}

	report.Outcomes = agg.Outcomes()
	report.Overall = agg.Finalize()
	report.CompletedAt = time.Now()

	runSpan.SetAttributes(
		telemetry.AttrRunStatus.String(string(report.Overall)),
		telemetry.AttrItemsWritten.Int(report.ItemsWritten()),
	)
	if report.Overall == OverallSuccess {
		telemetry.RecordSuccess(runSpan)
	}
	e.tel.Metrics.RecordRunCompleted(string(report.Overall), time.Since(started))
	_ = e.tel.Events.PublishRunCompleted(runID, string(report.Overall), time.Since(started))
	log.Infof("run finished: %s (%d items written)", report.Overall, report.ItemsWritten())

	e.persist(ctx, report)
	return report, nil
}

// applyDomain runs one domain pass and always returns a finished outcome.
func (e *Engine) applyDomain(ctx context.Context, log *telemetry.Logger, runID string, rs *spec.RunSpec, d spec.Domain) *DomainOutcome {
	dlog := log.WithDomain(string(d))
	ctx, span := e.tel.Tracer.StartDomainSpan(ctx, runID, string(d))
	defer span.End()
	timer := telemetry.NewTimer()

	_ = e.tel.Events.PublishDomainStarted(runID, string(d))

	finish := func(o *DomainOutcome) *DomainOutcome {
		o.Duration = timer.Duration()
		span.SetAttributes(telemetry.AttrDomainStatus.String(string(o.Status)))
		switch o.Status {
		case StatusApplied:
			telemetry.RecordSuccess(span)
			dlog.Infof("domain applied (%d items)", o.ItemsWritten)
		case StatusSkipped:
			dlog.Warn("domain skipped")
		default:
			if len(o.Errors) > 0 {
				telemetry.RecordError(span, errors.New(o.Errors[0].Cause))
			}
			e.tel.Metrics.RecordError(string(classify(o)))
			dlog.Warnf("domain finished with status %s (%d/%d items)", o.Status, o.ItemsWritten, o.ItemsTotal)
		}
		return o
	}

	if err, rejected := rs.Rejected[d]; rejected {
		dlog.WithError(err).Error("domain spec rejected")
		return finish(FailedOutcome(d, NewInvalidOptionError(d, err)))
	}

	cfg, err := e.registry.Resolve(d)
	if err != nil {
		dlog.WithError(err).Error("no configurator registered")
		return finish(FailedOutcome(d, NewUnregisteredDomainError(d)))
	}

	if err := cfg.EnsureReady(ctx, e.dev); err != nil {
		if errors.Is(err, ErrAppNotInstalled) {
			dlog.WithError(err).Warn("skipping domain")
			return finish(SkippedOutcome(d, err.Error()))
		}
		dlog.WithError(err).Error("domain preconditions failed")
		return finish(FailedOutcome(d, NewDeviceError("preconditions failed", err).WithDomain(d)))
	}

	return finish(cfg.Run(ctx, e.dev, rs.Domains[d]))
}

// classify maps an outcome's first recorded error to an error class for
// metrics. Parse failures are invalid options, everything else is a device
// failure.
func classify(o *DomainOutcome) ErrorClass {
	if len(o.Errors) > 0 && o.Errors[0].Op == "parse" {
		return ErrorClassInvalidOption
	}
	return ErrorClassDeviceFailure
}

// rejectedReport builds the report for a run aborted before any mutation.
func (e *Engine) rejectedReport(source string, err *SeedError) *RunReport {
	now := time.Now()
	report := &RunReport{
		RunID:          uuid.New().String(),
		Source:         source,
		StartedAt:      now,
		CompletedAt:    now,
		Overall:        OverallFailure,
		PreflightError: err.Error(),
	}
	e.tel.Metrics.RecordError(string(err.Class))
	_ = e.tel.Events.PublishRunRejected(report.RunID, err.Error())
	e.persist(context.Background(), report)
	return report
}

// persist records the report in the run history. History failures are
// logged, never fatal: the report has already been produced.
func (e *Engine) persist(ctx context.Context, report *RunReport) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordRun(ctx, report); err != nil {
		e.log.WithError(err).WithRunID(report.RunID).Warn("failed to persist run report")
	}
}
