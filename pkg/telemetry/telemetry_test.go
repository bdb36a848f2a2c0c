package telemetry

import (
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid log level to fail validation")
	}

	cfg = DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.SamplingRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected out-of-range sampling rate to fail validation")
	}
}

func TestCIConfig(t *testing.T) {
	cfg := CIConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("CI config should validate: %v", err)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("CI config should log JSON, got %s", cfg.Logging.Format)
	}
	if !cfg.Metrics.Enabled {
		t.Error("CI config should enable metrics")
	}
}

func TestEventPublisherSyncDelivery(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{
		Enabled:      true,
		BufferSize:   10,
		MaxBatchSize: 10,
		EnableAsync:  false,
	})
	if err != nil {
		t.Fatalf("NewEventPublisher: %v", err)
	}

	var got []Event
	ep.Subscribe(func(e Event) { got = append(got, e) }, nil)

	if err := ep.PublishDomainCompleted("run-1", "contacts", "applied", 3, time.Second); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(got))
	}
	if got[0].Type != EventTypeDomainCompleted {
		t.Errorf("unexpected event type %s", got[0].Type)
	}
	if got[0].Domain != "contacts" {
		t.Errorf("unexpected domain %s", got[0].Domain)
	}
	if got[0].ID == "" || got[0].Timestamp.IsZero() {
		t.Error("event should have an ID and timestamp assigned")
	}
}

func TestEventPublisherFilters(t *testing.T) {
	ep, err := NewEventPublisher(EventsConfig{
		Enabled:      true,
		BufferSize:   10,
		MaxBatchSize: 10,
		EnableAsync:  false,
	})
	if err != nil {
		t.Fatalf("NewEventPublisher: %v", err)
	}

	var errorsOnly []Event
	ep.Subscribe(func(e Event) { errorsOnly = append(errorsOnly, e) }, FilterByLevel(EventLevelError))

	_ = ep.PublishDomainStarted("run-1", "sms")
	_ = ep.PublishRunRejected("run-1", "unknown domain")

	if len(errorsOnly) != 1 {
		t.Fatalf("expected only the error event, got %d", len(errorsOnly))
	}
	if errorsOnly[0].Type != EventTypeRunRejected {
		t.Errorf("unexpected event type %s", errorsOnly[0].Type)
	}
}

func TestDomainCompletedLevels(t *testing.T) {
	ep, _ := NewEventPublisher(EventsConfig{Enabled: true, BufferSize: 10, MaxBatchSize: 10})

	var events []Event
	ep.Subscribe(func(e Event) { events = append(events, e) }, nil)

	_ = ep.PublishDomainCompleted("r", "sms", "failed", 0, 0)
	_ = ep.PublishDomainCompleted("r", "sms", "partially_applied", 1, 0)
	_ = ep.PublishDomainCompleted("r", "sms", "skipped", 0, 0)

	if events[0].Level != EventLevelError || events[0].Type != EventTypeDomainFailed {
		t.Errorf("failed status should map to an error event, got %s/%s", events[0].Level, events[0].Type)
	}
	if events[1].Level != EventLevelWarning {
		t.Errorf("partial status should map to a warning event, got %s", events[1].Level)
	}
	if events[2].Type != EventTypeDomainSkipped {
		t.Errorf("skipped status should map to a skipped event, got %s", events[2].Type)
	}
}
