package stores

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/spec"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return store
}

func sampleReport(runID string) *engine.RunReport {
	started := time.Now().Add(-time.Minute)
	return &engine.RunReport{
		RunID:       runID,
		Source:      "device_state.yaml",
		StartedAt:   started,
		CompletedAt: started.Add(45 * time.Second),
		Overall:     engine.OverallPartialFailure,
		Outcomes: []engine.DomainOutcome{
			{
				Domain:       spec.DomainContacts,
				Status:       engine.StatusApplied,
				ItemsWritten: 3,
				ItemsTotal:   3,
				Cleared:      true,
				Duration:     2 * time.Second,
			},
			{
				Domain:       spec.DomainSms,
				Status:       engine.StatusPartiallyApplied,
				ItemsWritten: 1,
				ItemsTotal:   2,
				Errors: []engine.ItemError{
					{Index: 1, Op: "add_message", Cause: "sqlite3 exited with status 1"},
				},
				Duration: 3 * time.Second,
			},
			{
				Domain:   spec.DomainMusic,
				Status:   engine.StatusSkipped,
				Errors:   []engine.ItemError{{Index: -1, Op: "setup", Cause: "app not installed"}},
				Duration: time.Millisecond,
			},
		},
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestRecordRunAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	report := sampleReport("run-1")

	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	run, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Source != "device_state.yaml" {
		t.Errorf("source = %q", run.Source)
	}
	if run.Overall != string(engine.OverallPartialFailure) {
		t.Errorf("overall = %q", run.Overall)
	}
	if run.ItemsWritten != 4 {
		t.Errorf("items written = %d, want 4", run.ItemsWritten)
	}
	if run.PreflightError != nil {
		t.Errorf("unexpected preflight error %q", *run.PreflightError)
	}
}

func TestRecordRunPreflightError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	report := &engine.RunReport{
		RunID:          "run-rejected",
		Source:         "bad.json",
		StartedAt:      now,
		CompletedAt:    now,
		Overall:        engine.OverallFailure,
		PreflightError: "spec document rejected: invalid JSON",
	}
	if err := store.RecordRun(ctx, report); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	run, err := store.GetRun(ctx, "run-rejected")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.PreflightError == nil || !strings.Contains(*run.PreflightError, "invalid JSON") {
		t.Errorf("preflight error = %v", run.PreflightError)
	}

	passes, err := store.ListDomainPasses(ctx, "run-rejected")
	if err != nil {
		t.Fatalf("ListDomainPasses: %v", err)
	}
	if len(passes) != 0 {
		t.Errorf("expected no domain passes, got %d", len(passes))
	}
}

func TestDomainPassesPreserveOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleReport("run-order")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	passes, err := store.ListDomainPasses(ctx, "run-order")
	if err != nil {
		t.Fatalf("ListDomainPasses: %v", err)
	}
	if len(passes) != 3 {
		t.Fatalf("got %d passes, want 3", len(passes))
	}

	want := []string{"contacts", "sms", "music"}
	for i, pass := range passes {
		if pass.Domain != want[i] {
			t.Errorf("pass %d domain = %q, want %q", i, pass.Domain, want[i])
		}
		if pass.Position != i {
			t.Errorf("pass %d position = %d", i, pass.Position)
		}
	}

	if !passes[0].Cleared {
		t.Error("contacts pass should be marked cleared")
	}
	if passes[1].Status != string(engine.StatusPartiallyApplied) {
		t.Errorf("sms status = %q", passes[1].Status)
	}
}

func TestListItemErrors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleReport("run-errs")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	passes, err := store.ListDomainPasses(ctx, "run-errs")
	if err != nil {
		t.Fatalf("ListDomainPasses: %v", err)
	}

	smsErrs, err := store.ListItemErrors(ctx, passes[1].ID)
	if err != nil {
		t.Fatalf("ListItemErrors: %v", err)
	}
	if len(smsErrs) != 1 {
		t.Fatalf("got %d sms errors, want 1", len(smsErrs))
	}
	if smsErrs[0].ItemIndex != 1 || smsErrs[0].Op != "add_message" {
		t.Errorf("sms error = %+v", smsErrs[0])
	}

	contactErrs, err := store.ListItemErrors(ctx, passes[0].ID)
	if err != nil {
		t.Fatalf("ListItemErrors: %v", err)
	}
	if len(contactErrs) != 0 {
		t.Errorf("got %d contact errors, want 0", len(contactErrs))
	}

	skipErrs, err := store.ListItemErrors(ctx, passes[2].ID)
	if err != nil {
		t.Fatalf("ListItemErrors: %v", err)
	}
	if len(skipErrs) != 1 || skipErrs[0].ItemIndex != -1 {
		t.Errorf("skip errors = %+v", skipErrs)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		report := sampleReport(id)
		report.StartedAt = time.Now().Add(time.Duration(i) * time.Hour)
		report.CompletedAt = report.StartedAt.Add(time.Minute)
		if err := store.RecordRun(ctx, report); err != nil {
			t.Fatalf("RecordRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}

	rest, err := store.ListRuns(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListRuns offset: %v", err)
	}
	if len(rest) != 1 || rest[0].ID != "run-a" {
		t.Errorf("offset page = %+v", rest)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordRun(ctx, sampleReport("run-del")); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	passes, err := store.ListDomainPasses(ctx, "run-del")
	if err != nil {
		t.Fatalf("ListDomainPasses: %v", err)
	}
	passID := passes[1].ID

	if err := store.DeleteRun(ctx, "run-del"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	if _, err := store.GetRun(ctx, "run-del"); err == nil {
		t.Error("expected GetRun to fail after delete")
	}

	remaining, err := store.ListDomainPasses(ctx, "run-del")
	if err != nil {
		t.Fatalf("ListDomainPasses after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("domain passes survived delete: %d", len(remaining))
	}

	orphaned, err := store.ListItemErrors(ctx, passID)
	if err != nil {
		t.Fatalf("ListItemErrors after delete: %v", err)
	}
	if len(orphaned) != 0 {
		t.Errorf("item errors survived delete: %d", len(orphaned))
	}
}

func TestDeleteRunNotFound(t *testing.T) {
	store := newTestStore(t)
	if err := store.DeleteRun(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown run")
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
