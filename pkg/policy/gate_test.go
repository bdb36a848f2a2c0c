package policy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

func testLogger(t *testing.T) *telemetry.Logger {
	t.Helper()
	log, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  "error",
		Format: "json",
		Output: "stderr",
	})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return log
}

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	gate, err := NewGate(testLogger(t))
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return gate
}

func TestBuiltinPoliciesCompile(t *testing.T) {
	gate := newTestGate(t)
	if got := len(gate.ListPolicies()); got != len(GetBuiltinPolicies()) {
		t.Fatalf("loaded %d policies, want %d", got, len(GetBuiltinPolicies()))
	}
}

func TestPhysicalDeviceClearDenied(t *testing.T) {
	gate := newTestGate(t)

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "R58M123ABC"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainContacts: &spec.ContactsSpec{ClearContacts: true},
		},
	}

	err := gate.Check(context.Background(), rs)
	if err == nil {
		t.Fatal("expected denial for physical device clear")
	}

	var denial *DenialError
	if !errors.As(err, &denial) {
		t.Fatalf("error type = %T", err)
	}
	if len(denial.Violations) != 1 {
		t.Fatalf("got %d violations", len(denial.Violations))
	}
	if denial.Violations[0].Policy != "physical-device-clears" {
		t.Errorf("policy = %q", denial.Violations[0].Policy)
	}
	if denial.Violations[0].Domain != "contacts" {
		t.Errorf("domain = %q", denial.Violations[0].Domain)
	}
}

func TestPhysicalDeviceClearAllowedWithOverride(t *testing.T) {
	gate := newTestGate(t)

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "R58M123ABC", AllowDestructive: true},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainContacts: &spec.ContactsSpec{ClearContacts: true},
		},
	}

	if err := gate.Check(context.Background(), rs); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestEmulatorClearAllowed(t *testing.T) {
	gate := newTestGate(t)

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "emulator-5554"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainContacts: &spec.ContactsSpec{ClearContacts: true},
			spec.DomainSms:      &spec.SmsSpec{ClearMessages: true},
		},
	}

	if err := gate.Check(context.Background(), rs); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestRandomVolumeWarnsButAllows(t *testing.T) {
	gate := newTestGate(t)

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "emulator-5554"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainSms: &spec.SmsSpec{
				AddRandomConversations:  true,
				RandomConversationCount: 600,
			},
		},
	}

	result, err := gate.Evaluate(context.Background(), rs)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !result.Allowed {
		t.Fatal("volume warning should not block the run")
	}
	if len(result.Warnings) == 0 {
		t.Fatal("expected volume warnings")
	}

	if err := gate.Check(context.Background(), rs); err != nil {
		t.Fatalf("Check: %v", err)
	}
}

func TestBuildInputCountsRandomItems(t *testing.T) {
	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "emulator-5554"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainSms: &spec.SmsSpec{
				AddRandomConversations:  true,
				RandomConversationCount: 4,
			},
			spec.DomainTasks: &spec.TasksSpec{
				AddRandomTasks:      true,
				AddRandomTasksCount: 6,
			},
			spec.DomainContacts: &spec.ContactsSpec{ClearContacts: true},
		},
		Rejected: map[spec.Domain]error{
			spec.DomainCalendar: errors.New("bad payload"),
		},
	}

	input := BuildInput(rs)
	if input.RandomItems != 10 {
		t.Errorf("random items = %d, want 10", input.RandomItems)
	}
	if len(input.Domains) != 4 {
		t.Fatalf("got %d domains, want 4", len(input.Domains))
	}

	// Canonical order: contacts, sms, calendar, tasks.
	want := []string{"contacts", "sms", "calendar", "tasks"}
	for i, d := range input.Domains {
		if d.Name != want[i] {
			t.Errorf("domain %d = %q, want %q", i, d.Name, want[i])
		}
	}
	if !input.Domains[0].Clears {
		t.Error("contacts should report clears")
	}
	if !input.Domains[2].Rejected {
		t.Error("calendar should report rejected")
	}
}

func TestIsPhysicalSerial(t *testing.T) {
	cases := map[string]bool{
		"":                 false,
		"emulator-5554":    false,
		"emulator-5580":    false,
		"R58M123ABC":       true,
		"192.168.1.5:5555": true,
	}
	for serial, want := range cases {
		if got := isPhysicalSerial(serial); got != want {
			t.Errorf("isPhysicalSerial(%q) = %v, want %v", serial, got, want)
		}
	}
}

func TestDisabledPolicySkipped(t *testing.T) {
	gate := newTestGate(t)

	if err := gate.SetEnabled("physical-device-clears", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "R58M123ABC"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainContacts: &spec.ContactsSpec{ClearContacts: true},
		},
	}

	if err := gate.Check(context.Background(), rs); err != nil {
		t.Fatalf("Check with disabled policy: %v", err)
	}
}

func TestLoadCustomRegoPolicy(t *testing.T) {
	gate := newTestGate(t)

	dir := t.TempDir()
	policyPath := filepath.Join(dir, "no-osmand.rego")
	regoSrc := `# Blocks the map favorites domain entirely.
package droidseed.policies.noosmand

import rego.v1

deny contains violation if {
	some domain in input.domains
	domain.name == "osmand"

	violation := {
		"message": "osmand seeding is disabled in this environment",
		"severity": "error",
		"domain": "osmand",
	}
}`
	if err := os.WriteFile(policyPath, []byte(regoSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := gate.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}

	loaded, err := gate.GetPolicy("no-osmand")
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if !strings.Contains(loaded.Description, "map favorites") {
		t.Errorf("description = %q", loaded.Description)
	}

	rs := &spec.RunSpec{
		Options: spec.Options{DeviceSerial: "emulator-5554"},
		Domains: map[spec.Domain]spec.DomainSpec{
			spec.DomainOsmand: &spec.OsmandSpec{},
		},
	}

	err = gate.Check(context.Background(), rs)
	if err == nil {
		t.Fatal("expected denial from custom policy")
	}
	if !strings.Contains(err.Error(), "osmand seeding is disabled") {
		t.Errorf("error = %v", err)
	}
}

func TestReplacePoliciesKeepsBuiltins(t *testing.T) {
	gate := newTestGate(t)

	if err := gate.ReplacePolicies(nil); err != nil {
		t.Fatalf("ReplacePolicies: %v", err)
	}
	if got := len(gate.ListPolicies()); got != len(GetBuiltinPolicies()) {
		t.Errorf("got %d policies after replace, want %d", got, len(GetBuiltinPolicies()))
	}
}
