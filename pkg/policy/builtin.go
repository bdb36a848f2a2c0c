package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		physicalDeviceClearsPolicy(),
		randomVolumePolicy(),
		clearScopePolicy(),
	}
}

// physicalDeviceClearsPolicy blocks destructive clears on physical devices
// unless the caller explicitly allows them.
func physicalDeviceClearsPolicy() Policy {
	return Policy{
		Name:        "physical-device-clears",
		Description: "Blocks clear directives on physical devices without the allow-destructive override",
		Severity:    SeverityCritical,
		Enabled:     true,
		Tags:        []string{"safety", "devices"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package droidseed.policies.devices

import rego.v1

deny contains violation if {
	input.device.physical
	not input.device.allow_destructive

	some domain in input.domains
	domain.clears

	violation := {
		"message": sprintf("domain %s clears existing data on physical device %s; pass allow-destructive to proceed", [domain.name, input.device.serial]),
		"severity": "critical",
		"domain": domain.name,
	}
}`,
	}
}

// randomVolumePolicy warns when a run would generate an unusually large
// random workload.
func randomVolumePolicy() Policy {
	return Policy{
		Name:        "random-volume",
		Description: "Warns when the run would generate more than 500 random items",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"volume"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package droidseed.policies.volume

import rego.v1

max_random_items := 500

deny contains violation if {
	input.random_items > max_random_items

	violation := {
		"message": sprintf("run generates %d random items, above the advisory limit of %d", [input.random_items, max_random_items]),
		"severity": "warning",
	}
}

deny contains violation if {
	some domain in input.domains
	domain.random_items > 100

	violation := {
		"message": sprintf("domain %s generates %d random items - please review", [domain.name, domain.random_items]),
		"severity": "warning",
		"domain": domain.name,
	}
}`,
	}
}

// clearScopePolicy warns when a single run wipes many domains at once.
func clearScopePolicy() Policy {
	return Policy{
		Name:        "clear-scope",
		Description: "Warns when a run clears existing data across many domains at once",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package droidseed.policies.scope

import rego.v1

deny contains violation if {
	clearing := count([d |
		some d in input.domains
		d.clears
	])
	clearing > 8

	violation := {
		"message": sprintf("run clears %d domains - a fresh emulator image may be faster", [clearing]),
		"severity": "warning",
	}
}`,
	}
}
