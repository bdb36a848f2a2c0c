package policy

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"

	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

// Gate evaluates Rego policies against a parsed run spec before the engine
// touches the device. It satisfies the engine's PolicyGate interface.
type Gate struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	log      *telemetry.Logger
}

// compiledPolicy is a policy whose Rego has been parsed and validated.
type compiledPolicy struct {
	policy   *Policy
	module   *ast.Module
	compiled time.Time
}

// NewGate creates a gate preloaded with the built-in policies.
func NewGate(log *telemetry.Logger) (*Gate, error) {
	g := &Gate{
		policies: make(map[string]*compiledPolicy),
		log:      log.NewComponentLogger("policy"),
	}

	for _, p := range GetBuiltinPolicies() {
		p := p
		if err := g.compileAndStore(&p); err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", p.Name, err)
		}
	}

	return g, nil
}

// Check evaluates all enabled policies against the run spec. A blocking
// violation returns a DenialError; warnings are logged and the run proceeds.
func (g *Gate) Check(ctx context.Context, rs *spec.RunSpec) error {
	result, err := g.Evaluate(ctx, rs)
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		g.log.WithField("policy", w.Policy).Warn(w.Message)
	}

	if !result.Allowed {
		return &DenialError{Violations: result.Violations}
	}
	return nil
}

// Evaluate runs every enabled policy and collects violations without
// deciding anything for the caller.
func (g *Gate) Evaluate(ctx context.Context, rs *spec.RunSpec) (*Result, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	input := BuildInput(rs)

	var blocking, warnings []Violation
	for _, cp := range g.policies {
		if !cp.policy.Enabled {
			continue
		}

		violations, err := g.evaluatePolicy(ctx, cp, input)
		if err != nil {
			return nil, fmt.Errorf("policy %s evaluation failed: %w", cp.policy.Name, err)
		}

		for _, v := range violations {
			if v.Severity.Blocking() {
				blocking = append(blocking, v)
			} else {
				warnings = append(warnings, v)
			}
		}
	}

	return &Result{
		Allowed:     len(blocking) == 0,
		Violations:  blocking,
		Warnings:    warnings,
		EvaluatedAt: time.Now(),
	}, nil
}

// LoadPolicies loads additional policy files and directories into the gate.
func (g *Gate) LoadPolicies(ctx context.Context, paths []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	loader := NewLoader(g.log)
	policies, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	for i := range policies {
		if err := g.compileAndStore(&policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}

	g.log.Infof("loaded %d policies from %d paths", len(policies), len(paths))
	return nil
}

// ReplacePolicies swaps in a new set of custom policies, keeping the
// built-ins. Used by the loader's watch reload.
func (g *Gate) ReplacePolicies(policies []Policy) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.policies = make(map[string]*compiledPolicy)
	for _, p := range GetBuiltinPolicies() {
		p := p
		if err := g.compileAndStore(&p); err != nil {
			return err
		}
	}
	for i := range policies {
		if err := g.compileAndStore(&policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}
	return nil
}

// GetPolicy returns a policy by name.
func (g *Gate) GetPolicy(name string) (*Policy, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	cp, exists := g.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}
	return cp.policy, nil
}

// ListPolicies returns all loaded policies.
func (g *Gate) ListPolicies() []Policy {
	g.mu.RLock()
	defer g.mu.RUnlock()

	policies := make([]Policy, 0, len(g.policies))
	for _, cp := range g.policies {
		policies = append(policies, *cp.policy)
	}
	return policies
}

// SetEnabled enables or disables a policy by name.
func (g *Gate) SetEnabled(name string, enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp, exists := g.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = enabled
	return nil
}

// evaluatePolicy queries the policy's deny set for one input.
func (g *Gate) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input *Input) ([]Violation, error) {
	packageName := extractPackageName(cp.policy.Rego)
	query := fmt.Sprintf("data.%s.deny", packageName)

	r := rego.New(
		rego.Module(cp.policy.Name, cp.policy.Rego),
		rego.Query(query),
		rego.Input(input),
	)

	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, g.makeViolation(cp.policy, d))
		}
	}

	return violations, nil
}

// makeViolation converts one deny result into a Violation. String results
// use the policy's default severity.
func (g *Gate) makeViolation(policy *Policy, result interface{}) Violation {
	violation := Violation{
		Policy:   policy.Name,
		Severity: policy.Severity,
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if domain, ok := v["domain"].(string); ok {
			violation.Domain = domain
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// compileAndStore parses a policy's Rego and adds it to the gate.
func (g *Gate) compileAndStore(policy *Policy) error {
	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}

	g.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		module:   module,
		compiled: time.Now(),
	}
	return nil
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(regoSrc string) string {
	for _, line := range strings.Split(regoSrc, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "droidseed.policies"
}

// BuildInput flattens a run spec into the policy input document.
func BuildInput(rs *spec.RunSpec) *Input {
	input := &Input{
		Device: DeviceInput{
			Serial:           rs.Options.DeviceSerial,
			Physical:         isPhysicalSerial(rs.Options.DeviceSerial),
			AllowDestructive: rs.Options.AllowDestructive,
		},
	}

	for _, d := range spec.CanonicalOrder {
		if !rs.Present(d) {
			continue
		}
		di := DomainInput{Name: string(d)}
		if _, rejected := rs.Rejected[d]; rejected {
			di.Rejected = true
		} else {
			ds := rs.Domains[d]
			di.Clears = ds.ClearRequested()
			di.RandomItems = randomItems(ds)
		}
		input.RandomItems += di.RandomItems
		input.Domains = append(input.Domains, di)
	}

	return input
}

// isPhysicalSerial reports whether a serial targets real hardware. Emulator
// serials follow the "emulator-<port>" convention; an empty serial means
// the default device, assumed to be an emulator.
func isPhysicalSerial(serial string) bool {
	return serial != "" && !strings.HasPrefix(serial, "emulator-")
}

// randomItems counts the random items a domain spec would generate.
func randomItems(ds spec.DomainSpec) int {
	switch s := ds.(type) {
	case *spec.SmsSpec:
		if s.AddRandomConversations {
			return s.ConversationCount()
		}
	case *spec.CalendarSpec:
		if s.AddRandomEvents {
			return s.EventCount()
		}
	case *spec.RecipeSpec:
		if s.AddRandomRecipes {
			return s.RecipeCount()
		}
	case *spec.TasksSpec:
		if s.AddRandomTasks {
			return s.TaskCount()
		}
	case *spec.ExpenseSpec:
		if s.AddRandomExpenses {
			return s.ExpenseCount()
		}
	case *spec.MarkorSpec:
		if s.AddRandomNotes {
			return s.NoteCount()
		}
	case *spec.JoplinSpec:
		if s.AddRandomNotes {
			return s.NoteCount()
		}
	case *spec.FilesSpec:
		if s.AddRandomFiles {
			return s.FileCount()
		}
	case *spec.OpenTracksSpec:
		if s.AddRandomActivities {
			return s.ActivityCount()
		}
	}
	return 0
}
