package stores

import (
	"context"
	"time"
)

// Run is one persisted seeding run.
type Run struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Overall        string    `json:"overall"`
	PreflightError *string   `json:"preflight_error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	ItemsWritten   int       `json:"items_written"`
	CreatedAt      time.Time `json:"created_at"`
}

// DomainPass is the persisted outcome of one domain inside a run. Position
// preserves the order the domains were applied in.
type DomainPass struct {
	ID           int64  `json:"id"`
	RunID        string `json:"run_id"`
	Position     int    `json:"position"`
	Domain       string `json:"domain"`
	Status       string `json:"status"`
	ItemsWritten int    `json:"items_written"`
	ItemsTotal   int    `json:"items_total"`
	Cleared      bool   `json:"cleared"`
	DurationMs   int64  `json:"duration_ms"`
}

// ItemError is one persisted operation-level failure. ItemIndex is -1 for
// failures that belong to the clear step rather than a specific item.
type ItemError struct {
	ID           int64  `json:"id"`
	DomainPassID int64  `json:"domain_pass_id"`
	ItemIndex    int    `json:"item_index"`
	Op           string `json:"op"`
	Cause        string `json:"cause"`
}

// Store defines the run-history persistence interface.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Domain pass operations
	ListDomainPasses(ctx context.Context, runID string) ([]*DomainPass, error)
	ListItemErrors(ctx context.Context, domainPassID int64) ([]*ItemError, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
