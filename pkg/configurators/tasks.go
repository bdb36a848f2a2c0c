package configurators

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

const defaultTaskImportance = 2

// Tasks configures the org.tasks app's database.
type Tasks struct {
	rng *sample.Provider
}

func (c *Tasks) Domain() spec.Domain { return spec.DomainTasks }

func (c *Tasks) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgTasks); err != nil {
		return err
	}
	return warmApp(ctx, dev, pkgTasks)
}

func (c *Tasks) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.TasksSpec)
	o := engine.NewOutcome(spec.DomainTasks)

	if s.ClearTasks {
		if err := clearTable(ctx, dev, tasksDBPath, tasksTable); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, task := range s.AddTasks {
		o.ItemsTotal++
		if err := c.insertTask(ctx, dev, task); err != nil {
			o.RecordError("add_task", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomTasks {
		for i := 0; i < s.TaskCount(); i++ {
			o.ItemsTotal++
			if err := c.insertRandomTask(ctx, dev); err != nil {
				o.RecordError("add_random_task", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Tasks) insertTask(ctx context.Context, dev device.Controller, task spec.TaskRecord) error {
	importance := task.Importance
	if importance == 0 {
		importance = defaultTaskImportance
	}

	var due, hideUntil, completed int64
	if task.DueTime != "" {
		t, err := parseTaskTime(task.DueTime)
		if err != nil {
			return fmt.Errorf("invalid due_time: %w", err)
		}
		due = t.UnixMilli()
	}
	if task.HideUntilTime != "" {
		t, err := parseTaskTime(task.HideUntilTime)
		if err != nil {
			return fmt.Errorf("invalid hide_until_time: %w", err)
		}
		hideUntil = t.UnixMilli()
	}
	if task.Completed {
		completed = time.Now().UnixMilli()
		if task.CompletedTime != "" {
			t, err := parseTaskTime(task.CompletedTime)
			if err != nil {
				return fmt.Errorf("invalid completed_time: %w", err)
			}
			completed = t.UnixMilli()
		}
	}

	created := time.Now().UnixMilli()
	if due > 0 {
		created = due - 7*time.Hour.Milliseconds()
	}
	return c.insertTaskRow(ctx, dev, task.Title, task.Notes, importance, due, hideUntil, completed, created)
}

func (c *Tasks) insertRandomTask(ctx context.Context, dev device.Controller) error {
	t := c.rng.Task()
	due := time.Now().
		AddDate(0, 0, c.rng.IntBetween(1, 30)).
		Truncate(24 * time.Hour).
		Add(time.Duration(c.rng.IntBetween(9, 17))*time.Hour +
			time.Duration(c.rng.Intn(4)*15)*time.Minute)

	var hideUntil, completed int64
	if c.rng.Chance(50) {
		hideUntil = due.Add(-24 * time.Hour).UnixMilli()
	}
	if c.rng.Chance(30) {
		completed = time.Now().UnixMilli()
	}
	created := due.AddDate(0, 0, -7).UnixMilli()
	return c.insertTaskRow(ctx, dev, t.Title, t.Notes, c.rng.Intn(4), due.UnixMilli(), hideUntil, completed, created)
}

func (c *Tasks) insertTaskRow(ctx context.Context, dev device.Controller, title, notes string, importance int, due, hideUntil, completed, created int64) error {
	return insertRow(ctx, dev, tasksDBPath, tasksTable,
		[]string{"title", "importance", "dueDate", "hideUntil", "completed", "created", "modified", "notes", "remoteId"},
		[]string{
			sqlString(title),
			sqlInt(int64(importance)),
			sqlInt(due),
			sqlInt(hideUntil),
			sqlInt(completed),
			sqlInt(created),
			sqlInt(created),
			sqlString(notes),
			sqlString(fmt.Sprintf("%d", c.rng.Int63())),
		})
}

// parseTaskTime accepts the date forms the tasks domain documents, with an
// optional trailing HH:MM.
func parseTaskTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	layouts := []string{
		"January 2 2006 15:04",
		"January 2 2006",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}
