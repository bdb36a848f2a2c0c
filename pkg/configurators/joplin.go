package configurators

import (
	"context"
	"fmt"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Joplin configures the Joplin notes app: notebooks and notes in its sqlite
// database, including the normalized search table.
type Joplin struct {
	rng *sample.Provider
}

func (c *Joplin) Domain() spec.Domain { return spec.DomainJoplin }

func (c *Joplin) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgJoplin); err != nil {
		return err
	}
	return warmApp(ctx, dev, pkgJoplin)
}

func (c *Joplin) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.JoplinSpec)
	o := engine.NewOutcome(spec.DomainJoplin)

	if s.ClearNotes {
		if err := c.clearNotes(ctx, dev); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	// folders maps notebook titles to their generated ids. Folders named by
	// notes but never declared are created on demand.
	folders := make(map[string]string)

	for i, f := range s.AddFolders {
		o.ItemsTotal++
		id, err := c.insertFolder(ctx, dev, f.Title)
		if err != nil {
			o.RecordError("add_folder", i, err)
			continue
		}
		folders[f.Title] = id
		o.ItemsWritten++
	}

	for i, n := range s.AddNotes {
		o.ItemsTotal++
		if err := c.insertNote(ctx, dev, n, folders); err != nil {
			o.RecordError("add_note", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomNotes {
		categories := s.RandomCategories
		if len(categories) == 0 {
			categories = sample.JoplinCategories()
		}
		for i := 0; i < s.NoteCount(); i++ {
			o.ItemsTotal++
			category := categories[c.rng.Intn(len(categories))]
			n := c.rng.JoplinNote(category)
			note := spec.NoteRecord{
				Title:  n.Title,
				Body:   n.Body,
				Folder: category,
				IsTodo: n.IsTodo,
			}
			if err := c.insertNote(ctx, dev, note, folders); err != nil {
				o.RecordError("add_random_note", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	if o.ItemsWritten > 0 {
		_ = dev.LaunchApp(ctx, pkgJoplin)
	}

	o.Finalize()
	return o
}

func (c *Joplin) clearNotes(ctx context.Context, dev device.Controller) error {
	for _, table := range []string{joplinFoldersTable, joplinNotesTable, joplinNormalizedTable} {
		if err := clearTable(ctx, dev, joplinDBPath, table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (c *Joplin) insertFolder(ctx context.Context, dev device.Controller, title string) (string, error) {
	id := c.rng.HexID()
	now := time.Now().UnixMilli()
	err := insertRow(ctx, dev, joplinDBPath, joplinFoldersTable,
		[]string{"id", "title", "created_time", "updated_time", "user_created_time", "user_updated_time"},
		[]string{sqlString(id), sqlString(title), sqlInt(now), sqlInt(now), sqlInt(now), sqlInt(now)})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *Joplin) insertNote(ctx context.Context, dev device.Controller, n spec.NoteRecord, folders map[string]string) error {
	parentID := ""
	if n.Folder != "" {
		id, ok := folders[n.Folder]
		if !ok {
			var err error
			id, err = c.insertFolder(ctx, dev, n.Folder)
			if err != nil {
				return fmt.Errorf("create folder %q: %w", n.Folder, err)
			}
			folders[n.Folder] = id
		}
		parentID = id
	}

	body := n.Body
	if body == "" {
		body = n.Content
	}
	isTodo := int64(0)
	if n.IsTodo {
		isTodo = 1
	}
	todoCompleted := int64(0)
	if n.TodoCompleted {
		todoCompleted = 1
	}

	id := c.rng.HexID()
	now := time.Now().UnixMilli()

	err := insertRow(ctx, dev, joplinDBPath, joplinNotesTable,
		[]string{
			"id", "parent_id", "title", "body", "created_time", "updated_time",
			"is_todo", "todo_completed", "user_created_time", "user_updated_time", "markup_language",
		},
		[]string{
			sqlString(id), sqlString(parentID), sqlString(n.Title), sqlString(body), sqlInt(now), sqlInt(now),
			sqlInt(isTodo), sqlInt(todoCompleted), sqlInt(now), sqlInt(now), "1",
		})
	if err != nil {
		return err
	}

	// The search index table mirrors the note.
	return insertRow(ctx, dev, joplinDBPath, joplinNormalizedTable,
		[]string{"id", "title", "body", "parent_id", "is_todo", "user_created_time", "user_updated_time"},
		[]string{sqlString(id), sqlString(n.Title), sqlString(body), sqlString(parentID), sqlInt(isTodo), sqlInt(now), sqlInt(now)})
}
