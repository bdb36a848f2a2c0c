package configurators

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Markor configures the Markor note app: plain markdown files under its
// notebook directory on shared storage.
type Markor struct {
	rng *sample.Provider
}

func (c *Markor) Domain() spec.Domain { return spec.DomainMarkor }

func (c *Markor) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgMarkor); err != nil {
		return err
	}
	return mkdirAll(ctx, dev, markorRoot)
}

func (c *Markor) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.MarkorSpec)
	o := engine.NewOutcome(spec.DomainMarkor)

	if s.ClearNotes {
		if err := clearDir(ctx, dev, markorRoot); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, f := range s.AddFolders {
		o.ItemsTotal++
		if err := mkdirAll(ctx, dev, path.Join(markorRoot, f.Title)); err != nil {
			o.RecordError("add_folder", i, err)
			continue
		}
		o.ItemsWritten++
	}

	for i, n := range s.AddNotes {
		o.ItemsTotal++
		if err := c.writeNote(ctx, dev, n); err != nil {
			o.RecordError("add_note", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomNotes {
		for i := 0; i < s.NoteCount(); i++ {
			o.ItemsTotal++
			note := spec.NoteRecord{
				Title:   fmt.Sprintf("%s %d", c.rng.NoteTitle(), i+1),
				Content: c.rng.NoteBody(),
			}
			if err := c.writeNote(ctx, dev, note); err != nil {
				o.RecordError("add_random_note", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

// writeNote creates the note file, giving it a markdown extension when the
// title carries none and creating its folder on demand.
func (c *Markor) writeNote(ctx context.Context, dev device.Controller, n spec.NoteRecord) error {
	name := noteFileName(n.Title)
	dir := markorRoot
	if n.Folder != "" {
		dir = path.Join(markorRoot, n.Folder)
		if err := mkdirAll(ctx, dev, dir); err != nil {
			// The root always exists; a note beats a lost note.
			dir = markorRoot
		}
	}
	content := n.Content
	if content == "" {
		content = n.Body
	}
	return writeDeviceFile(ctx, dev, path.Join(dir, name), []byte(content))
}

// noteFileName appends .md unless the title already carries a text
// extension.
func noteFileName(title string) string {
	lower := strings.ToLower(title)
	if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".txt") {
		return title
	}
	return title + ".md"
}
