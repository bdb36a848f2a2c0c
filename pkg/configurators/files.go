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

const randomFileContentLength = 100

// Files configures plain shared-storage content: folders, files, and
// on-device copies.
type Files struct {
	rng *sample.Provider
}

func (c *Files) Domain() spec.Domain { return spec.DomainFiles }

func (c *Files) EnsureReady(ctx context.Context, dev device.Controller) error {
	return nil
}

func (c *Files) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.FilesSpec)
	o := engine.NewOutcome(spec.DomainFiles)

	if len(s.ClearFolders) > 0 {
		cleared := true
		for _, folder := range s.ClearFolders {
			if err := clearDir(ctx, dev, storagePath(folder)); err != nil {
				o.RecordError("clear", -1, fmt.Errorf("clear %s: %w", folder, err))
				cleared = false
			}
		}
		o.Cleared = cleared
	}

	for i, f := range s.CreateFolders {
		o.ItemsTotal++
		if err := mkdirAll(ctx, dev, storagePath(path.Join(f.Folder, f.Name))); err != nil {
			o.RecordError("create_folder", i, err)
			continue
		}
		o.ItemsWritten++
	}

	for i, f := range s.AddFiles {
		o.ItemsTotal++
		if err := c.addFile(ctx, dev, f.Folder, f.Name, f.Content); err != nil {
			o.RecordError("add_file", i, err)
			continue
		}
		o.ItemsWritten++
	}

	for i, cp := range s.CopyFiles {
		o.ItemsTotal++
		if err := c.copyFile(ctx, dev, cp); err != nil {
			o.RecordError("copy_file", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomFiles {
		folders := s.FileFolders()
		for i := 0; i < s.FileCount(); i++ {
			o.ItemsTotal++
			folder := folders[c.rng.Intn(len(folders))]
			name := c.rng.FileName(i + 1)
			if err := c.addFile(ctx, dev, folder, name, c.rng.FileContent(randomFileContentLength)); err != nil {
				o.RecordError("add_random_file", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Files) addFile(ctx context.Context, dev device.Controller, folder, name, content string) error {
	dir := storagePath(folder)
	if err := mkdirAll(ctx, dev, dir); err != nil {
		return err
	}
	return writeDeviceFile(ctx, dev, path.Join(dir, name), []byte(content))
}

func (c *Files) copyFile(ctx context.Context, dev device.Controller, cp spec.CopyRecord) error {
	src := storagePath(cp.Source)
	dst := storagePath(cp.Destination)
	if err := mkdirAll(ctx, dev, path.Dir(dst)); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, fmt.Sprintf("cp %s %s", src, dst))
	return err
}

// storagePath resolves a spec path against shared storage. Absolute paths
// pass through unchanged.
func storagePath(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	if p == "" {
		return sharedStorageRoot
	}
	return path.Join(sharedStorageRoot, p)
}
