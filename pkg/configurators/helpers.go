package configurators

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
)

// ensureApp checks that the package is installed, returning a wrapped
// engine.ErrAppNotInstalled when it is not.
func ensureApp(ctx context.Context, dev device.Controller, pkg string) error {
	installed, err := dev.ListPackages(ctx)
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}
	for _, p := range installed {
		if p == pkg {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", pkg, engine.ErrAppNotInstalled)
}

// warmApp launches the package and returns to the home screen so the app
// creates its databases and directories.
func warmApp(ctx context.Context, dev device.Controller, pkg string) error {
	if err := dev.LaunchApp(ctx, pkg); err != nil {
		return err
	}
	_, err := dev.RunShell(ctx, "input keyevent KEYCODE_HOME")
	return err
}

// execSQL runs one SQL statement against an on-device sqlite database
// through the device shell.
func execSQL(ctx context.Context, dev device.Controller, dbPath, stmt string) error {
	_, err := dev.RunShell(ctx, fmt.Sprintf("sqlite3 %s \"%s\"", dbPath, stmt))
	return err
}

// clearTable deletes every row from the table.
func clearTable(ctx context.Context, dev device.Controller, dbPath, table string) error {
	return execSQL(ctx, dev, dbPath, fmt.Sprintf("DELETE FROM %s;", table))
}

// insertRow builds and runs an INSERT for the given columns and
// already-rendered values. Column names that collide with SQL keywords are
// bracket-quoted.
func insertRow(ctx context.Context, dev device.Controller, dbPath, table string, columns, values []string) error {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if strings.EqualFold(c, "order") {
			quoted[i] = "[" + c + "]"
		} else {
			quoted[i] = c
		}
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		table, strings.Join(quoted, ", "), strings.Join(values, ", "))
	return execSQL(ctx, dev, dbPath, stmt)
}

// sqlString renders a Go string as a single-quoted SQL literal.
func sqlString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// sqlInt renders an integer SQL literal.
func sqlInt(v int64) string {
	return fmt.Sprintf("%d", v)
}

// sqlFloat renders a float SQL literal.
func sqlFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}

// mkdirAll creates the directory on the device, parents included.
func mkdirAll(ctx context.Context, dev device.Controller, dir string) error {
	_, err := dev.RunShell(ctx, "mkdir -p "+dir)
	return err
}

// clearDir removes the directory's contents but keeps the directory.
func clearDir(ctx context.Context, dev device.Controller, dir string) error {
	if _, err := dev.RunShell(ctx, fmt.Sprintf("rm -rf %s/*", dir)); err != nil {
		return err
	}
	return mkdirAll(ctx, dev, dir)
}

// writeDeviceFile stages content in a local temp file and pushes it to the
// device path. The parent directory must already exist.
func writeDeviceFile(ctx context.Context, dev device.Controller, remotePath string, content []byte) error {
	tmp, err := os.CreateTemp("", "droidseed-*"+path.Ext(remotePath))
	if err != nil {
		return fmt.Errorf("stage file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("stage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage file: %w", err)
	}
	return dev.PushFile(ctx, tmp.Name(), remotePath)
}

// mediaScan asks the media scanner to pick up the path.
func mediaScan(ctx context.Context, dev device.Controller, devicePath string) error {
	_, err := dev.RunShell(ctx, fmt.Sprintf("am broadcast -a %s -d file://%s", mediaScanAction, devicePath))
	return err
}

// cleanPhoneNumber keeps digits and a leading plus, the characters the
// telephony provider accepts.
func cleanPhoneNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
