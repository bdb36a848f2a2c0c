package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single adb invocation. Cancellation is a
// property of the port: a stuck command surfaces as a failed operation, it
// never wedges the whole run.
const DefaultCommandTimeout = 60 * time.Second

// ADB is the device control port backed by a local adb binary.
type ADB struct {
	// Path is the adb binary path. Empty means the platform default.
	Path string

	// Serial selects the target device for multi-device hosts.
	Serial string

	// Timeout bounds each adb invocation. Zero means DefaultCommandTimeout.
	Timeout time.Duration
}

// NewADB creates an ADB controller for the given binary path and device
// serial.
func NewADB(path, serial string) *ADB {
	if path == "" {
		path = DefaultADBPath()
	}
	return &ADB{Path: path, Serial: serial}
}

// DefaultADBPath returns the default location of adb: the SDK named by
// $ANDROID_HOME (or $ANDROID_SDK_ROOT), then the platform's conventional
// per-user SDK install, then a bare "adb" resolved through PATH.
func DefaultADBPath() string {
	exe := "adb"
	if runtime.GOOS == "windows" {
		exe = "adb.exe"
	}

	for _, env := range []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"} {
		if sdk := os.Getenv(env); sdk != "" {
			return filepath.Join(sdk, "platform-tools", exe)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return exe
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library/Android/sdk/platform-tools", exe)
	case "windows":
		return filepath.Join(home, "AppData/Local/Android/Sdk/platform-tools", exe)
	default:
		return filepath.Join(home, "Android/Sdk/platform-tools", exe)
	}
}

// command runs adb with the given arguments against the selected device.
func (a *ADB) command(ctx context.Context, args ...string) (string, error) {
	timeout := a.Timeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	full := args
	if a.Serial != "" {
		full = append([]string{"-s", a.Serial}, args...)
	}

	cmd := exec.CommandContext(ctx, a.Path, full...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		return stdout.String(), &OpError{
			Op:      "adb",
			Detail:  strings.Join(args, " "),
			Stderr:  strings.TrimSpace(stderr.String()),
			Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     err,
		}
	}
	return stdout.String(), nil
}

// RunShell executes a shell command on the device.
func (a *ADB) RunShell(ctx context.Context, command string) (string, error) {
	return a.command(ctx, "shell", command)
}

// QueryContent queries a content provider via the content tool and parses
// its row output.
func (a *ADB) QueryContent(ctx context.Context, uri string, projection []string, selection string) ([]map[string]string, error) {
	cmd := fmt.Sprintf("content query --uri %s", uri)
	if len(projection) > 0 {
		cmd += " --projection " + strings.Join(projection, ":")
	}
	if selection != "" {
		cmd += fmt.Sprintf(" --where %s", shellQuote(selection))
	}
	out, err := a.RunShell(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseContentRows(out), nil
}

// InsertContent inserts a row via the content tool.
func (a *ADB) InsertContent(ctx context.Context, uri string, values map[string]BindValue) error {
	cmd := fmt.Sprintf("content insert --uri %s", uri)
	for _, col := range sortedKeys(values) {
		v := values[col]
		cmd += fmt.Sprintf(" --bind %s", shellQuote(fmt.Sprintf("%s:%s:%s", col, v.Kind, v.Value)))
	}
	_, err := a.RunShell(ctx, cmd)
	return err
}

// DeleteContent deletes rows via the content tool.
func (a *ADB) DeleteContent(ctx context.Context, uri string, selection string) error {
	cmd := fmt.Sprintf("content delete --uri %s", uri)
	if selection != "" {
		cmd += fmt.Sprintf(" --where %s", shellQuote(selection))
	}
	_, err := a.RunShell(ctx, cmd)
	return err
}

// PushFile copies a local file onto the device.
func (a *ADB) PushFile(ctx context.Context, localPath, remotePath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return &OpError{Op: "push", Detail: localPath, Err: err}
	}
	_, err := a.command(ctx, "push", localPath, remotePath)
	return err
}

// PullFile copies a device file to the local filesystem.
func (a *ADB) PullFile(ctx context.Context, remotePath, localPath string) error {
	_, err := a.command(ctx, "pull", remotePath, localPath)
	return err
}

// ListPackages returns all installed package names.
func (a *ADB) ListPackages(ctx context.Context) ([]string, error) {
	out, err := a.RunShell(ctx, "pm list packages")
	if err != nil {
		return nil, err
	}
	return parsePackageList(out), nil
}

// LaunchApp starts the package's launcher activity.
func (a *ADB) LaunchApp(ctx context.Context, pkg string) error {
	_, err := a.RunShell(ctx, fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", pkg))
	return err
}

// CloseAllApps kills background apps and returns to the home screen.
func (a *ADB) CloseAllApps(ctx context.Context) error {
	if _, err := a.RunShell(ctx, "am kill-all"); err != nil {
		return err
	}
	_, err := a.RunShell(ctx, "input keyevent KEYCODE_HOME")
	return err
}

// parseContentRows parses the "Row: N col=val, col=val" output of the
// content tool.
func parseContentRows(out string) []map[string]string {
	var rows []map[string]string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Row:") {
			continue
		}
		// Strip the "Row: N" prefix.
		if idx := strings.Index(line, " "); idx >= 0 {
			line = line[idx+1:]
		}
		if idx := strings.Index(line, " "); idx >= 0 {
			line = line[idx+1:]
		}
		row := make(map[string]string)
		for _, pair := range strings.Split(line, ", ") {
			kv := strings.SplitN(pair, "=", 2)
			if len(kv) == 2 {
				row[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

// parsePackageList parses "package:com.example.app" lines.
func parsePackageList(out string) []string {
	var pkgs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "package:") {
			pkgs = append(pkgs, strings.TrimPrefix(line, "package:"))
		}
	}
	return pkgs
}

// shellQuote single-quotes a string for the device shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(values map[string]BindValue) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// Deterministic bind order keeps commands reproducible in logs and
	// tests.
	sort.Strings(keys)
	return keys
}
