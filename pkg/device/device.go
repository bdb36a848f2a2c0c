// Package device provides the device control port: the narrow interface
// through which every device mutation is performed, plus its ADB-backed
// implementations. The port is deliberately small — shell commands, content
// provider access, file pushes, app lifecycle — and every call can fail
// independently; callers never assume atomicity across calls.
package device

import (
	"context"
	"fmt"
	"strconv"
)

// Controller is the device control port.
type Controller interface {
	// RunShell executes a shell command on the device and returns its
	// output.
	RunShell(ctx context.Context, command string) (string, error)

	// QueryContent queries a content provider URI and returns the matched
	// rows as column name to value maps.
	QueryContent(ctx context.Context, uri string, projection []string, selection string) ([]map[string]string, error)

	// InsertContent inserts a row into a content provider URI.
	InsertContent(ctx context.Context, uri string, values map[string]BindValue) error

	// DeleteContent deletes rows matching the selection from a content
	// provider URI. An empty selection deletes everything.
	DeleteContent(ctx context.Context, uri string, selection string) error

	// PushFile copies a local file to a path on the device.
	PushFile(ctx context.Context, localPath, remotePath string) error

	// PullFile copies a device file to a local path.
	PullFile(ctx context.Context, remotePath, localPath string) error

	// ListPackages returns the installed package names.
	ListPackages(ctx context.Context) ([]string, error)

	// LaunchApp starts the named package's launcher activity.
	LaunchApp(ctx context.Context, pkg string) error

	// CloseAllApps dismisses all recent apps and returns to the home
	// screen.
	CloseAllApps(ctx context.Context) error
}

// BindValue is a typed value for content provider binds.
type BindValue struct {
	// Kind is the content tool bind type: s, i, f, or b.
	Kind string

	// Value is the rendered value.
	Value string
}

// String binds a string value.
func String(v string) BindValue {
	return BindValue{Kind: "s", Value: v}
}

// Int binds an integer value.
func Int(v int64) BindValue {
	return BindValue{Kind: "i", Value: strconv.FormatInt(v, 10)}
}

// Float binds a floating point value.
func Float(v float64) BindValue {
	return BindValue{Kind: "f", Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// Bool binds a boolean value.
func Bool(v bool) BindValue {
	return BindValue{Kind: "b", Value: strconv.FormatBool(v)}
}

// OpError is an error from a device control operation.
type OpError struct {
	// Op is the operation that failed, e.g. "shell" or "push".
	Op string

	// Detail is the command or path involved.
	Detail string

	// Stderr is the captured error output, if any.
	Stderr string

	// Timeout reports whether the operation hit its deadline.
	Timeout bool

	// Err is the underlying error.
	Err error
}

func (e *OpError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s %s: %v (stderr: %s)", e.Op, e.Detail, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Detail, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the operation may succeed on retry.
func (e *OpError) Temporary() bool {
	return e.Timeout
}
