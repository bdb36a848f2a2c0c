package device

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Fake is an in-memory Controller for tests. It records every call, keeps
// simple filesystem and content provider state, and understands just enough
// shell (mkdir, rm, touch) to let configurator flows run end to end.
type Fake struct {
	mu sync.Mutex

	// Calls records every operation in invocation order, rendered as
	// "op detail" strings.
	Calls []string

	// Files maps device paths to pushed file contents.
	Files map[string][]byte

	// Dirs tracks directories created via mkdir.
	Dirs map[string]bool

	// Content maps content provider URIs to inserted rows.
	Content map[string][]map[string]string

	// Packages is the installed package list.
	Packages []string

	// ShellResponses maps a command substring to a canned output. First
	// match wins, in insertion-independent order is not guaranteed, so
	// keep patterns disjoint in tests.
	ShellResponses map[string]string

	// FailOn maps a call substring to an injected error. Checked against
	// the rendered "op detail" string of every call.
	FailOn map[string]error
}

// NewFake creates an empty fake with all standard packages installed.
func NewFake(packages ...string) *Fake {
	return &Fake{
		Files:          make(map[string][]byte),
		Dirs:           make(map[string]bool),
		Content:        make(map[string][]map[string]string),
		Packages:       packages,
		ShellResponses: make(map[string]string),
		FailOn:         make(map[string]error),
	}
}

func (f *Fake) record(op, detail string) (string, error) {
	call := op + " " + detail
	f.Calls = append(f.Calls, call)
	for pattern, err := range f.FailOn {
		if strings.Contains(call, pattern) {
			return call, &OpError{Op: op, Detail: detail, Err: err}
		}
	}
	return call, nil
}

// CallsMatching returns the recorded calls containing the substring.
func (f *Fake) CallsMatching(substr string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}

// RunShell records the command and interprets mkdir, rm and touch so file
// flows observe consistent state.
func (f *Fake) RunShell(ctx context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("shell", command); err != nil {
		return "", err
	}

	fields := strings.Fields(command)
	if len(fields) > 0 {
		switch fields[0] {
		case "mkdir":
			for _, arg := range fields[1:] {
				if !strings.HasPrefix(arg, "-") {
					f.Dirs[strings.Trim(arg, "'\"")] = true
				}
			}
		case "rm":
			for _, arg := range fields[1:] {
				if strings.HasPrefix(arg, "-") {
					continue
				}
				target := strings.Trim(arg, "'\"")
				prefix := strings.TrimSuffix(target, "*")
				for p := range f.Files {
					if strings.HasPrefix(p, prefix) {
						delete(f.Files, p)
					}
				}
				for d := range f.Dirs {
					if strings.HasPrefix(d, prefix) {
						delete(f.Dirs, d)
					}
				}
			}
		case "touch":
			for _, arg := range fields[1:] {
				if !strings.HasPrefix(arg, "-") {
					f.Files[strings.Trim(arg, "'\"")] = nil
				}
			}
		}
	}

	for pattern, out := range f.ShellResponses {
		if strings.Contains(command, pattern) {
			return out, nil
		}
	}
	return "", nil
}

// QueryContent returns the rows previously inserted for the URI.
func (f *Fake) QueryContent(ctx context.Context, uri string, projection []string, selection string) ([]map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("query", uri); err != nil {
		return nil, err
	}
	rows := f.Content[uri]
	out := make([]map[string]string, len(rows))
	copy(out, rows)
	return out, nil
}

// InsertContent stores the row under the URI.
func (f *Fake) InsertContent(ctx context.Context, uri string, values map[string]BindValue) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("insert", uri); err != nil {
		return err
	}
	row := make(map[string]string, len(values))
	for col, v := range values {
		row[col] = v.Value
	}
	f.Content[uri] = append(f.Content[uri], row)
	return nil
}

// DeleteContent drops all rows for the URI. Selections are not evaluated;
// the fake treats every delete as a full clear, which is how the engine
// uses it.
func (f *Fake) DeleteContent(ctx context.Context, uri string, selection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("delete", uri); err != nil {
		return err
	}
	delete(f.Content, uri)
	return nil
}

// PushFile reads the local file into the fake device filesystem. A missing
// local file stores a placeholder instead of failing, so tests can push
// paths that do not exist on the test host.
func (f *Fake) PushFile(ctx context.Context, localPath, remotePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("push", localPath+" "+remotePath); err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		data = []byte("placeholder:" + localPath)
	}
	f.Files[remotePath] = data
	return nil
}

// PullFile writes the stored device file to the local path.
func (f *Fake) PullFile(ctx context.Context, remotePath, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("pull", remotePath+" "+localPath); err != nil {
		return err
	}
	data, ok := f.Files[remotePath]
	if !ok {
		return &OpError{Op: "pull", Detail: remotePath, Err: fmt.Errorf("no such file")}
	}
	return os.WriteFile(localPath, data, 0o644)
}

// ListPackages returns the configured package list.
func (f *Fake) ListPackages(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.record("packages", ""); err != nil {
		return nil, err
	}
	out := make([]string, len(f.Packages))
	copy(out, f.Packages)
	return out, nil
}

// LaunchApp records the launch.
func (f *Fake) LaunchApp(ctx context.Context, pkg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.record("launch", pkg)
	return err
}

// CloseAllApps records the call.
func (f *Fake) CloseAllApps(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.record("close_all", "")
	return err
}
