package device

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

// RemoteConfig configures a Remote controller: a device attached to another
// machine (a lab host) reachable over SSH.
type RemoteConfig struct {
	// Host is the lab host running adb.
	Host string

	// Port is the SSH port. Zero means 22.
	Port int

	// User is the SSH login user.
	User string

	// Password authenticates with a password when set.
	Password string

	// PrivateKeyPath authenticates with a key file when set.
	PrivateKeyPath string

	// ADBPath is the adb binary path on the lab host. Empty means "adb"
	// on the remote PATH.
	ADBPath string

	// Serial selects the target device on the lab host.
	Serial string

	// ConnectTimeout bounds the SSH dial. Zero means 30s.
	ConnectTimeout time.Duration

	// CommandTimeout bounds each remote adb invocation. Zero means
	// DefaultCommandTimeout.
	CommandTimeout time.Duration
}

// Validate checks the config for required fields.
func (c *RemoteConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("remote host is required")
	}
	if c.User == "" {
		return fmt.Errorf("remote user is required")
	}
	if c.Password == "" && c.PrivateKeyPath == "" {
		return fmt.Errorf("either password or private key path is required")
	}
	return nil
}

func (c *RemoteConfig) address() string {
	port := c.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

func (c *RemoteConfig) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if c.PrivateKeyPath != "" {
		keyData, err := os.ReadFile(c.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(keyData)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}

	timeout := c.ConnectTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // lab hosts are provisioned, not discovered
		Timeout:         timeout,
	}, nil
}

// Remote is a device control port for a device attached to an SSH-reachable
// lab host. Shell and content operations run adb on the remote host; file
// pushes stage through SFTP before the remote adb push.
type Remote struct {
	config *RemoteConfig

	connMu      sync.RWMutex
	client      *ssh.Client
	isConnected bool
}

// NewRemote creates a remote controller. Connect must be called before use.
func NewRemote(config *RemoteConfig) (*Remote, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid remote config: %w", err)
	}
	return &Remote{config: config}, nil
}

// Connect establishes the SSH connection to the lab host.
func (r *Remote) Connect(ctx context.Context) error {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	if r.isConnected && r.client != nil {
		return nil
	}

	clientConfig, err := r.config.clientConfig()
	if err != nil {
		return &OpError{Op: "connect", Detail: r.config.address(), Err: err}
	}

	address := r.config.address()
	log.Debug().Str("address", address).Msg("connecting to lab host")

	connChan := make(chan *ssh.Client, 1)
	errChan := make(chan error, 1)
	go func() {
		client, err := ssh.Dial("tcp", address, clientConfig)
		if err != nil {
			errChan <- err
			return
		}
		connChan <- client
	}()

	select {
	case <-ctx.Done():
		return &OpError{Op: "connect", Detail: address, Timeout: true, Err: ctx.Err()}
	case err := <-errChan:
		return &OpError{Op: "connect", Detail: address, Err: err}
	case client := <-connChan:
		r.client = client
		r.isConnected = true
		log.Info().Str("address", address).Msg("lab host connection established")
		return nil
	}
}

// Close tears down the SSH connection.
func (r *Remote) Close() error {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	if !r.isConnected || r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	r.isConnected = false
	return err
}

func (r *Remote) getClient() (*ssh.Client, error) {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	if !r.isConnected || r.client == nil {
		return nil, &OpError{Op: "remote", Detail: r.config.address(), Err: fmt.Errorf("not connected")}
	}
	return r.client, nil
}

// adbPrefix renders the remote adb invocation prefix.
func (r *Remote) adbPrefix() string {
	adb := r.config.ADBPath
	if adb == "" {
		adb = "adb"
	}
	if r.config.Serial != "" {
		return fmt.Sprintf("%s -s %s", adb, r.config.Serial)
	}
	return adb
}

// runRemote executes a command on the lab host in a fresh session.
func (r *Remote) runRemote(ctx context.Context, cmd string) (string, error) {
	client, err := r.getClient()
	if err != nil {
		return "", err
	}

	timeout := r.config.CommandTimeout
	if timeout == 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	session, err := client.NewSession()
	if err != nil {
		return "", &OpError{Op: "remote", Detail: cmd, Err: fmt.Errorf("failed to create session: %w", err)}
	}
	defer session.Close()

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	doneChan := make(chan error, 1)
	go func() {
		doneChan <- session.Run(cmd)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		runErr = ctx.Err()
	case runErr = <-doneChan:
	}

	if runErr != nil {
		return stdout.String(), &OpError{
			Op:      "remote",
			Detail:  cmd,
			Stderr:  strings.TrimSpace(stderr.String()),
			Timeout: ctx.Err() != nil,
			Err:     runErr,
		}
	}
	return stdout.String(), nil
}

// RunShell executes a shell command on the device through the lab host.
func (r *Remote) RunShell(ctx context.Context, command string) (string, error) {
	return r.runRemote(ctx, fmt.Sprintf("%s shell %s", r.adbPrefix(), shellQuote(command)))
}

// QueryContent queries a content provider on the device.
func (r *Remote) QueryContent(ctx context.Context, uri string, projection []string, selection string) ([]map[string]string, error) {
	cmd := fmt.Sprintf("content query --uri %s", uri)
	if len(projection) > 0 {
		cmd += " --projection " + strings.Join(projection, ":")
	}
	if selection != "" {
		cmd += fmt.Sprintf(" --where %s", shellQuote(selection))
	}
	out, err := r.RunShell(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return parseContentRows(out), nil
}

// InsertContent inserts a row into a content provider on the device.
func (r *Remote) InsertContent(ctx context.Context, uri string, values map[string]BindValue) error {
	cmd := fmt.Sprintf("content insert --uri %s", uri)
	for _, col := range sortedKeys(values) {
		v := values[col]
		cmd += fmt.Sprintf(" --bind %s", shellQuote(fmt.Sprintf("%s:%s:%s", col, v.Kind, v.Value)))
	}
	_, err := r.RunShell(ctx, cmd)
	return err
}

// DeleteContent deletes rows from a content provider on the device.
func (r *Remote) DeleteContent(ctx context.Context, uri string, selection string) error {
	cmd := fmt.Sprintf("content delete --uri %s", uri)
	if selection != "" {
		cmd += fmt.Sprintf(" --where %s", shellQuote(selection))
	}
	_, err := r.RunShell(ctx, cmd)
	return err
}

// PushFile stages the local file on the lab host over SFTP and then pushes
// it to the device with the remote adb.
func (r *Remote) PushFile(ctx context.Context, localPath, remotePath string) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return &OpError{Op: "push", Detail: localPath, Err: err}
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return &OpError{Op: "push", Detail: localPath, Err: fmt.Errorf("failed to create sftp client: %w", err)}
	}
	defer sftpClient.Close()

	staged := path.Join("/tmp", fmt.Sprintf("droidseed-%d-%s", time.Now().UnixNano(), path.Base(localPath)))
	f, err := sftpClient.Create(staged)
	if err != nil {
		return &OpError{Op: "push", Detail: staged, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return &OpError{Op: "push", Detail: staged, Err: err}
	}
	if err := f.Close(); err != nil {
		return &OpError{Op: "push", Detail: staged, Err: err}
	}
	defer func() {
		if err := sftpClient.Remove(staged); err != nil {
			log.Warn().Err(err).Str("path", staged).Msg("failed to clean up staged file")
		}
	}()

	_, err = r.runRemote(ctx, fmt.Sprintf("%s push %s %s", r.adbPrefix(), staged, shellQuote(remotePath)))
	return err
}

// PullFile pulls the device file to the lab host with the remote adb and
// downloads it over SFTP.
func (r *Remote) PullFile(ctx context.Context, remotePath, localPath string) error {
	client, err := r.getClient()
	if err != nil {
		return err
	}

	staged := path.Join("/tmp", fmt.Sprintf("droidseed-%d-%s", time.Now().UnixNano(), path.Base(remotePath)))
	if _, err := r.runRemote(ctx, fmt.Sprintf("%s pull %s %s", r.adbPrefix(), shellQuote(remotePath), staged)); err != nil {
		return err
	}

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return &OpError{Op: "pull", Detail: remotePath, Err: fmt.Errorf("failed to create sftp client: %w", err)}
	}
	defer sftpClient.Close()
	defer func() {
		if err := sftpClient.Remove(staged); err != nil {
			log.Warn().Err(err).Str("path", staged).Msg("failed to clean up staged file")
		}
	}()

	f, err := sftpClient.Open(staged)
	if err != nil {
		return &OpError{Op: "pull", Detail: staged, Err: err}
	}
	defer f.Close()

	out, err := os.Create(localPath)
	if err != nil {
		return &OpError{Op: "pull", Detail: localPath, Err: err}
	}
	defer out.Close()

	if _, err := f.WriteTo(out); err != nil {
		return &OpError{Op: "pull", Detail: localPath, Err: err}
	}
	return nil
}

// ListPackages returns the installed package names.
func (r *Remote) ListPackages(ctx context.Context) ([]string, error) {
	out, err := r.RunShell(ctx, "pm list packages")
	if err != nil {
		return nil, err
	}
	return parsePackageList(out), nil
}

// LaunchApp starts the package's launcher activity.
func (r *Remote) LaunchApp(ctx context.Context, pkg string) error {
	_, err := r.RunShell(ctx, fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", pkg))
	return err
}

// CloseAllApps kills background apps and returns to the home screen.
func (r *Remote) CloseAllApps(ctx context.Context) error {
	if _, err := r.RunShell(ctx, "am kill-all"); err != nil {
		return err
	}
	_, err := r.RunShell(ctx, "input keyevent KEYCODE_HOME")
	return err
}
