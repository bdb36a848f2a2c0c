package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droidseed/droidseed/pkg/configurators"
	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/policy"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
	"github.com/droidseed/droidseed/pkg/stores"
	"github.com/droidseed/droidseed/pkg/telemetry"
)

// runFlags holds the device and run options shared by apply and watch.
type runFlags struct {
	serial           string
	consolePort      int
	grpcPort         int
	adbPath          string
	emulatorSetup    bool
	allowDestructive bool
	historyDB        string
	policyPaths      []string
	seed             int64
	metricsAddr      string

	remoteHost     string
	remotePort     int
	remoteUser     string
	remotePassword string
	remoteKey      string
	remoteADBPath  string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.serial, "serial", "s", "", "device serial (emulator-<port> or a physical serial)")
	cmd.Flags().IntVar(&f.consolePort, "console-port", 5554, "emulator console port")
	cmd.Flags().IntVar(&f.grpcPort, "grpc-port", 8554, "emulator gRPC port")
	cmd.Flags().StringVar(&f.adbPath, "adb-path", "", "path to the adb binary (default: $ANDROID_HOME, then the platform SDK install)")
	cmd.Flags().BoolVar(&f.emulatorSetup, "emulator-setup", false, "close all apps before and after the run")
	cmd.Flags().BoolVar(&f.allowDestructive, "allow-destructive", false, "permit clear directives on physical devices")
	cmd.Flags().StringVar(&f.historyDB, "history-db", "", "SQLite file for run history (disabled when empty)")
	cmd.Flags().StringArrayVar(&f.policyPaths, "policy", nil, "extra policy file or directory (repeatable)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "seed for random content generation (0 = time-based)")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-listen", "", "serve Prometheus metrics on this address")

	cmd.Flags().StringVar(&f.remoteHost, "remote-host", "", "run adb on a remote lab host over SSH")
	cmd.Flags().IntVar(&f.remotePort, "remote-port", 22, "SSH port of the remote lab host")
	cmd.Flags().StringVar(&f.remoteUser, "remote-user", "", "SSH user for the remote lab host")
	cmd.Flags().StringVar(&f.remotePassword, "remote-password", "", "SSH password for the remote lab host")
	cmd.Flags().StringVar(&f.remoteKey, "remote-key", "", "SSH private key file for the remote lab host")
	cmd.Flags().StringVar(&f.remoteADBPath, "remote-adb-path", "", "adb binary path on the remote lab host")
}

func (f *runFlags) options() spec.Options {
	serial := f.serial
	if serial == "" {
		serial = fmt.Sprintf("emulator-%d", f.consolePort)
	}
	return spec.Options{
		ConsolePort:      f.consolePort,
		GRPCPort:         f.grpcPort,
		DeviceSerial:     serial,
		ADBPath:          f.adbPath,
		EmulatorSetup:    f.emulatorSetup,
		AllowDestructive: f.allowDestructive,
	}
}

// runtime bundles the engine with the resources that need closing when the
// command finishes.
type runtime struct {
	engine *engine.Engine
	tel    *telemetry.Telemetry
	store  *stores.SQLiteStore
	remote *device.Remote
}

func (r *runtime) close(ctx context.Context) {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.remote != nil {
		_ = r.remote.Close()
	}
	if r.tel != nil {
		_ = r.tel.Shutdown(ctx)
	}
}

// buildRuntime wires the device controller, policy gate, history store, and
// telemetry into an engine.
func buildRuntime(ctx context.Context, f *runFlags) (*runtime, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if jsonOutput {
		cfg.Logging.Format = "json"
	}
	if f.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = f.metricsAddr
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	rt := &runtime{tel: tel}

	if f.metricsAddr != "" {
		if err := tel.StartMetricsServer(); err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	opts := f.options()
	dev, remote, err := buildController(ctx, f, opts)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	rt.remote = remote

	gate, err := policy.NewGate(tel.Logger)
	if err != nil {
		rt.close(ctx)
		return nil, fmt.Errorf("failed to build policy gate: %w", err)
	}
	if len(f.policyPaths) > 0 {
		if err := gate.LoadPolicies(ctx, f.policyPaths); err != nil {
			rt.close(ctx)
			return nil, err
		}
	}

	engineCfg := engine.Config{
		Registry:  configurators.Default(sampleProvider(f.seed)),
		Device:    dev,
		Telemetry: tel,
		Policy:    gate,
	}

	if f.historyDB != "" {
		store, err := stores.NewSQLiteStore(stores.Config{Path: f.historyDB})
		if err != nil {
			rt.close(ctx)
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			rt.close(ctx)
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			rt.close(ctx)
			return nil, fmt.Errorf("failed to migrate history database: %w", err)
		}
		rt.store = store
		engineCfg.History = store
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		rt.close(ctx)
		return nil, err
	}
	rt.engine = eng

	return rt, nil
}

// buildController selects the local adb controller or a remote lab host.
func buildController(ctx context.Context, f *runFlags, opts spec.Options) (device.Controller, *device.Remote, error) {
	if f.remoteHost == "" {
		adbPath := f.adbPath
		if adbPath == "" {
			adbPath = device.DefaultADBPath()
		}
		return device.NewADB(adbPath, opts.DeviceSerial), nil, nil
	}

	remote, err := device.NewRemote(&device.RemoteConfig{
		Host:           f.remoteHost,
		Port:           f.remotePort,
		User:           f.remoteUser,
		Password:       f.remotePassword,
		PrivateKeyPath: f.remoteKey,
		ADBPath:        f.remoteADBPath,
		Serial:         opts.DeviceSerial,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid remote configuration: %w", err)
	}
	if err := remote.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", f.remoteHost, err)
	}
	return remote, remote, nil
}

func sampleProvider(seed int64) *sample.Provider {
	if seed != 0 {
		return sample.New(seed)
	}
	return sample.NewTimeSeeded()
}
