/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/carverauto/homerelay/pkg/ble"
	"github.com/carverauto/homerelay/pkg/ble/metadata"
	"github.com/carverauto/homerelay/pkg/ble/native"
	"github.com/carverauto/homerelay/pkg/config"
	logdest "github.com/carverauto/homerelay/pkg/destinations/log"
	natsdest "github.com/carverauto/homerelay/pkg/destinations/nats"
	"github.com/carverauto/homerelay/pkg/destinations/otlp"
	"github.com/carverauto/homerelay/pkg/lifecycle"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/relay"
	"github.com/carverauto/homerelay/pkg/sources/bluetooth"
	"github.com/carverauto/homerelay/pkg/sources/constant"
	"github.com/carverauto/homerelay/pkg/sources/host"
	"github.com/carverauto/homerelay/pkg/version"
)

const defaultFilePerms = 0o644

// AdapterFactory opens the bluetooth adapter used by test-ble.
type AdapterFactory func(log logger.Logger) (ble.Adapter, error)

// App runs one parsed command line.
type App struct {
	cmd        *CmdConfig
	registry   *relay.Registry
	newAdapter AdapterFactory
	out        io.Writer
	errOut     io.Writer
	styles     logStyles
}

type AppOption func(*App)

func WithRegistry(reg *relay.Registry) AppOption {
	return func(a *App) { a.registry = reg }
}

func WithAdapterFactory(f AdapterFactory) AppOption {
	return func(a *App) { a.newAdapter = f }
}

// WithOutput sets where command output and status messages go.
func WithOutput(out, errOut io.Writer) AppOption {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

// DefaultRegistry knows every built-in source and destination.
func DefaultRegistry() *relay.Registry {
	reg := relay.NewRegistry()

	constant.Register(reg)
	bluetooth.Register(reg)
	host.Register(reg)

	logdest.Register(reg)
	natsdest.Register(reg)
	otlp.Register(reg)

	return reg
}

func NewApp(cmd *CmdConfig, opts ...AppOption) *App {
	a := &App{
		cmd:        cmd,
		registry:   DefaultRegistry(),
		newAdapter: openNativeAdapter,
		out:        os.Stdout,
		errOut:     os.Stderr,
		styles:     newLogStyles(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run executes cmd with the default wiring.
func Run(ctx context.Context, cmd *CmdConfig) error {
	return NewApp(cmd).Run(ctx)
}

func (a *App) Run(ctx context.Context) error {
	switch a.cmd.SubCmd {
	case cmdVersion:
		_, _ = fmt.Fprintln(a.out, version.GetFullVersion())

		return nil
	case cmdWriteExample:
		return a.writeExampleConfig(a.cmd.OutFile)
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}

	log, err := a.newLogger(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := lifecycle.ShutdownLogger(); err != nil {
			a.warn("Failed to shut down logger: " + err.Error())
		}
	}()

	switch a.cmd.SubCmd {
	case cmdRun:
		return a.runRelay(ctx, cfg, log)
	case cmdTestDest:
		return a.testDestinations(ctx, cfg, log)
	case cmdTestBLE:
		return a.testBLE(ctx, cfg, log)
	default:
		return fmt.Errorf("%w: %s", errUnknownSubcommand, a.cmd.SubCmd)
	}
}

// loadConfig reads the relay config. On failure an example config is written next to it
// so the user has something to start from.
func (a *App) loadConfig(ctx context.Context) (*relay.Config, error) {
	var cfg relay.Config

	err := config.NewConfig(nil).LoadAndValidate(ctx, a.cmd.ConfigFile, &cfg)
	if err == nil {
		return &cfg, nil
	}

	a.error(fmt.Sprintf("[ERROR] Could not read config %s: %v", a.cmd.ConfigFile, err))

	example := filepath.Join(filepath.Dir(a.cmd.ConfigFile), defaultExampleFile)
	if werr := a.writeExampleConfig(example); werr != nil {
		a.warn("[WARNING] Could not write example config: " + werr.Error())
	}

	return nil, fmt.Errorf("%w: %w", errConfigLoad, err)
}

func (a *App) newLogger(ctx context.Context, cfg *relay.Config) (logger.Logger, error) {
	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	if a.cmd.Verbose {
		c := *logCfg
		c.Level = zerolog.DebugLevel.String()
		c.Debug = true
		logCfg = &c
	}

	log, err := lifecycle.CreateComponentLogger(ctx, "homerelay", logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Relay and engine counters go to the same collector as the logs.
	if logCfg.OTel.Enabled && logCfg.OTel.Endpoint != "" {
		if _, err := logger.InitializeMetrics(ctx, logger.MetricsConfig{OTel: &logCfg.OTel}); err != nil {
			log.Warn().Err(err).Msg("OTel metrics export disabled")
		}
	}

	return log, nil
}

func (a *App) runRelay(ctx context.Context, cfg *relay.Config, log logger.Logger) error {
	mgr, err := relay.Build(ctx, cfg, a.registry, log)
	if err != nil {
		return err
	}

	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close destinations")
		}
	}()

	log.Info().
		Int("sources", len(mgr.Sources())).
		Int("destinations", len(mgr.Destinations())).
		Dur("interval", cfg.PollInterval.Std()).
		Str("version", version.GetVersion()).
		Msg("Relay configured")

	if a.cmd.Once {
		return mgr.RunOnce(ctx)
	}

	if err := mgr.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("Relay stopped")

	return nil
}

func (a *App) testDestinations(ctx context.Context, cfg *relay.Config, log logger.Logger) error {
	mgr, err := relay.Build(ctx, cfg, a.registry, log)
	if err != nil {
		return err
	}

	defer func() { _ = mgr.Close() }()

	if err := mgr.TestDestinations(ctx); err != nil {
		a.error("[ERROR] Destination test failed: " + err.Error())

		return err
	}

	a.success(fmt.Sprintf("[SUCCESS] %d destination(s) ok", len(mgr.Destinations())))

	return nil
}

func (a *App) writeExampleConfig(path string) error {
	cfg, err := a.registry.ExampleConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode example config: %w", err)
	}

	data = append(data, '\n')

	if path == "-" {
		_, err = a.out.Write(data)

		return err
	}

	if err := os.WriteFile(path, data, defaultFilePerms); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	a.info("[INFO] Example config written to " + path)

	return nil
}

func (a *App) info(msg string) {
	_, _ = fmt.Fprintln(a.errOut, a.styles.info.Render(msg))
}

func (a *App) success(msg string) {
	_, _ = fmt.Fprintln(a.errOut, a.styles.success.Render(msg))
}

func (a *App) warn(msg string) {
	_, _ = fmt.Fprintln(a.errOut, a.styles.warning.Render(msg))
}

func (a *App) error(msg string) {
	_, _ = fmt.Fprintln(a.errOut, a.styles.error.Render(msg))
}

func openNativeAdapter(log logger.Logger) (ble.Adapter, error) {
	adapter, err := native.New(log)
	if err != nil {
		return nil, err
	}

	return adapter, nil
}

// testBLE runs one bluetooth session against the adapter.
func (a *App) testBLE(ctx context.Context, cfg *relay.Config, log logger.Logger) error {
	db, err := metadata.Load(cfg.BLE.MetadataDir)
	if err != nil {
		return fmt.Errorf("%w: %w", errMetadataLoad, err)
	}

	adapter, err := a.newAdapter(log)
	if err != nil {
		return err
	}

	if c, ok := adapter.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close adapter")
			}
		}()
	}

	connectTimeout := cfg.BLE.ConnectTimeout.Std()
	if a.cmd.Timeout > 0 {
		connectTimeout = a.cmd.Timeout
	}

	engine := ble.NewEngine(adapter, db,
		ble.WithLogger(log),
		ble.WithOutput(a.out),
		ble.WithSettleDelay(cfg.BLE.SettleDelay.Std()),
		ble.WithConnectTimeout(connectTimeout),
		ble.WithEventBuffer(cfg.BLE.EventBuffer),
	)

	defer func() {
		if err := engine.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Bluetooth event bridge ended with an error")
		}
	}()

	// Scans are quiet unless -verbose or -address ask for event logging. Listing shows
	// every device unless narrowed to one address.
	var scanFilter ble.AddressFilter
	if a.cmd.Verbose {
		scanFilter = ble.FilterAny
	}

	listFilter := ble.FilterAny

	if a.cmd.Address != "" {
		addr, err := ble.ParseAddress(a.cmd.Address)
		if err != nil {
			return err
		}

		scanFilter = ble.FilterFor(addr)
		listFilter = scanFilter
	}

	duration := cfg.BLE.ScanDuration.Std()
	if a.cmd.Duration > 0 {
		duration = a.cmd.Duration
	}

	switch a.cmd.BLEAction {
	case bleActionScan:
		if err := engine.Scan(ctx, duration, scanFilter); err != nil {
			return err
		}

		a.info(fmt.Sprintf("[INFO] %d device(s) seen", engine.Registry().Len()))

		return nil
	case bleActionList:
		if err := engine.Scan(ctx, duration, scanFilter); err != nil {
			return err
		}

		engine.ListKnownPeripherals(listFilter)

		return nil
	case bleActionConnect:
		addr, err := ble.ParseAddress(a.cmd.Address)
		if err != nil {
			return err
		}

		return engine.ConnectAndPrintCharacteristics(ctx, addr)
	default:
		return errUnknownBLEAction
	}
}
