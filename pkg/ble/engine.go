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

// Package ble discovers nearby Bluetooth LE devices, connects to them and prints what they
// expose. The Engine multiplexes the adapter's event stream, a scan timer and the caller's
// context into one sequential control loop.
package ble

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/homerelay/pkg/ble/metadata"
	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
)

// DefaultSettleDelay is the wait between discovering a target and asking the adapter to
// connect to it. Connecting earlier races the adapter's own bookkeeping for the device on
// some platforms. It is a heuristic, not a readiness guarantee.
const DefaultSettleDelay = 2 * time.Second

// Engine runs scan and connect sessions against one adapter.
type Engine struct {
	adapter  Adapter
	db       *metadata.Database
	registry *Registry
	bridge   *Bridge
	metrics  *engineMetrics

	clock          clock.Clock
	out            io.Writer
	logger         logger.Logger
	meterProvider  metric.MeterProvider
	settleDelay    time.Duration
	connectTimeout time.Duration
	eventBuffer    int
}

type Option func(*Engine)

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithOutput sets where device listings and characteristic values are printed.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) { e.settleDelay = d }
}

// WithConnectTimeout bounds Connect independently of ctx. Zero means no bound.
func WithConnectTimeout(d time.Duration) Option {
	return func(e *Engine) { e.connectTimeout = d }
}

func WithEventBuffer(n int) Option {
	return func(e *Engine) { e.eventBuffer = n }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}

// NewEngine wires the registry and starts the event bridge on the adapter's event stream.
// Call Shutdown to stop it.
func NewEngine(adapter Adapter, db *metadata.Database, opts ...Option) *Engine {
	e := &Engine{
		adapter:     adapter,
		db:          db,
		clock:       clock.Real(),
		out:         os.Stdout,
		settleDelay: DefaultSettleDelay,
		eventBuffer: DefaultEventBuffer,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.Nop()
	}

	e.metrics = newEngineMetrics(e.meterProvider)
	e.registry = NewRegistry(e.clock, e.logger)
	e.registry.OnDiscovered = func(*KnownDevice) {
		e.metrics.recordDiscovered(context.Background())
	}
	e.bridge = NewBridge(context.Background(), adapter, e.eventBuffer, e.logger)

	return e
}

// Registry returns the session's device registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Scan listens for adapter events until duration elapses or ctx is done. Neither is an
// error. Events matching filter are logged; the registry sees every event.
func (e *Engine) Scan(ctx context.Context, duration time.Duration, filter AddressFilter) error {
	e.logger.Trace().Dur("duration", duration).Msg("Doing scan")

	if err := e.adapter.StartScan(ctx); err != nil {
		return fmt.Errorf("failed to start scan: %w", err)
	}

	timer := e.clock.After(duration)

	for {
		select {
		case <-timer:
			e.logger.Trace().Msg("Finished waiting")

			return nil
		case <-ctx.Done():
			e.logger.Trace().Msg("Aborting scan: cancelled")

			return nil
		case ev, ok := <-e.bridge.Events():
			if !ok {
				return ErrEventStreamClosed
			}

			e.HandleEvent(ctx, ev, filter)
		}
	}
}

// HandleEvent applies one event. Discovery and manufacturer data always update the
// registry; the filter only decides what gets logged.
func (e *Engine) HandleEvent(ctx context.Context, ev Event, filter AddressFilter) {
	e.metrics.recordEvent(ctx, ev)

	switch ev := ev.(type) {
	case DeviceDiscovered:
		e.registry.Observe(ev.Address)
	case DeviceConnected:
		if filter.Matches(ev.Address) {
			e.logger.Info().Str("address", ev.Address.String()).Msg("DeviceConnected")
		}
	case DeviceDisconnected:
		if filter.Matches(ev.Address) {
			e.logger.Info().Str("address", ev.Address.String()).Msg("DeviceDisconnected")
		}
	case DeviceUpdated:
		if filter.Matches(ev.Address) {
			e.logger.Info().Str("address", ev.Address.String()).Msg("DeviceUpdated")
		}
	case ManufacturerDataAdvertisement:
		if filter.Matches(ev.Address) {
			e.logger.Info().
				Str("address", ev.Address.String()).
				Uint16("company_id", ev.CompanyID).
				Str("company", e.db.CompanyName(ev.CompanyID)).
				Str("data", HexBytes(ev.Data)).
				Msg("ManufacturerDataAdvertisement")
		}

		e.registry.Observe(ev.Address)
	case ServiceDataAdvertisement:
		if filter.Matches(ev.Address) {
			e.logger.Info().
				Str("address", ev.Address.String()).
				Str("service", ev.Service.String()).
				Str("data", HexBytes(ev.Data)).
				Msg("ServiceDataAdvertisement")
		}
	case ServicesAdvertisement:
		if filter.Matches(ev.Address) {
			services := make([]string, len(ev.Services))
			for i, s := range ev.Services {
				services[i] = s.String()
			}

			e.logger.Info().
				Str("address", ev.Address.String()).
				Strs("services", services).
				Msg("ServicesAdvertisement")
		}
	case OtherEvent:
		e.logger.Trace().Str("description", ev.Description).Msg("Event received")
	default:
		e.logger.Trace().Str("kind", ev.Kind()).Msg("Unhandled event")
	}
}

// Connect scans until target reports DeviceConnected and returns its peripheral. When ctx
// is done, or the connect timeout elapses, it lists the known peripherals matching target
// and returns ErrDeviceNotFound or ErrConnectTimeout.
func (e *Engine) Connect(ctx context.Context, target DeviceAddress) (Peripheral, error) {
	filter := FilterFor(target)

	e.logger.Trace().Str("address", target.String()).Msg("Looking for device")

	if err := e.adapter.StartScan(ctx); err != nil {
		return nil, fmt.Errorf("failed to start scan: %w", err)
	}

	var timeout <-chan time.Time
	if e.connectTimeout > 0 {
		timeout = e.clock.After(e.connectTimeout)
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Trace().Msg("Aborting connect: cancelled")
			e.ListKnownPeripherals(filter)
			e.metrics.recordConnect(context.Background(), connectOutcomeNotFound)

			return nil, ErrDeviceNotFound
		case <-timeout:
			e.logger.Warn().
				Str("address", target.String()).
				Dur("timeout", e.connectTimeout).
				Msg("Gave up waiting for device")
			e.ListKnownPeripherals(filter)
			e.metrics.recordConnect(ctx, connectOutcomeTimeout)

			return nil, ErrConnectTimeout
		case ev, ok := <-e.bridge.Events():
			if !ok {
				return nil, ErrEventStreamClosed
			}

			e.HandleEvent(ctx, ev, filter)

			if p, done := e.advanceConnect(ctx, ev, filter); done {
				e.metrics.recordConnect(ctx, connectOutcomeConnected)

				return p, nil
			}
		}
	}
}

// advanceConnect moves the connect state machine for one event. It reports true once the
// target peripheral is connected.
func (e *Engine) advanceConnect(ctx context.Context, ev Event, filter AddressFilter) (Peripheral, bool) {
	switch ev := ev.(type) {
	case DeviceDiscovered:
		if filter.Matches(ev.Address) {
			e.requestConnect(ctx, ev.Address)
		}
	case DeviceConnected:
		if !filter.Matches(ev.Address) {
			return nil, false
		}

		e.printf("******* Connected to %s, fetching characteristics\n", ev.Address)

		p, ok := e.adapter.Peripheral(ev.Address)
		if !ok {
			e.logger.Error().
				Str("address", ev.Address.String()).
				Err(ErrPeripheralUnknown).
				Msg("Connected device is missing from the adapter cache")

			return nil, false
		}

		return p, true
	case DeviceUpdated:
		if filter.Matches(ev.Address) {
			e.printf("******* Updated %s\n", ev.Address)
		}
	default:
	}

	return nil, false
}

// requestConnect waits the settle delay and issues the connect request. Failures are
// logged; the caller keeps waiting for DeviceConnected.
func (e *Engine) requestConnect(ctx context.Context, addr DeviceAddress) {
	e.printf("******* Found %s, waiting before connecting!\n", addr)

	if !e.sleep(ctx, e.settleDelay) {
		return
	}

	p, ok := e.adapter.Peripheral(addr)
	if !ok {
		e.printf("Unable to start connection %v\n", ErrPeripheralUnknown)
		e.logger.Warn().Str("address", addr.String()).Err(ErrPeripheralUnknown).Msg("Connect request failed")
		e.metrics.recordConnect(ctx, connectOutcomeUnresolved)

		return
	}

	e.printf("******* Connecting to %s !\n", addr)

	if err := p.Connect(ctx); err != nil {
		e.printf("Unable to start connection %v\n", err)
		e.logger.Warn().Str("address", addr.String()).Err(err).Msg("Connect request failed")
		e.metrics.recordConnect(ctx, connectOutcomeFailed)

		return
	}

	e.metrics.recordConnect(ctx, connectOutcomeRequested)
}

// sleep waits d on the engine clock. It returns false if ctx ended first.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-e.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// ConnectAndPrintCharacteristics connects to target, prints it and reads every
// characteristic it exposes.
func (e *Engine) ConnectAndPrintCharacteristics(ctx context.Context, target DeviceAddress) error {
	p, err := e.Connect(ctx, target)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) || errors.Is(err, ErrConnectTimeout) {
			e.printf("Unable to find device\n")
		}

		return err
	}

	e.printf("Connected to:\n")
	e.PrintPeripheral(p)

	e.printf("Characteristics:\n")

	chars, err := p.DiscoverCharacteristics(ctx)
	if err != nil {
		return fmt.Errorf("failed to discover characteristics of %s: %w", p.Address(), err)
	}

	for _, c := range chars {
		e.ReadAndPrintCharacteristic(ctx, c, p)
	}

	return nil
}

// Shutdown stops scanning and joins the event bridge worker.
func (e *Engine) Shutdown() error {
	e.logger.Trace().Msg("Terminating bluetooth")

	if err := e.adapter.StopScan(); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to stop scan")
	}

	e.bridge.Stop()

	return e.bridge.Wait()
}

func (e *Engine) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}
