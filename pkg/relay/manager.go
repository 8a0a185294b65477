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

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
)

// Manager owns the configured sources and destinations and runs poll cycles.
type Manager struct {
	sources      []Source
	destinations []Destination
	interval     time.Duration
	clock        clock.Clock
	logger       logger.Logger
	metrics      *managerMetrics
	meter        metric.MeterProvider

	// mu orders the stopped check in Start against Stop, so running.Add never races Wait.
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
	running sync.WaitGroup
}

type ManagerOption func(*Manager)

func WithManagerClock(c clock.Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

func WithManagerMeterProvider(mp metric.MeterProvider) ManagerOption {
	return func(m *Manager) { m.meter = mp }
}

// NewManager wires already-built plugins. interval is the Start period.
func NewManager(sources []Source, destinations []Destination, interval time.Duration, log logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		sources:      sources,
		destinations: destinations,
		interval:     interval,
		clock:        clock.Real(),
		logger:       log,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.metrics = newManagerMetrics(m.meter)

	return m
}

// Build creates every plugin named in cfg through reg. On failure, destinations built so
// far are closed.
func Build(ctx context.Context, cfg *Config, reg *Registry, log logger.Logger, opts ...ManagerOption) (*Manager, error) {
	destinations := make([]Destination, 0, len(cfg.Destinations))

	for i, pc := range cfg.Destinations {
		d, err := reg.NewDestination(ctx, pc, log)
		if err != nil {
			_ = closeAll(destinations, log)
			return nil, fmt.Errorf("destinations[%d] (%s): %w", i, pc.Type, err)
		}

		log.Info().Str("destination", d.Name()).Msg("Initializing destination")

		destinations = append(destinations, d)
	}

	sources := make([]Source, 0, len(cfg.Sources))

	for i, pc := range cfg.Sources {
		s, err := reg.NewSource(ctx, pc, log)
		if err != nil {
			_ = closeAll(destinations, log)
			return nil, fmt.Errorf("sources[%d] (%s): %w", i, pc.Type, err)
		}

		sources = append(sources, s)
	}

	return NewManager(sources, destinations, cfg.PollInterval.Std(), log, opts...), nil
}

func (m *Manager) Sources() []Source { return m.sources }

func (m *Manager) Destinations() []Destination { return m.destinations }

// RunOnce polls every source in order and reports each batch to all destinations
// concurrently. A failing source or destination is logged and does not stop the cycle;
// the first such error is returned.
func (m *Manager) RunOnce(ctx context.Context) error {
	start := m.clock.Now()
	defer func() { m.metrics.recordCycle(ctx, m.clock.Now().Sub(start)) }()

	m.logger.Debug().Int("sources", len(m.sources)).Msg("Running metric manager")

	var firstErr error

	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.logger.Debug().Str("source", src.Name()).Msg("Checking source")

		metrics, err := src.Poll(ctx)
		m.metrics.recordPoll(ctx, src.Name(), err)

		if err != nil {
			m.logger.Error().Err(err).Str("source", src.Name()).Msg("Source poll failed")

			if firstErr == nil {
				firstErr = fmt.Errorf("source %s: %w", src.Name(), err)
			}

			continue
		}

		if len(metrics) == 0 {
			continue
		}

		var g errgroup.Group

		for _, dst := range m.destinations {
			g.Go(func() error {
				err := dst.Report(ctx, metrics)
				m.metrics.recordReport(ctx, dst.Name(), err)

				if err != nil {
					m.logger.Error().
						Err(err).
						Str("source", src.Name()).
						Str("destination", dst.Name()).
						Msg("Report failed")

					return fmt.Errorf("destination %s: %w", dst.Name(), err)
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Start runs a cycle immediately and then once per interval until ctx is done or Stop is
// called. Ticks that fire while a cycle is running are dropped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()

		return errManagerStopped
	}

	m.running.Add(1)
	m.mu.Unlock()

	defer m.running.Done()

	ticker := m.clock.Ticker(m.interval)
	defer ticker.Stop()

	m.logger.Info().Dur("interval", m.interval).Msg("Starting relay")

	if err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn().Err(err).Msg("Initial cycle completed with errors")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-ticker.Chan():
			if err := m.RunOnce(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn().Err(err).Msg("Cycle completed with errors")
			}
		}
	}
}

// Stop ends Start and waits for the running cycle to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.stopped {
		m.stopped = true
		close(m.done)
	}
	m.mu.Unlock()

	m.running.Wait()
}

// TestDestinations runs Test on every destination, continuing past failures.
func (m *Manager) TestDestinations(ctx context.Context) error {
	var errs []error

	for _, dst := range m.destinations {
		m.logger.Info().Str("destination", dst.Name()).Msg("Testing destination")

		if err := dst.Test(ctx); err != nil {
			m.logger.Error().Err(err).Str("destination", dst.Name()).Msg("Destination test failed")
			errs = append(errs, fmt.Errorf("destination %s: %w", dst.Name(), err))

			continue
		}

		m.logger.Info().Str("destination", dst.Name()).Msg("Destination test passed")
	}

	return errors.Join(errs...)
}

// Close stops the manager and releases every destination.
func (m *Manager) Close() error {
	m.Stop()

	return closeAll(m.destinations, m.logger)
}

func closeAll(destinations []Destination, log logger.Logger) error {
	var errs []error

	for _, d := range destinations {
		if err := d.Close(); err != nil {
			log.Warn().Err(err).Str("destination", d.Name()).Msg("Failed to close destination")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
