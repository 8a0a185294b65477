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

// Package host reports CPU, memory, load and uptime of the machine the relay runs on.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

const (
	Type = "host"

	PropertyCPUPercent    = "cpu_percent"
	PropertyMemoryPercent = "mem_used_percent"
	PropertyLoad1         = "load1"
	PropertyUptime        = "uptime_seconds"
)

var errNoReadings = errors.New("no host readings available")

type Config struct {
	// Object defaults to the hostname.
	Object string `json:"object,omitempty"`
	// CPUSample is the window cpu_percent is measured over; zero compares with the
	// previous call.
	CPUSample models.Duration `json:"cpu_sample,omitempty"`
}

func Example() Config {
	return Config{Object: "relay-host", CPUSample: models.Duration(time.Second)}
}

// collectors are swapped in tests.
type collectors struct {
	cpuPercent func(context.Context, time.Duration, bool) ([]float64, error)
	memory     func(context.Context) (*mem.VirtualMemoryStat, error)
	loadAvg    func(context.Context) (*load.AvgStat, error)
	uptime     func(context.Context) (uint64, error)
}

func defaultCollectors() collectors {
	return collectors{
		cpuPercent: cpu.PercentWithContext,
		memory:     mem.VirtualMemoryWithContext,
		loadAvg:    load.AvgWithContext,
		uptime:     host.UptimeWithContext,
	}
}

type Source struct {
	object  string
	sample  time.Duration
	collect collectors
	clock   clock.Clock
	logger  logger.Logger
}

// New implements relay.SourceCreator.
func New(_ context.Context, raw json.RawMessage, log logger.Logger) (relay.Source, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid host source config: %w", err)
	}

	if cfg.Object == "" {
		name, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("host source needs an object: %w", err)
		}

		cfg.Object = name
	}

	return &Source{
		object:  cfg.Object,
		sample:  cfg.CPUSample.Std(),
		collect: defaultCollectors(),
		clock:   clock.Real(),
		logger:  log,
	}, nil
}

func (s *Source) Name() string {
	return "host " + s.object
}

// Poll reports whatever the platform supports. A single failing collector is logged and
// skipped; it is an error only when nothing could be read.
func (s *Source) Poll(ctx context.Context) ([]models.Metric, error) {
	now := s.clock.Now()
	metrics := make([]models.Metric, 0, 4)

	add := func(property string, value float64) {
		metrics = append(metrics, models.Metric{
			Object:    s.object,
			Property:  property,
			Value:     strconv.FormatFloat(value, 'f', 2, 64),
			Timestamp: now,
		})
	}

	var errs []error

	if percent, err := s.collect.cpuPercent(ctx, s.sample, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(percent) > 0 {
		add(PropertyCPUPercent, percent[0])
	}

	if vm, err := s.collect.memory(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		add(PropertyMemoryPercent, vm.UsedPercent)
	}

	if avg, err := s.collect.loadAvg(ctx); err != nil {
		errs = append(errs, fmt.Errorf("load: %w", err))
	} else {
		add(PropertyLoad1, avg.Load1)
	}

	if up, err := s.collect.uptime(ctx); err != nil {
		errs = append(errs, fmt.Errorf("uptime: %w", err))
	} else {
		metrics = append(metrics, models.Metric{
			Object:    s.object,
			Property:  PropertyUptime,
			Value:     strconv.FormatUint(up, 10),
			Timestamp: now,
		})
	}

	if len(metrics) == 0 {
		return nil, errors.Join(append([]error{errNoReadings}, errs...)...)
	}

	for _, err := range errs {
		s.logger.Warn().Err(err).Str("source", s.Name()).Msg("Host collector failed")
	}

	return metrics, nil
}

func Register(reg *relay.Registry) {
	reg.RegisterSource(Type, New, Example())
}
