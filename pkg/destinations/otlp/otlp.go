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

// Package otlp is a destination that turns readings into OpenTelemetry gauge samples and
// pushes them to an OTLP/gRPC collector.
package otlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

const (
	Type = "otlp"

	defaultNamespace = "homerelay"
	meterName        = "github.com/carverauto/homerelay/destinations/otlp"
	shutdownTimeout  = 10 * time.Second
	testProperty     = "relay_test"
)

var errEndpointRequired = errors.New("otlp destination needs an endpoint")

type Config struct {
	Endpoint       string            `json:"endpoint"`
	Namespace      string            `json:"namespace,omitempty"`
	ServiceName    string            `json:"service_name,omitempty"`
	Insecure       bool              `json:"insecure,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	ExportInterval models.Duration   `json:"export_interval,omitempty"`
	TLS            *logger.TLSConfig `json:"tls,omitempty"`
}

func Example() Config {
	return Config{
		Endpoint:       "localhost:4317",
		Namespace:      defaultNamespace,
		Insecure:       true,
		ExportInterval: models.Duration(15 * time.Second),
	}
}

type Destination struct {
	namespace string
	provider  *sdkmetric.MeterProvider
	meter     metric.Meter
	logger    logger.Logger

	mu     sync.Mutex
	gauges map[string]metric.Float64Gauge
}

// New implements relay.DestinationCreator. The exporter connects lazily, so a missing
// collector shows up on the first export rather than here.
func New(ctx context.Context, raw json.RawMessage, log logger.Logger) (relay.Destination, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid otlp destination config: %w", err)
	}

	if cfg.Endpoint == "" {
		return nil, errEndpointRequired
	}

	provider, err := logger.NewMeterProvider(ctx, logger.MetricsConfig{
		ServiceName: cfg.ServiceName,
		OTel: &logger.OTelConfig{
			Enabled:  true,
			Endpoint: cfg.Endpoint,
			Headers:  cfg.Headers,
			Insecure: cfg.Insecure,
			TLS:      cfg.TLS,
		},
		ExportInterval: cfg.ExportInterval.Std(),
	})
	if err != nil {
		return nil, err
	}

	return newDestination(cfg, provider, log), nil
}

func newDestination(cfg Config, provider *sdkmetric.MeterProvider, log logger.Logger) *Destination {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	return &Destination{
		namespace: namespace,
		provider:  provider,
		meter:     provider.Meter(meterName),
		logger:    log,
		gauges:    make(map[string]metric.Float64Gauge),
	}
}

func (d *Destination) Name() string {
	return "otlp " + d.namespace
}

// Report records one gauge sample per numeric metric. Values that do not parse as numbers
// are skipped.
func (d *Destination) Report(ctx context.Context, metrics []models.Metric) error {
	for _, m := range metrics {
		value, err := strconv.ParseFloat(strings.TrimSpace(m.Value), 64)
		if err != nil {
			d.logger.Warn().
				Str("object", m.Object).
				Str("property", m.Property).
				Str("value", m.Value).
				Msg("Skipping non-numeric metric")

			continue
		}

		gauge, err := d.gauge(m.Property)
		if err != nil {
			return err
		}

		gauge.Record(ctx, value, metric.WithAttributes(attribute.String("object", m.Object)))
	}

	return nil
}

func (d *Destination) gauge(property string) (metric.Float64Gauge, error) {
	name := instrumentName(d.namespace, property)

	d.mu.Lock()
	defer d.mu.Unlock()

	if g, ok := d.gauges[name]; ok {
		return g, nil
	}

	g, err := d.meter.Float64Gauge(name, metric.WithDescription("Relayed reading of "+property))
	if err != nil {
		return nil, fmt.Errorf("failed to create gauge %s: %w", name, err)
	}

	d.gauges[name] = g

	return g, nil
}

// Test records a single sample and flushes it to the collector.
func (d *Destination) Test(ctx context.Context) error {
	if err := d.Report(ctx, []models.Metric{{
		Object:   defaultNamespace,
		Property: testProperty,
		Value:    "1",
	}}); err != nil {
		return err
	}

	if err := d.provider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("otlp flush failed: %w", err)
	}

	d.logger.Info().Str("destination", d.Name()).Msg("OTLP export ok")

	return nil
}

func (d *Destination) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return d.provider.Shutdown(ctx)
}

// instrumentName keeps the characters OpenTelemetry allows in instrument names and
// replaces the rest with '_'.
func instrumentName(namespace, property string) string {
	var b strings.Builder

	b.Grow(len(namespace) + len(property) + 1)
	b.WriteString(namespace)
	b.WriteByte('.')

	for _, r := range property {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-', r == '/':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

func Register(reg *relay.Registry) {
	reg.RegisterDestination(Type, New, Example())
}
