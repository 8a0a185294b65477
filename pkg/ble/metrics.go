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

package ble

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName                = "homerelay.ble"
	metricEventsTotal        = "homerelay.ble.events_total"
	metricDevicesDiscovered  = "homerelay.ble.devices_discovered_total"
	metricConnectAttempts    = "homerelay.ble.connect_attempts_total"
	connectOutcomeRequested  = "requested"
	connectOutcomeFailed     = "failed"
	connectOutcomeConnected  = "connected"
	connectOutcomeNotFound   = "not_found"
	connectOutcomeTimeout    = "timeout"
	connectOutcomeUnresolved = "peripheral_unknown"
)

// engineMetrics holds the engine's instruments. A nil instrument is skipped.
type engineMetrics struct {
	events   metric.Int64Counter
	devices  metric.Int64Counter
	connects metric.Int64Counter
}

func newEngineMetrics(mp metric.MeterProvider) *engineMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(meterName)
	m := &engineMetrics{}

	var err error

	m.events, err = meter.Int64Counter(
		metricEventsTotal,
		metric.WithDescription("Adapter events handled by the scan/connect engine"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.devices, err = meter.Int64Counter(
		metricDevicesDiscovered,
		metric.WithDescription("Distinct devices added to the registry"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.connects, err = meter.Int64Counter(
		metricConnectAttempts,
		metric.WithDescription("Connect flow outcomes"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return m
}

func (m *engineMetrics) recordEvent(ctx context.Context, ev Event) {
	if m.events == nil {
		return
	}

	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", ev.Kind())))
}

func (m *engineMetrics) recordDiscovered(ctx context.Context) {
	if m.devices == nil {
		return
	}

	m.devices.Add(ctx, 1)
}

func (m *engineMetrics) recordConnect(ctx context.Context, outcome string) {
	if m.connects == nil {
		return
	}

	m.connects.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
