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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName          = "homerelay.relay"
	metricPollsTotal   = "homerelay.relay.polls_total"
	metricReportsTotal = "homerelay.relay.reports_total"
	metricCycleSeconds = "homerelay.relay.cycle_duration_seconds"
	outcomeOK          = "ok"
	outcomeError       = "error"
)

type managerMetrics struct {
	polls   metric.Int64Counter
	reports metric.Int64Counter
	cycle   metric.Float64Histogram
}

func newManagerMetrics(mp metric.MeterProvider) *managerMetrics {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(meterName)
	m := &managerMetrics{}

	var err error

	m.polls, err = meter.Int64Counter(
		metricPollsTotal,
		metric.WithDescription("Source polls by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.reports, err = meter.Int64Counter(
		metricReportsTotal,
		metric.WithDescription("Destination reports by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}

	m.cycle, err = meter.Float64Histogram(
		metricCycleSeconds,
		metric.WithDescription("Wall time of one poll and report cycle"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return m
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}

	return outcomeOK
}

func (m *managerMetrics) recordPoll(ctx context.Context, source string, err error) {
	if m.polls == nil {
		return
	}

	m.polls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome(err)),
	))
}

func (m *managerMetrics) recordReport(ctx context.Context, destination string, err error) {
	if m.reports == nil {
		return
	}

	m.reports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("destination", destination),
		attribute.String("outcome", outcome(err)),
	))
}

func (m *managerMetrics) recordCycle(ctx context.Context, d time.Duration) {
	if m.cycle == nil {
		return
	}

	m.cycle.Record(ctx, d.Seconds())
}
