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
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

var (
	errSensorOffline = errors.New("sensor offline")
	errBrokerDown    = errors.New("broker down")
)

func reading(object, property, value string) models.Metric {
	return models.Metric{Object: object, Property: property, Value: value}
}

func newSource(ctrl *gomock.Controller, name string) *MockSource {
	s := NewMockSource(ctrl)
	s.EXPECT().Name().Return(name).AnyTimes()

	return s
}

func newDestination(ctrl *gomock.Controller, name string) *MockDestination {
	d := NewMockDestination(ctrl)
	d.EXPECT().Name().Return(name).AnyTimes()

	return d
}

func TestRunOnceFansOutEverySource(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	kitchen := []models.Metric{reading("Kitchen", "Temperature", "21.5")}
	host := []models.Metric{reading("host", "cpu_percent", "12"), reading("host", "mem_used_percent", "40")}

	s1 := newSource(ctrl, "kitchen")
	s2 := newSource(ctrl, "host")
	d1 := newDestination(ctrl, "log")
	d2 := newDestination(ctrl, "nats")

	gomock.InOrder(
		s1.EXPECT().Poll(gomock.Any()).Return(kitchen, nil),
		s2.EXPECT().Poll(gomock.Any()).Return(host, nil),
	)

	d1.EXPECT().Report(gomock.Any(), kitchen).Return(nil)
	d2.EXPECT().Report(gomock.Any(), kitchen).Return(nil)
	d1.EXPECT().Report(gomock.Any(), host).Return(nil)
	d2.EXPECT().Report(gomock.Any(), host).Return(nil)

	m := NewManager([]Source{s1, s2}, []Destination{d1, d2}, time.Minute, logger.NewTestLogger())
	require.NoError(t, m.RunOnce(ctx))
}

func TestRunOnceFailingDestinationDoesNotStopOthers(t *testing.T) {
	ctrl := gomock.NewController(t)

	batch := []models.Metric{reading("Garage", "Humidity", "55")}

	src := newSource(ctrl, "garage")
	bad := newDestination(ctrl, "nats")
	good := newDestination(ctrl, "log")

	src.EXPECT().Poll(gomock.Any()).Return(batch, nil).Times(2)
	bad.EXPECT().Report(gomock.Any(), batch).Return(errBrokerDown).Times(2)
	good.EXPECT().Report(gomock.Any(), batch).Return(nil).Times(2)

	m := NewManager([]Source{src, src}, []Destination{bad, good}, time.Minute, logger.NewTestLogger())

	err := m.RunOnce(context.Background())
	require.ErrorIs(t, err, errBrokerDown)
	assert.Contains(t, err.Error(), "destination nats")
}

func TestRunOnceFailingSourceContinues(t *testing.T) {
	ctrl := gomock.NewController(t)

	batch := []models.Metric{reading("Porch", "Light", "300")}

	broken := newSource(ctrl, "ble")
	ok := newSource(ctrl, "porch")
	empty := newSource(ctrl, "idle")
	dst := newDestination(ctrl, "log")

	broken.EXPECT().Poll(gomock.Any()).Return(nil, errSensorOffline)
	ok.EXPECT().Poll(gomock.Any()).Return(batch, nil)
	empty.EXPECT().Poll(gomock.Any()).Return(nil, nil)
	dst.EXPECT().Report(gomock.Any(), batch).Return(nil)

	m := NewManager([]Source{broken, ok, empty}, []Destination{dst}, time.Minute, logger.NewTestLogger())

	err := m.RunOnce(context.Background())
	require.ErrorIs(t, err, errSensorOffline)
}

func TestRunOnceCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager([]Source{newSource(ctrl, "never")}, nil, time.Minute, logger.NewTestLogger())
	require.ErrorIs(t, m.RunOnce(ctx), context.Canceled)
}

func TestStartPollsOnEachTick(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockClock := clock.NewMockClock(ctrl)
	ticker := clock.NewMockTicker(ctrl)
	ticks := make(chan time.Time)

	mockClock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()
	mockClock.EXPECT().Ticker(30 * time.Second).Return(ticker)
	ticker.EXPECT().Chan().Return(ticks).AnyTimes()
	ticker.EXPECT().Stop()

	polled := make(chan struct{}, 3)
	src := newSource(ctrl, "constant")
	src.EXPECT().Poll(gomock.Any()).DoAndReturn(func(context.Context) ([]models.Metric, error) {
		polled <- struct{}{}
		return nil, nil
	}).Times(3)

	m := NewManager([]Source{src}, nil, 30*time.Second, logger.NewTestLogger(), WithManagerClock(mockClock))

	errCh := make(chan error, 1)

	go func() { errCh <- m.Start(context.Background()) }()

	<-polled
	ticks <- time.Unix(30, 0)
	<-polled
	ticks <- time.Unix(60, 0)
	<-polled

	m.Stop()
	require.NoError(t, <-errCh)

	require.ErrorIs(t, m.Start(context.Background()), errManagerStopped)
}

func TestStartReturnsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)

	src := newSource(ctrl, "constant")
	src.EXPECT().Poll(gomock.Any()).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager([]Source{src}, nil, time.Hour, logger.NewTestLogger())

	errCh := make(chan error, 1)

	go func() { errCh <- m.Start(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestStopRacingStart(t *testing.T) {
	ctrl := gomock.NewController(t)

	src := newSource(ctrl, "constant")
	src.EXPECT().Poll(gomock.Any()).Return(nil, nil).AnyTimes()

	for range 50 {
		m := NewManager([]Source{src}, nil, time.Hour, logger.NewTestLogger())

		errCh := make(chan error, 1)

		go func() { errCh <- m.Start(context.Background()) }()

		m.Stop()

		select {
		case err := <-errCh:
			if err != nil {
				require.ErrorIs(t, err, errManagerStopped)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Start outlived Stop")
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	m := NewManager(nil, nil, time.Hour, logger.NewTestLogger())

	m.Stop()
	m.Stop()

	require.ErrorIs(t, m.Start(context.Background()), errManagerStopped)
}

func TestTestDestinationsRunsAll(t *testing.T) {
	ctrl := gomock.NewController(t)

	d1 := newDestination(ctrl, "nats")
	d2 := newDestination(ctrl, "log")

	d1.EXPECT().Test(gomock.Any()).Return(errBrokerDown)
	d2.EXPECT().Test(gomock.Any()).Return(nil)

	m := NewManager(nil, []Destination{d1, d2}, time.Minute, logger.NewTestLogger())
	require.ErrorIs(t, m.TestDestinations(context.Background()), errBrokerDown)
}

func TestCloseClosesDestinations(t *testing.T) {
	ctrl := gomock.NewController(t)

	d1 := newDestination(ctrl, "nats")
	d2 := newDestination(ctrl, "otlp")

	d1.EXPECT().Close().Return(errBrokerDown)
	d2.EXPECT().Close().Return(nil)

	m := NewManager(nil, []Destination{d1, d2}, time.Minute, logger.NewTestLogger())
	require.ErrorIs(t, m.Close(), errBrokerDown)
}

func TestBuildClosesOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	built := newDestination(ctrl, "log")
	built.EXPECT().Close().Return(nil)

	reg := NewRegistry()
	reg.RegisterDestination("log", func(context.Context, json.RawMessage, logger.Logger) (Destination, error) {
		return built, nil
	}, nil)

	cfg := &Config{
		Destinations: []PluginConfig{{Type: "log"}, {Type: "mqtt"}},
	}
	require.NoError(t, cfg.Validate())

	_, err := Build(context.Background(), cfg, reg, logger.NewTestLogger())
	require.ErrorIs(t, err, errNoDestination)
	assert.Contains(t, err.Error(), "destinations[1] (mqtt)")
}

func TestBuildWiresPlugins(t *testing.T) {
	ctrl := gomock.NewController(t)

	src := newSource(ctrl, "constant")
	dst := newDestination(ctrl, "log")

	reg := NewRegistry()
	reg.RegisterSource("constant", func(context.Context, json.RawMessage, logger.Logger) (Source, error) {
		return src, nil
	}, nil)
	reg.RegisterDestination("log", func(context.Context, json.RawMessage, logger.Logger) (Destination, error) {
		return dst, nil
	}, nil)

	cfg := &Config{
		Sources:      []PluginConfig{{Type: "constant"}},
		Destinations: []PluginConfig{{Type: "log"}},
	}
	require.NoError(t, cfg.Validate())

	m, err := Build(context.Background(), cfg, reg, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []Source{src}, m.Sources())
	assert.Equal(t, []Destination{dst}, m.Destinations())
	assert.Equal(t, defaultPollInterval, m.interval)
}

func TestManagerMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	batch := []models.Metric{reading("Attic", "Temperature", "30")}

	src := newSource(ctrl, "attic")
	broken := newSource(ctrl, "broken")
	dst := newDestination(ctrl, "log")

	src.EXPECT().Poll(gomock.Any()).Return(batch, nil)
	broken.EXPECT().Poll(gomock.Any()).Return(nil, errSensorOffline)
	dst.EXPECT().Report(gomock.Any(), batch).Return(nil)

	m := NewManager([]Source{src, broken}, []Destination{dst}, time.Minute, logger.NewTestLogger(),
		WithManagerMeterProvider(mp))
	require.ErrorIs(t, m.RunOnce(context.Background()), errSensorOffline)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	polls := sumByAttr(t, rm, metricPollsTotal, "outcome")
	assert.Equal(t, map[string]int64{outcomeOK: 1, outcomeError: 1}, polls)

	reports := sumByAttr(t, rm, metricReportsTotal, "destination")
	assert.Equal(t, map[string]int64{"log": 1}, reports)
}

func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name string, key attribute.Key) map[string]int64 {
	t.Helper()

	out := make(map[string]int64)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}

			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)

			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				out[v.AsString()] += dp.Value
			}
		}
	}

	return out
}
