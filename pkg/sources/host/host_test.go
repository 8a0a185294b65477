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

package host

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
)

var errUnsupported = errors.New("not implemented on this platform")

func fakeCollectors() collectors {
	return collectors{
		cpuPercent: func(context.Context, time.Duration, bool) ([]float64, error) { return []float64{12.346}, nil },
		memory: func(context.Context) (*mem.VirtualMemoryStat, error) {
			return &mem.VirtualMemoryStat{UsedPercent: 40}, nil
		},
		loadAvg: func(context.Context) (*load.AvgStat, error) { return &load.AvgStat{Load1: 0.75}, nil },
		uptime:  func(context.Context) (uint64, error) { return 3600, nil },
	}
}

func newTestSource(t *testing.T, c collectors) *Source {
	t.Helper()

	ctrl := gomock.NewController(t)
	clk := clock.NewMockClock(ctrl)
	clk.EXPECT().Now().Return(time.Unix(1700000000, 0)).AnyTimes()

	return &Source{object: "pi", sample: time.Second, collect: c, clock: clk, logger: logger.NewTestLogger()}
}

func TestPollAllCollectors(t *testing.T) {
	src := newTestSource(t, fakeCollectors())

	metrics, err := src.Poll(context.Background())
	require.NoError(t, err)

	got := make(map[string]string)
	for _, m := range metrics {
		assert.Equal(t, "pi", m.Object)
		assert.Equal(t, time.Unix(1700000000, 0), m.Timestamp)
		got[m.Property] = m.Value
	}

	assert.Equal(t, map[string]string{
		PropertyCPUPercent:    "12.35",
		PropertyMemoryPercent: "40.00",
		PropertyLoad1:         "0.75",
		PropertyUptime:        "3600",
	}, got)
	assert.Equal(t, "host pi", src.Name())
}

func TestPollSkipsFailingCollector(t *testing.T) {
	c := fakeCollectors()
	c.loadAvg = func(context.Context) (*load.AvgStat, error) { return nil, errUnsupported }

	metrics, err := newTestSource(t, c).Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, metrics, 3)
}

func TestPollFailsWhenNothingReadable(t *testing.T) {
	c := collectors{
		cpuPercent: func(context.Context, time.Duration, bool) ([]float64, error) { return nil, errUnsupported },
		memory:     func(context.Context) (*mem.VirtualMemoryStat, error) { return nil, errUnsupported },
		loadAvg:    func(context.Context) (*load.AvgStat, error) { return nil, errUnsupported },
		uptime:     func(context.Context) (uint64, error) { return 0, errUnsupported },
	}

	_, err := newTestSource(t, c).Poll(context.Background())
	require.ErrorIs(t, err, errNoReadings)
	require.ErrorIs(t, err, errUnsupported)
}

func TestNewDefaultsObjectToHostname(t *testing.T) {
	src, err := New(context.Background(), json.RawMessage(`{"type":"host"}`), logger.NewTestLogger())
	require.NoError(t, err)
	assert.NotEqual(t, "host ", src.Name())

	src, err = New(context.Background(), json.RawMessage(`{"type":"host","object":"nas","cpu_sample":"250ms"}`), logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "host nas", src.Name())
	assert.Equal(t, 250*time.Millisecond, src.(*Source).sample)

	_, err = New(context.Background(), json.RawMessage(`{"cpu_sample":"soon"}`), logger.NewTestLogger())
	require.Error(t, err)
}
