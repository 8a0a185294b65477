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

package constant

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

func TestPollReturnsConfiguredValue(t *testing.T) {
	ctrl := gomock.NewController(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	clk := clock.NewMockClock(ctrl)
	clk.EXPECT().Now().Return(now)

	src, err := newSource(Config{Object: "Kitchen", Property: "Temperature", Value: 21.5}, clk, logger.NewTestLogger())
	require.NoError(t, err)

	assert.Equal(t, "constant Object Kitchen : Temperature21.5", src.Name())

	metrics, err := src.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Metric{{
		Object:    "Kitchen",
		Property:  "Temperature",
		Value:     "21.5",
		Timestamp: now,
	}}, metrics)
}

func TestValueFormatting(t *testing.T) {
	for value, want := range map[float64]string{1: "1", 2.34: "2.34", -0.5: "-0.5", 1e21: "1000000000000000000000"} {
		src, err := newSource(Config{Object: "o", Property: "p", Value: value}, clock.Real(), logger.NewTestLogger())
		require.NoError(t, err)

		metrics, err := src.Poll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, metrics[0].Value)
	}
}

func TestNewFromRegistry(t *testing.T) {
	reg := relay.NewRegistry()
	Register(reg)

	cfg, err := reg.ExampleConfig()
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)

	src, err := reg.NewSource(context.Background(), cfg.Sources[0], logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "constant Object TestObject : Temperature2.34", src.Name())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), json.RawMessage(`{"type":"constant","object":"x"}`), logger.NewTestLogger())
	require.ErrorIs(t, err, errObjectRequired)

	_, err = New(context.Background(), json.RawMessage(`{"type":"constant","value":"hot"}`), logger.NewTestLogger())
	require.Error(t, err)
}
