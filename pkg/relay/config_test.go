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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/homerelay/pkg/ble"
	"github.com/carverauto/homerelay/pkg/ble/metadata"
	"github.com/carverauto/homerelay/pkg/models"
)

func TestPluginConfigUnmarshal(t *testing.T) {
	var cfg Config

	require.NoError(t, json.Unmarshal([]byte(`{
		"sources": [{"type": "constant", "object": "Kitchen", "property": "Temperature", "value": 21.5}],
		"destinations": [{"type": "log"}]
	}`), &cfg))

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "constant", cfg.Sources[0].Type)
	assert.JSONEq(t,
		`{"type": "constant", "object": "Kitchen", "property": "Temperature", "value": 21.5}`,
		string(cfg.Sources[0].Raw))

	require.Len(t, cfg.Destinations, 1)
	assert.Equal(t, "log", cfg.Destinations[0].Type)
}

func TestPluginConfigRequiresType(t *testing.T) {
	var cfg Config

	err := json.Unmarshal([]byte(`{"sources": [{"object": "x"}]}`), &cfg)
	require.ErrorIs(t, err, errMissingPluginType)

	err = json.Unmarshal([]byte(`{"sources": ["constant"]}`), &cfg)
	require.Error(t, err)
}

func TestPluginConfigMarshal(t *testing.T) {
	pc, err := NewPluginConfig("nats", map[string]any{"url": "nats://localhost:4222"})
	require.NoError(t, err)
	assert.Equal(t, "nats", pc.Type)

	data, err := json.Marshal(pc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"nats","url":"nats://localhost:4222"}`, string(data))

	data, err = json.Marshal(PluginConfig{Type: "log"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"log"}`, string(data))

	_, err = NewPluginConfig("bad", []int{1, 2})
	require.Error(t, err)
}

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 60*time.Second, cfg.PollInterval.Std())
	assert.Equal(t, metadata.DefaultDir, cfg.BLE.MetadataDir)
	assert.Equal(t, 10*time.Second, cfg.BLE.ScanDuration.Std())
	assert.Equal(t, ble.DefaultSettleDelay, cfg.BLE.SettleDelay.Std())
	assert.Equal(t, ble.DefaultEventBuffer, cfg.BLE.EventBuffer)
	assert.Zero(t, cfg.BLE.ConnectTimeout)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{
			name: "negative interval",
			cfg:  Config{PollInterval: models.Duration(-time.Second)},
			want: errInvalidInterval,
		},
		{
			name: "untyped source",
			cfg:  Config{Sources: []PluginConfig{{}}},
			want: errMissingPluginType,
		},
		{
			name: "untyped destination",
			cfg:  Config{Destinations: []PluginConfig{{Type: "log"}, {}}},
			want: errMissingPluginType,
		},
		{
			name: "negative connect timeout",
			cfg:  Config{BLE: BLEConfig{ConnectTimeout: models.Duration(-1)}},
			want: errInvalidBLEConfig,
		},
		{
			name: "negative buffer",
			cfg:  Config{BLE: BLEConfig{EventBuffer: -4}},
			want: errInvalidBLEConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.cfg.Validate(), tt.want)
		})
	}
}
