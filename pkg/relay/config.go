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
	"fmt"
	"time"

	"github.com/carverauto/homerelay/pkg/ble"
	"github.com/carverauto/homerelay/pkg/ble/metadata"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

const (
	defaultPollInterval = 60 * time.Second
	defaultScanDuration = 10 * time.Second
)

// PluginConfig is one entry of the sources or destinations list: a JSON object whose
// "type" field selects the factory. Raw keeps the whole object for that factory.
type PluginConfig struct {
	Type string
	Raw  json.RawMessage
}

// NewPluginConfig renders v as a plugin section of the given type.
func NewPluginConfig(typ string, v any) (PluginConfig, error) {
	fields := make(map[string]any)

	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return PluginConfig{}, err
		}

		if err := json.Unmarshal(data, &fields); err != nil {
			return PluginConfig{}, fmt.Errorf("plugin %s config must be an object: %w", typ, err)
		}
	}

	fields["type"] = typ

	raw, err := json.Marshal(fields)
	if err != nil {
		return PluginConfig{}, err
	}

	return PluginConfig{Type: typ, Raw: raw}, nil
}

func (p *PluginConfig) UnmarshalJSON(b []byte) error {
	var head struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}

	if head.Type == "" {
		return errMissingPluginType
	}

	p.Type = head.Type
	p.Raw = append(json.RawMessage(nil), b...)

	return nil
}

func (p PluginConfig) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return json.Marshal(map[string]string{"type": p.Type})
	}

	return p.Raw, nil
}

// BLEConfig tunes the discovery engine used by the test-ble commands.
type BLEConfig struct {
	MetadataDir    string          `json:"metadata_dir"`
	ScanDuration   models.Duration `json:"scan_duration"`
	SettleDelay    models.Duration `json:"settle_delay"`
	ConnectTimeout models.Duration `json:"connect_timeout"`
	EventBuffer    int             `json:"event_buffer"`
}

func (c *BLEConfig) applyDefaults() error {
	if c.MetadataDir == "" {
		c.MetadataDir = metadata.DefaultDir
	}

	if c.ScanDuration == 0 {
		c.ScanDuration = models.Duration(defaultScanDuration)
	}

	if c.SettleDelay == 0 {
		c.SettleDelay = models.Duration(ble.DefaultSettleDelay)
	}

	if c.EventBuffer == 0 {
		c.EventBuffer = ble.DefaultEventBuffer
	}

	switch {
	case c.ScanDuration < 0, c.SettleDelay < 0, c.ConnectTimeout < 0:
		return fmt.Errorf("%w: durations must not be negative", errInvalidBLEConfig)
	case c.EventBuffer < 0:
		return fmt.Errorf("%w: event_buffer must not be negative", errInvalidBLEConfig)
	}

	return nil
}

// Config is the relay configuration file.
type Config struct {
	PollInterval models.Duration `json:"poll_interval"`
	Logging      *logger.Config  `json:"logging,omitempty"`
	BLE          BLEConfig       `json:"ble"`
	Sources      []PluginConfig  `json:"sources"`
	Destinations []PluginConfig  `json:"destinations"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.PollInterval == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.PollInterval < 0 {
		return errInvalidInterval
	}

	for i, p := range c.Sources {
		if p.Type == "" {
			return fmt.Errorf("sources[%d]: %w", i, errMissingPluginType)
		}
	}

	for i, p := range c.Destinations {
		if p.Type == "" {
			return fmt.Errorf("destinations[%d]: %w", i, errMissingPluginType)
		}
	}

	return c.BLE.applyDefaults()
}
