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

// Package bluetooth is the relay source for BLE sensors. Readings are not decoded yet, so
// every poll is empty; the ble test commands cover discovery.
package bluetooth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

const Type = "ble"

type Config struct {
	ID string `json:"id"`
}

func Example() Config {
	return Config{ID: "living-room-sensor"}
}

type Source struct {
	name   string
	logger logger.Logger
}

// New implements relay.SourceCreator.
func New(_ context.Context, raw json.RawMessage, log logger.Logger) (relay.Source, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid ble source config: %w", err)
	}

	return &Source{name: "bluetooth " + cfg.ID, logger: log}, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Poll(_ context.Context) ([]models.Metric, error) {
	s.logger.Trace().Str("source", s.name).Msg("No readings")

	return []models.Metric{}, nil
}

func Register(reg *relay.Registry) {
	reg.RegisterSource(Type, New, Example())
}
