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

// Package log is a destination that writes each reading to the structured log.
package log

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

const Type = "log"

type Config struct {
	// Name defaults to "log".
	Name string `json:"name,omitempty"`
}

func Example() Config {
	return Config{}
}

type Destination struct {
	name   string
	logger logger.Logger
}

// New implements relay.DestinationCreator.
func New(_ context.Context, raw json.RawMessage, log logger.Logger) (relay.Destination, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid log destination config: %w", err)
	}

	if cfg.Name == "" {
		cfg.Name = Type
	}

	return &Destination{name: cfg.Name, logger: log}, nil
}

func (d *Destination) Name() string {
	return d.name
}

func (d *Destination) Report(_ context.Context, metrics []models.Metric) error {
	for _, m := range metrics {
		d.logger.Info().
			Str("object", m.Object).
			Str("property", m.Property).
			Str("value", m.Value).
			Msgf("%s - object %s has a %s of %s", d.name, m.Object, m.Property, m.Value)
	}

	return nil
}

func (d *Destination) Test(_ context.Context) error {
	d.logger.Info().Str("destination", d.name).Msg("No tests applicable")

	return nil
}

func (*Destination) Close() error {
	return nil
}

func Register(reg *relay.Registry) {
	reg.RegisterDestination(Type, New, Example())
}
