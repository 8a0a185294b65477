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

// Package constant is a source that reports a fixed reading, useful for wiring tests.
package constant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/relay"
)

const Type = "constant"

var errObjectRequired = errors.New("constant source needs object and property")

type Config struct {
	Object   string  `json:"object"`
	Property string  `json:"property"`
	Value    float64 `json:"value"`
}

func Example() Config {
	return Config{
		Object:   "TestObject",
		Property: "Temperature",
		Value:    2.34,
	}
}

type Source struct {
	config Config
	name   string
	clock  clock.Clock
	logger logger.Logger
}

// New implements relay.SourceCreator.
func New(_ context.Context, raw json.RawMessage, log logger.Logger) (relay.Source, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid constant source config: %w", err)
	}

	return newSource(cfg, clock.Real(), log)
}

func newSource(cfg Config, clk clock.Clock, log logger.Logger) (*Source, error) {
	if cfg.Object == "" || cfg.Property == "" {
		return nil, errObjectRequired
	}

	return &Source{
		config: cfg,
		name:   fmt.Sprintf("constant Object %s : %s%v", cfg.Object, cfg.Property, cfg.Value),
		clock:  clk,
		logger: log,
	}, nil
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Poll(_ context.Context) ([]models.Metric, error) {
	s.logger.Debug().Str("source", s.name).Msg("Returning value")

	return []models.Metric{{
		Object:    s.config.Object,
		Property:  s.config.Property,
		Value:     strconv.FormatFloat(s.config.Value, 'f', -1, 64),
		Timestamp: s.clock.Now(),
	}}, nil
}

func Register(reg *relay.Registry) {
	reg.RegisterSource(Type, New, Example())
}
