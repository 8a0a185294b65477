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
	"fmt"
	"sync"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

type plugin[T any] struct {
	create  T
	example any
}

// Registry maps config "type" values to factories. Each plugin also supplies an example
// config used by ExampleConfig.
type Registry struct {
	mu           sync.RWMutex
	sources      map[string]plugin[SourceCreator]
	destinations map[string]plugin[DestinationCreator]
	sourceOrder  []string
	destOrder    []string
}

func NewRegistry() *Registry {
	return &Registry{
		sources:      make(map[string]plugin[SourceCreator]),
		destinations: make(map[string]plugin[DestinationCreator]),
	}
}

// RegisterSource adds or replaces the factory for typ. A nil example leaves typ out of
// ExampleConfig.
func (r *Registry) RegisterSource(typ string, creator SourceCreator, example any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[typ]; !ok {
		r.sourceOrder = append(r.sourceOrder, typ)
	}

	r.sources[typ] = plugin[SourceCreator]{create: creator, example: example}
}

func (r *Registry) RegisterDestination(typ string, creator DestinationCreator, example any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.destinations[typ]; !ok {
		r.destOrder = append(r.destOrder, typ)
	}

	r.destinations[typ] = plugin[DestinationCreator]{create: creator, example: example}
}

func (r *Registry) NewSource(ctx context.Context, cfg PluginConfig, log logger.Logger) (Source, error) {
	r.mu.RLock()
	p, ok := r.sources[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoSource, cfg.Type)
	}

	return p.create(ctx, cfg.Raw, log)
}

func (r *Registry) NewDestination(ctx context.Context, cfg PluginConfig, log logger.Logger) (Destination, error) {
	r.mu.RLock()
	p, ok := r.destinations[cfg.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errNoDestination, cfg.Type)
	}

	return p.create(ctx, cfg.Raw, log)
}

// ExampleConfig returns a complete configuration listing every registered plugin with its
// example settings, in registration order.
func (r *Registry) ExampleConfig() (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg := &Config{
		PollInterval: models.Duration(defaultPollInterval),
		Logging:      &logger.Config{Level: "info", Output: "stdout"},
		BLE: BLEConfig{
			ScanDuration: models.Duration(defaultScanDuration),
		},
	}

	if err := cfg.BLE.applyDefaults(); err != nil {
		return nil, err
	}

	for _, typ := range r.sourceOrder {
		p := r.sources[typ]
		if p.example == nil {
			continue
		}

		pc, err := NewPluginConfig(typ, p.example)
		if err != nil {
			return nil, err
		}

		cfg.Sources = append(cfg.Sources, pc)
	}

	for _, typ := range r.destOrder {
		p := r.destinations[typ]
		if p.example == nil {
			continue
		}

		pc, err := NewPluginConfig(typ, p.example)
		if err != nil {
			return nil, err
		}

		cfg.Destinations = append(cfg.Destinations, pc)
	}

	return cfg, nil
}
