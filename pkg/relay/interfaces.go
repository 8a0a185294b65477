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

// Package relay polls metric sources and forwards their readings to destinations.
package relay

//go:generate mockgen -destination=mock_relay.go -package=relay github.com/carverauto/homerelay/pkg/relay Source,Destination

import (
	"context"
	"encoding/json"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

// Source produces readings on demand.
type Source interface {
	Name() string
	Poll(ctx context.Context) ([]models.Metric, error)
}

// Destination receives every batch a source produced.
type Destination interface {
	Name() string
	Report(ctx context.Context, metrics []models.Metric) error
	// Test exercises the destination end to end without real readings.
	Test(ctx context.Context) error
	Close() error
}

// SourceCreator builds a Source from its raw config section, type discriminator included.
type SourceCreator func(ctx context.Context, raw json.RawMessage, log logger.Logger) (Source, error)

// DestinationCreator builds a Destination from its raw config section.
type DestinationCreator func(ctx context.Context, raw json.RawMessage, log logger.Logger) (Destination, error)
