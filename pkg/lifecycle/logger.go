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

// Package lifecycle builds the process logger from configuration and tears it down on exit.
package lifecycle

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/carverauto/homerelay/pkg/logger"
)

// NewLogger builds a zerolog-backed logger.Logger. When OTel export is enabled every line
// is also forwarded to the collector.
func NewLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	z, err := newZerolog(ctx, config, nil)
	if err != nil {
		return nil, err
	}

	return logger.FromZerolog(z), nil
}

// CreateComponentLogger is NewLogger with a fixed "component" field.
func CreateComponentLogger(ctx context.Context, component string, config *logger.Config) (logger.Logger, error) {
	z, err := newZerolog(ctx, config, nil)
	if err != nil {
		return nil, err
	}

	return logger.FromZerolog(z.With().Str("component", component).Logger()), nil
}

// newZerolog honours config.Output unless out is given.
func newZerolog(ctx context.Context, config *logger.Config, out io.Writer) (zerolog.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	level, err := config.ZerologLevel()
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level: %w", err)
	}

	output := out
	if output == nil {
		if output, err = config.Writer(); err != nil {
			return zerolog.Logger{}, err
		}
	}

	if config.OTel.Enabled && config.OTel.Endpoint != "" {
		otelWriter, err := logger.NewOTELWriter(ctx, config.OTel)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to initialize OTel logging: %w", err)
		}

		output = logger.NewMultiWriter(output, otelWriter)
	}

	timeFormat := time.RFC3339
	if config.TimeFormat != "" {
		timeFormat = config.TimeFormat
	}

	zerolog.TimeFieldFormat = timeFormat

	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// ShutdownLogger flushes any pending OTel log and metric batches.
func ShutdownLogger() error {
	return logger.ShutdownOTEL()
}
