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

package lifecycle

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/homerelay/pkg/logger"
)

func TestNewZerologLevelAndFields(t *testing.T) {
	var buf bytes.Buffer

	z, err := newZerolog(context.Background(), &logger.Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	z.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	z.Warn().Str("source", "host").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "host", entry["source"])
	assert.Contains(t, entry, "time")
}

func TestNewZerologRejectsBadConfig(t *testing.T) {
	_, err := newZerolog(context.Background(), &logger.Config{Level: "chatty"}, nil)
	require.Error(t, err)

	_, err = newZerolog(context.Background(), &logger.Config{Output: "/dev/printer"}, nil)
	require.Error(t, err)
}

func TestCreateComponentLogger(t *testing.T) {
	log, err := CreateComponentLogger(context.Background(), "relay", &logger.Config{Output: "stderr"})
	require.NoError(t, err)
	require.NotNil(t, log)

	log, err = NewLogger(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestShutdownLoggerIdempotent(t *testing.T) {
	require.NoError(t, ShutdownLogger())
	require.NoError(t, ShutdownLogger())
}
