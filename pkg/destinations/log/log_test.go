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

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

func captured(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var lines []map[string]any

	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		lines = append(lines, entry)
	}

	return lines
}

func TestReportLogsEachMetric(t *testing.T) {
	var buf bytes.Buffer

	dst, err := New(context.Background(), json.RawMessage(`{"type":"log"}`), logger.FromZerolog(zerolog.New(&buf)))
	require.NoError(t, err)
	assert.Equal(t, "log", dst.Name())

	require.NoError(t, dst.Report(context.Background(), []models.Metric{
		{Object: "TestObject", Property: "Temperature", Value: "2.34"},
		{Object: "Garage", Property: "Humidity", Value: "55"},
	}))

	lines := captured(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "log - object TestObject has a Temperature of 2.34", lines[0]["message"])
	assert.Equal(t, "Garage", lines[1]["object"])
	assert.Equal(t, "log - object Garage has a Humidity of 55", lines[1]["message"])
}

func TestCustomNameAndTest(t *testing.T) {
	var buf bytes.Buffer

	dst, err := New(context.Background(), json.RawMessage(`{"type":"log","name":"audit"}`), logger.FromZerolog(zerolog.New(&buf)))
	require.NoError(t, err)
	assert.Equal(t, "audit", dst.Name())

	require.NoError(t, dst.Test(context.Background()))
	require.NoError(t, dst.Close())

	lines := captured(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "No tests applicable", lines[0]["message"])

	_, err = New(context.Background(), json.RawMessage(`{"name":3}`), logger.NewTestLogger())
	require.Error(t, err)
}
