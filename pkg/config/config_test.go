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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

var errNameRequired = errors.New("name is required")

type scanSection struct {
	Duration models.Duration `json:"duration"`
	Address  string          `json:"address"`
}

type logSection struct {
	Level string `json:"level"`
}

type testConfig struct {
	Name     string            `json:"name"`
	Interval models.Duration   `json:"interval"`
	Verbose  bool              `json:"verbose"`
	Retries  int               `json:"retries"`
	Ratio    float64           `json:"ratio"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Scan     scanSection       `json:"scan"`
	Logging  *logSection       `json:"logging,omitempty"`
	Ignored  string            `json:"-"`
}

func (c *testConfig) Validate() error {
	if c.Name == "" {
		return errNameRequired
	}

	if c.Interval == 0 {
		c.Interval = models.Duration(time.Minute)
	}

	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndValidateJSONWithComments(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, "relay.json", `{
		// relay name
		"name": "kitchen",
		"interval": "30s",
		"tags": ["a", "b",],
		"scan": {"duration": "10s", "address": "AA:BB:CC:DD:EE:FF"},
	}`)

	var cfg testConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "kitchen", cfg.Name)
	assert.Equal(t, 30*time.Second, cfg.Interval.Std())
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.Equal(t, 10*time.Second, cfg.Scan.Duration.Std())
	assert.Nil(t, cfg.Logging)
}

func TestLoadAndValidateYAML(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	path := writeFile(t, "relay.yaml", `
name: garage
retries: 3
scan:
  duration: 5s
logging:
  level: debug
labels:
  room: garage
`)

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "garage", cfg.Name)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 5*time.Second, cfg.Scan.Duration.Std())
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, map[string]string{"room": "garage"}, cfg.Labels)
	assert.Equal(t, time.Minute, cfg.Interval.Std(), "Validate fills the default")
}

func TestLoadAndValidateErrors(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	ctx := context.Background()
	c := NewConfig(logger.NewTestLogger())

	var cfg testConfig

	err := c.LoadAndValidate(ctx, filepath.Join(t.TempDir(), "missing.json"), &cfg)
	require.ErrorIs(t, err, os.ErrNotExist)

	err = c.LoadAndValidate(ctx, writeFile(t, "relay.toml", `name = "x"`), &cfg)
	require.ErrorIs(t, err, errUnsupportedExtension)

	err = c.LoadAndValidate(ctx, writeFile(t, "relay.json", `{"name": `), &cfg)
	require.Error(t, err)

	err = c.LoadAndValidate(ctx, writeFile(t, "relay.yml", "name: [unclosed"), &cfg)
	require.Error(t, err)

	err = c.LoadAndValidate(ctx, writeFile(t, "relay.json", `{"interval": "1s"}`), &cfg)
	require.ErrorIs(t, err, errNameRequired)

	err = c.LoadAndValidate(ctx, writeFile(t, "relay.json", `{}`), nil)
	require.ErrorIs(t, err, errInvalidConfigPtr)
}

func TestInvalidConfigSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "etcd")

	var cfg testConfig
	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "ignored", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestEnvLoaderJSONThenOverrides(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("HOMERELAY_CONFIG_JSON", `{"name":"attic","interval":"2m","scan":{"address":"11:22:33:44:55:66"}}`)
	t.Setenv("HOMERELAY_VERBOSE", "true")
	t.Setenv("HOMERELAY_RATIO", "0.5")
	t.Setenv("HOMERELAY_TAGS", "x, y")
	t.Setenv("HOMERELAY_LABELS", `{"floor":"3"}`)
	t.Setenv("HOMERELAY_SCAN_DURATION", "15s")
	t.Setenv("HOMERELAY_RETRIES", "many")

	var cfg testConfig
	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "attic", cfg.Name)
	assert.Equal(t, 2*time.Minute, cfg.Interval.Std())
	assert.True(t, cfg.Verbose)
	assert.InDelta(t, 0.5, cfg.Ratio, 1e-9)
	assert.Equal(t, []string{"x", "y"}, cfg.Tags)
	assert.Equal(t, map[string]string{"floor": "3"}, cfg.Labels)
	assert.Equal(t, 15*time.Second, cfg.Scan.Duration.Std())
	assert.Equal(t, "11:22:33:44:55:66", cfg.Scan.Address)
	assert.Zero(t, cfg.Retries, "invalid override is ignored")
	assert.Nil(t, cfg.Logging, "untouched pointer sections stay nil")
}

func TestEnvLoaderCustomPrefixAndPointerSection(t *testing.T) {
	t.Setenv("APP_NAME", "porch")
	t.Setenv("APP_LOGGING_LEVEL", "warn")
	t.Setenv("APP_INTERVAL", "1500000000")

	var cfg testConfig
	require.NoError(t, NewEnvConfigLoader(logger.NewTestLogger(), "APP_").Load(context.Background(), "", &cfg))

	assert.Equal(t, "porch", cfg.Name)
	require.NotNil(t, cfg.Logging)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 1500*time.Millisecond, cfg.Interval.Std())
}

func TestEnvLoaderRejectsBadDestination(t *testing.T) {
	loader := NewEnvConfigLoader(logger.NewTestLogger(), "X_")

	require.ErrorIs(t, loader.Load(context.Background(), "", testConfig{}), ErrDstMustBeNonNilPointer)

	s := "not a struct"
	require.ErrorIs(t, loader.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)

	t.Setenv("X_CONFIG_JSON", "{broken")
	require.Error(t, loader.Load(context.Background(), "", &testConfig{}))
}
