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

package logger

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/homerelay/pkg/models"
)

const defaultServiceName = "homerelay"

// DefaultConfig is the logging config used when the relay config has no "logging"
// section. LOG_LEVEL, DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT override it.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString("info", "LOG_LEVEL"),
		Debug:      envBool(false, "DEBUG"),
		Output:     envString("stdout", "LOG_OUTPUT"),
		TimeFormat: envString("", "LOG_TIME_FORMAT"),
		OTel:       DefaultOTelConfig(),
	}
}

// DefaultOTelConfig reads the standard OTEL_* variables. Log-specific names win over the
// generic OTEL_EXPORTER_OTLP_* ones.
func DefaultOTelConfig() OTelConfig {
	endpoint, insecure := splitEndpoint(envString("",
		"OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT"))

	return OTelConfig{
		Enabled:  envBool(false, "OTEL_LOGS_ENABLED"),
		Endpoint: endpoint,
		Headers: parseHeaders(envString("",
			"OTEL_EXPORTER_OTLP_LOGS_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")),
		ServiceName: envString(defaultServiceName, "OTEL_SERVICE_NAME"),
		BatchTimeout: models.Duration(envTimeout(defaultBatchTimeout,
			"OTEL_EXPORTER_OTLP_LOGS_TIMEOUT", "OTEL_EXPORTER_OTLP_TIMEOUT")),
		Insecure: insecure || envBool(false,
			"OTEL_EXPORTER_OTLP_LOGS_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE"),
	}
}

// envString returns the first non-empty variable among keys.
func envString(def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}

	return def
}

func envBool(def bool, keys ...string) bool {
	v := strings.ToLower(envString("", keys...))

	switch v {
	case "":
		return def
	case "yes", "on":
		return true
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

// envTimeout accepts a Go duration or, as the OTLP exporter variables specify, a plain
// number of milliseconds.
func envTimeout(def time.Duration, keys ...string) time.Duration {
	v := envString("", keys...)
	if v == "" {
		return def
	}

	if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}

	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}

	return def
}

// parseHeaders reads "k1=v1,k2=v2". Pairs without '=' are dropped.
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}

		if k = strings.TrimSpace(k); k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}

	return headers
}

// splitEndpoint turns a URL-style endpoint into the host:port the gRPC exporters want.
// An http:// scheme implies a plaintext connection.
func splitEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), true
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), false
	default:
		return endpoint, false
	}
}
