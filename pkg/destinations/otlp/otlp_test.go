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

package otlp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
)

func newTestDestination(t *testing.T, cfg Config, log logger.Logger) (*Destination, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	dst := newDestination(cfg, provider, log)
	t.Cleanup(func() { _ = dst.Close() })

	return dst, reader
}

// gaugePoints returns the data points of the named gauge keyed by their object attribute.
func gaugePoints(t *testing.T, reader *sdkmetric.ManualReader, name string) map[string]float64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	points := make(map[string]float64)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}

			gauge, ok := m.Data.(metricdata.Gauge[float64])
			require.True(t, ok, "metric %s is %T", name, m.Data)

			for _, dp := range gauge.DataPoints {
				object, _ := dp.Attributes.Value("object")
				points[object.AsString()] = dp.Value
			}
		}
	}

	return points
}

func TestReportRecordsGauges(t *testing.T) {
	dst, reader := newTestDestination(t, Config{Namespace: "home"}, logger.NewTestLogger())

	assert.Equal(t, "otlp home", dst.Name())

	require.NoError(t, dst.Report(context.Background(), []models.Metric{
		{Object: "Kitchen", Property: "Temperature", Value: "21.5"},
		{Object: "Garage", Property: "Temperature", Value: " 9 "},
		{Object: "Kitchen", Property: "Humidity", Value: "40"},
	}))

	assert.Equal(t, map[string]float64{"Kitchen": 21.5, "Garage": 9}, gaugePoints(t, reader, "home.Temperature"))
	assert.Equal(t, map[string]float64{"Kitchen": 40}, gaugePoints(t, reader, "home.Humidity"))
}

func TestReportSkipsNonNumeric(t *testing.T) {
	var buf bytes.Buffer

	dst, reader := newTestDestination(t, Config{}, logger.FromZerolog(zerolog.New(&buf)))

	require.NoError(t, dst.Report(context.Background(), []models.Metric{
		{Object: "Door", Property: "State", Value: "open"},
		{Object: "Door", Property: "Battery", Value: "87"},
	}))

	assert.Empty(t, gaugePoints(t, reader, "homerelay.State"))
	assert.Equal(t, map[string]float64{"Door": 87}, gaugePoints(t, reader, "homerelay.Battery"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.SplitN(buf.Bytes(), []byte("\n"), 2)[0], &entry))
	assert.Equal(t, "Skipping non-numeric metric", entry["message"])
	assert.Equal(t, "open", entry["value"])
}

func TestTestFlushesSample(t *testing.T) {
	dst, reader := newTestDestination(t, Config{}, logger.NewTestLogger())

	require.NoError(t, dst.Test(context.Background()))

	assert.Equal(t, map[string]float64{"homerelay": 1}, gaugePoints(t, reader, "homerelay.relay_test"))
}

func TestInstrumentName(t *testing.T) {
	tests := []struct {
		property string
		want     string
	}{
		{"Temperature", "ns.Temperature"},
		{"cpu_percent", "ns.cpu_percent"},
		{"Air Quality (PM2.5)", "ns.Air_Quality__PM2.5_"},
		{"temp°C", "ns.temp_C"},
	}

	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			assert.Equal(t, tt.want, instrumentName("ns", tt.property))
		})
	}
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), json.RawMessage(`{"type":"otlp"}`), logger.NewTestLogger())
	require.ErrorIs(t, err, errEndpointRequired)

	_, err = New(context.Background(), json.RawMessage(`{"type":"otlp","endpoint":"localhost:4317","tls":{"ca_file":"/nonexistent/ca.pem"}}`), logger.NewTestLogger())
	require.Error(t, err)
}

func TestNewBuildsExporter(t *testing.T) {
	dst, err := New(context.Background(), json.RawMessage(`{"type":"otlp","endpoint":"127.0.0.1:4317","insecure":true}`), logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "otlp homerelay", dst.Name())
}
