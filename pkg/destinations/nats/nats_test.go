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

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	natsio "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/natsutil"
	"github.com/carverauto/homerelay/pkg/natsutil/natstest"
)

type batchEvent struct {
	models.CloudEvent
	Data models.MetricBatch `json:"data" cbor:"data"`
}

func newTestDestination(t *testing.T, extra string) (*Destination, string) {
	t.Helper()

	srv := natstest.RunJetStreamServer(t)
	url := srv.ClientURL()

	raw := fmt.Sprintf(`{"type":"nats","url":%q%s}`, url, extra)

	dst, err := New(context.Background(), json.RawMessage(raw), logger.NewTestLogger())
	require.NoError(t, err)

	t.Cleanup(func() { _ = dst.Close() })

	return dst.(*Destination), url
}

func lastEvent(t *testing.T, url, stream, subject string) jetstream.RawStreamMsg {
	t.Helper()

	nc, err := natsio.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	js, err := jetstream.New(nc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := js.Stream(ctx, stream)
	require.NoError(t, err)

	msg, err := s.GetLastMsgForSubject(ctx, subject)
	require.NoError(t, err)

	return *msg
}

func TestDefaults(t *testing.T) {
	dst, _ := newTestDestination(t, "")

	assert.Equal(t, defaultSubject, dst.config.Subject)
	assert.Equal(t, defaultStream, dst.config.Stream)
	assert.Equal(t, defaultAgentName, dst.config.AgentName)
	assert.Equal(t, defaultTimeout, dst.config.Timeout.Std())
	assert.Equal(t, "nats homerelay.metrics", dst.Name())
}

func TestReportPublishesBatch(t *testing.T) {
	dst, url := newTestDestination(t, `,"agent_name":"kitchen"`)

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	metrics := []models.Metric{
		{Object: "TestObject", Property: "Temperature", Value: "2.34", Timestamp: ts},
		{Object: "TestObject", Property: "Humidity", Value: "40", Timestamp: ts},
	}

	require.NoError(t, dst.Report(context.Background(), metrics))

	msg := lastEvent(t, url, defaultStream, defaultSubject)
	assert.Equal(t, "application/json", msg.Header.Get("Content-Type"))

	var evt batchEvent
	require.NoError(t, json.Unmarshal(msg.Data, &evt))

	assert.Equal(t, EventType, evt.Type)
	assert.Equal(t, "homerelay/kitchen", evt.Source)
	assert.Equal(t, msg.Header.Get("Ce-Id"), evt.ID)
	assert.Equal(t, "kitchen", evt.Data.Agent)
	require.Len(t, evt.Data.Metrics, 2)
	assert.Equal(t, "Humidity", evt.Data.Metrics[1].Property)
	assert.True(t, ts.Equal(evt.Data.Metrics[0].Timestamp))
}

func TestReportCBOR(t *testing.T) {
	dst, url := newTestDestination(t, `,"encoding":"cbor","subject":"home.readings","stream":"READINGS"`)

	require.NoError(t, dst.Report(context.Background(), []models.Metric{
		{Object: "Garage", Property: "Temperature", Value: "11.5"},
	}))

	msg := lastEvent(t, url, "READINGS", "home.readings")
	assert.Equal(t, "application/cbor", msg.Header.Get("Content-Type"))

	var evt batchEvent
	require.NoError(t, natsutil.EncodingCBOR.Unmarshal(msg.Data, &evt))
	require.Len(t, evt.Data.Metrics, 1)
	assert.Equal(t, "11.5", evt.Data.Metrics[0].Value)
}

func TestReportEmptyBatchIsNoop(t *testing.T) {
	dst, _ := newTestDestination(t, "")

	require.NoError(t, dst.Report(context.Background(), nil))
}

func TestRoundTrip(t *testing.T) {
	dst, _ := newTestDestination(t, "")

	require.NoError(t, dst.Test(context.Background()))
}

func TestRoundTripWithOtherPublishers(t *testing.T) {
	dst, url := newTestDestination(t, "")

	nc, err := natsio.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	stop := make(chan struct{})
	flooding := make(chan struct{})

	go func() {
		defer close(flooding)

		// Stays under the subscription's pending limit.
		for range 20000 {
			select {
			case <-stop:
				return
			default:
			}

			if err := nc.Publish(dst.config.Subject+".test", []byte("noise")); err != nil {
				return
			}
		}
	}()

	defer func() {
		close(stop)
		<-flooding
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, dst.Test(ctx))
}

func TestRoundTripCancelled(t *testing.T) {
	dst, _ := newTestDestination(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Messages may all arrive before the cancelled context is noticed.
	err := dst.Test(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestNewErrors(t *testing.T) {
	log := logger.NewTestLogger()

	_, err := New(context.Background(), json.RawMessage(`{"type":"nats","encoding":"xml"}`), log)
	require.Error(t, err)

	_, err = New(context.Background(), json.RawMessage(`{"type":"nats","url":"nats://127.0.0.1:1"}`), log)
	require.Error(t, err)

	_, err = New(context.Background(), json.RawMessage(`{"type":"nats","cert_file":"client.pem"}`), log)
	require.Error(t, err)

	_, err = New(context.Background(), json.RawMessage(`[]`), log)
	require.Error(t, err)
}
