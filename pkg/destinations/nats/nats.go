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

// Package nats is a destination that publishes metric batches to a JetStream stream as
// CloudEvents.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	natsio "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/homerelay/pkg/logger"
	"github.com/carverauto/homerelay/pkg/models"
	"github.com/carverauto/homerelay/pkg/natsutil"
	"github.com/carverauto/homerelay/pkg/relay"
)

const (
	Type = "nats"

	// EventType is the CloudEvent type of a published batch.
	EventType = "com.carverauto.homerelay.metrics"

	defaultURL       = natsio.DefaultURL
	defaultSubject   = "homerelay.metrics"
	defaultStream    = "HOMERELAY"
	defaultAgentName = "MessageRelayAgent"
	defaultTimeout   = 10 * time.Second
	testMessageCount = 10
)

var errTestIncomplete = errors.New("nats test did not receive every message")

type Config struct {
	URL       string          `json:"url"`
	Subject   string          `json:"subject"`
	Stream    string          `json:"stream"`
	AgentName string          `json:"agent_name"`
	Encoding  string          `json:"encoding,omitempty"`
	Timeout   models.Duration `json:"timeout,omitempty"`

	natsutil.Security
}

func Example() Config {
	return Config{
		URL:       defaultURL,
		Subject:   defaultSubject,
		Stream:    defaultStream,
		AgentName: defaultAgentName,
		Encoding:  string(natsutil.EncodingJSON),
	}
}

func (c *Config) applyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}

	if c.Subject == "" {
		c.Subject = defaultSubject
	}

	if c.Stream == "" {
		c.Stream = defaultStream
	}

	if c.AgentName == "" {
		c.AgentName = defaultAgentName
	}

	if c.Timeout <= 0 {
		c.Timeout = models.Duration(defaultTimeout)
	}
}

type Destination struct {
	config    Config
	nc        *natsio.Conn
	publisher *natsutil.EventPublisher
	logger    logger.Logger
}

// New implements relay.DestinationCreator. It connects, then creates or widens the stream
// so that it captures the configured subject.
func New(ctx context.Context, raw json.RawMessage, log logger.Logger) (relay.Destination, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid nats destination config: %w", err)
	}

	cfg.applyDefaults()

	return newDestination(ctx, cfg, log)
}

func newDestination(ctx context.Context, cfg Config, log logger.Logger) (*Destination, error) {
	encoding, err := natsutil.ParseEncoding(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	nc, err := natsutil.Connect(cfg.URL, cfg.AgentName, &cfg.Security, log)
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ensureCtx, cancel := context.WithTimeout(ctx, cfg.Timeout.Std())
	defer cancel()

	if err := natsutil.EnsureStream(ensureCtx, js, cfg.Stream, cfg.Subject); err != nil {
		nc.Close()

		return nil, err
	}

	return &Destination{
		config:    cfg,
		nc:        nc,
		publisher: natsutil.NewEventPublisher(js, cfg.Stream, "homerelay/"+cfg.AgentName, encoding),
		logger:    log,
	}, nil
}

func (d *Destination) Name() string {
	return fmt.Sprintf("nats %s", d.config.Subject)
}

// Report publishes all metrics as one batch event and waits for the stream ack.
func (d *Destination) Report(ctx context.Context, metrics []models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout.Std())
	defer cancel()

	batch := models.MetricBatch{Agent: d.config.AgentName, Metrics: metrics}

	ack, err := d.publisher.Publish(ctx, d.config.Subject, EventType, batch)
	if err != nil {
		return err
	}

	d.logger.Debug().
		Str("stream", ack.Stream).
		Uint64("sequence", ack.Sequence).
		Int("count", len(metrics)).
		Msg("Published metric batch")

	return nil
}

// Test sends a burst of plain messages on <subject>.test and waits until a subscription
// on the same connection has seen all of them.
func (d *Destination) Test(ctx context.Context) error {
	subject := d.config.Subject + ".test"

	expected := make(map[string]struct{}, testMessageCount)
	for i := 0; i < testMessageCount; i++ {
		expected[fmt.Sprintf("Hello %d", i)] = struct{}{}
	}

	received := make(chan string, testMessageCount)

	// The callback runs on the connection's dispatch goroutine and must not block; other
	// publishers on the subject are ignored.
	sub, err := d.nc.Subscribe(subject, func(msg *natsio.Msg) {
		if _, ok := expected[string(msg.Data)]; !ok {
			return
		}

		select {
		case received <- string(msg.Data):
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			d.logger.Debug().Err(err).Msg("Failed to unsubscribe test subscription")
		}
	}()

	if err := d.nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscription: %w", err)
	}

	for msg := range expected {
		if err := d.nc.Publish(subject, []byte(msg)); err != nil {
			return fmt.Errorf("failed to publish test message: %w", err)
		}
	}

	timer := time.NewTimer(d.config.Timeout.Std())
	defer timer.Stop()

	seen := make(map[string]struct{}, testMessageCount)

	for len(seen) < testMessageCount {
		select {
		case msg := <-received:
			seen[msg] = struct{}{}

			d.logger.Info().Str("subject", subject).Msgf("Received %q", msg)
		case <-timer.C:
			return fmt.Errorf("%w: %d of %d", errTestIncomplete, len(seen), testMessageCount)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.logger.Info().Str("subject", subject).Int("count", testMessageCount).Msg("NATS round trip ok")

	return nil
}

// Close drains pending publishes and subscriptions before closing the connection.
func (d *Destination) Close() error {
	if d.nc == nil || d.nc.IsClosed() {
		return nil
	}

	return d.nc.Drain()
}

func Register(reg *relay.Registry) {
	reg.RegisterDestination(Type, New, Example())
}
