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

// Package natsutil connects to NATS and publishes CloudEvents to JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/homerelay/pkg/models"
)

var errUnknownEncoding = errors.New("unknown event encoding")

// Encoding selects the wire format of published events.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingCBOR Encoding = "cbor"
)

// ParseEncoding accepts "", "json" and "cbor"; empty means JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(s)) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingCBOR:
		return EncodingCBOR, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownEncoding, s)
	}
}

func (e Encoding) ContentType() string {
	if e == EncodingCBOR {
		return "application/cbor"
	}

	return "application/json"
}

//nolint:gochecknoglobals // immutable encoder configuration
var cborMode, _ = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()

// Marshal encodes v in e's format.
func (e Encoding) Marshal(v interface{}) ([]byte, error) {
	if e == EncodingCBOR {
		return cborMode.Marshal(v)
	}

	return json.Marshal(v)
}

// Unmarshal decodes data in e's format.
func (e Encoding) Unmarshal(data []byte, v interface{}) error {
	if e == EncodingCBOR {
		return cbor.Unmarshal(data, v)
	}

	return json.Unmarshal(data, v)
}

// EventPublisher publishes CloudEvents to a JetStream stream.
type EventPublisher struct {
	js       jetstream.JetStream
	stream   string
	source   string
	encoding Encoding
	now      func() time.Time
}

// NewEventPublisher wraps js. source becomes the CloudEvent "source" attribute.
func NewEventPublisher(js jetstream.JetStream, stream, source string, encoding Encoding) *EventPublisher {
	return &EventPublisher{
		js:       js,
		stream:   stream,
		source:   source,
		encoding: encoding,
		now:      time.Now,
	}
}

// Publish wraps data in a CloudEvent and waits for the JetStream ack.
func (p *EventPublisher) Publish(ctx context.Context, subject, eventType string, data interface{}) (*jetstream.PubAck, error) {
	ts := p.now().UTC()

	event := models.CloudEvent{
		SpecVersion:     models.CloudEventSpecVersion,
		ID:              uuid.New().String(),
		Source:          p.source,
		Type:            eventType,
		DataContentType: p.encoding.ContentType(),
		Subject:         subject,
		Time:            &ts,
		Data:            data,
	}

	payload, err := p.encoding.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	msg.Header.Set("Content-Type", p.encoding.ContentType())
	msg.Header.Set("Ce-Id", event.ID)

	ack, err := p.js.PublishMsg(ctx, msg, jetstream.WithExpectStream(p.stream))
	if err != nil {
		return nil, fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return ack, nil
}

// EnsureStream makes sure stream exists and captures subject, creating or widening it as
// needed.
func EnsureStream(ctx context.Context, js jetstream.JetStream, stream, subject string) error {
	s, err := js.Stream(ctx, stream)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", stream, err)
		}

		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     stream,
			Subjects: []string{subject, subject + ".>"},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", stream, err)
		}

		return nil
	}

	cfg := s.CachedInfo().Config

	subjects := ensureSubjectList(append([]string(nil), cfg.Subjects...), subject)
	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects

	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject %s to stream %s: %w", subject, stream, err)
	}

	return nil
}

func ensureSubjectList(subjects []string, subject string) []string {
	for _, s := range subjects {
		if matchesSubject(s, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether the NATS subject pattern covers subject.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
