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

package ble

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/carverauto/homerelay/pkg/logger"
)

// DefaultEventBuffer is the bridge channel capacity.
const DefaultEventBuffer = 100

// Bridge drains an EventSource on its own goroutine and republishes every event, in order,
// on a bounded channel. A full channel blocks the worker rather than dropping events.
type Bridge struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	logger logger.Logger

	mu  sync.Mutex
	err error
}

// NewBridge starts the worker. It runs until src returns an error (io.EOF included),
// ctx is done, or Stop is called. The Events channel is closed when it exits.
func NewBridge(ctx context.Context, src EventSource, capacity int, log logger.Logger) *Bridge {
	if capacity <= 0 {
		capacity = DefaultEventBuffer
	}

	ctx, cancel := context.WithCancel(ctx)

	b := &Bridge{
		events: make(chan Event, capacity),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: log,
	}

	go b.run(ctx, src)

	return b
}

func (b *Bridge) run(ctx context.Context, src EventSource) {
	defer close(b.done)
	defer close(b.events)

	b.logger.Info().Msg("Bluetooth event bridge started")

	for {
		ev, err := src.Recv(ctx)
		if err != nil {
			b.finish(ctx, err)

			return
		}

		select {
		case b.events <- ev:
		case <-ctx.Done():
			b.finish(ctx, ctx.Err())

			return
		}
	}
}

func (b *Bridge) finish(ctx context.Context, err error) {
	switch {
	case errors.Is(err, io.EOF):
		b.logger.Info().Msg("Bluetooth event bridge finished: source closed")
	case ctx.Err() != nil:
		b.logger.Info().Msg("Bluetooth event bridge stopped")
	default:
		b.logger.Error().Err(err).Msg("Bluetooth event bridge failed")

		b.mu.Lock()
		b.err = err
		b.mu.Unlock()
	}
}

// Events is the consumer side of the bridge.
func (b *Bridge) Events() <-chan Event {
	return b.events
}

// Stop asks the worker to exit. It does not wait; use Wait for that.
func (b *Bridge) Stop() {
	b.cancel()
}

// Wait blocks until the worker has exited and returns the source error that ended it,
// if any. End of stream and cancellation are not errors.
func (b *Bridge) Wait() error {
	<-b.done

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.err
}

// Done is closed once the worker has exited.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
