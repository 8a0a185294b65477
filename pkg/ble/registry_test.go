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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
)

func TestRegistryObserveIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	clk := clock.NewMockClock(ctrl)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	clk.EXPECT().Now().Return(first).Times(1)

	reg := NewRegistry(clk, logger.NewTestLogger())

	var notified atomic.Int32

	reg.OnDiscovered = func(*KnownDevice) { notified.Add(1) }

	addr := MustParseAddress("AA:BB:CC:DD:EE:01")

	dev := reg.Observe(addr)
	require.NotNil(t, dev)
	assert.Equal(t, addr, dev.Address)
	assert.Equal(t, first, dev.FirstSeen)

	for range 5 {
		assert.Same(t, dev, reg.Observe(addr))
	}

	assert.Equal(t, int32(1), notified.Load())
	assert.Equal(t, 1, reg.Len())

	got, ok := reg.Lookup(addr)
	require.True(t, ok)
	assert.Same(t, dev, got)

	_, ok = reg.Lookup(AddressAny)
	assert.False(t, ok)
}

func TestRegistryConcurrentObserve(t *testing.T) {
	reg := NewRegistry(clock.Real(), logger.NewTestLogger())

	var notified atomic.Int32

	reg.OnDiscovered = func(*KnownDevice) { notified.Add(1) }

	addrs := []DeviceAddress{
		MustParseAddress("AA:BB:CC:DD:EE:03"),
		MustParseAddress("AA:BB:CC:DD:EE:01"),
		MustParseAddress("AA:BB:CC:DD:EE:02"),
	}

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for _, a := range addrs {
				reg.Observe(a)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(len(addrs)), notified.Load())
	assert.Equal(t, []DeviceAddress{addrs[1], addrs[2], addrs[0]}, reg.Addresses())
}
