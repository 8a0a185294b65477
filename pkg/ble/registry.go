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
	"slices"
	"sync"
	"time"

	"github.com/carverauto/homerelay/pkg/clock"
	"github.com/carverauto/homerelay/pkg/logger"
)

// KnownDevice is the registry record for an address seen during a session.
type KnownDevice struct {
	Address   DeviceAddress
	FirstSeen time.Time
}

// Registry deduplicates device observations. Records are never removed.
type Registry struct {
	mu      sync.Mutex
	devices map[DeviceAddress]*KnownDevice
	clock   clock.Clock
	logger  logger.Logger

	// OnDiscovered, when set, is called once per new address, outside the lock.
	OnDiscovered func(*KnownDevice)
}

func NewRegistry(clk clock.Clock, log logger.Logger) *Registry {
	return &Registry{
		devices: make(map[DeviceAddress]*KnownDevice),
		clock:   clk,
		logger:  log,
	}
}

// Observe returns the record for addr, creating it on first sight.
func (r *Registry) Observe(addr DeviceAddress) *KnownDevice {
	r.mu.Lock()

	if dev, ok := r.devices[addr]; ok {
		r.mu.Unlock()

		return dev
	}

	dev := &KnownDevice{Address: addr, FirstSeen: r.clock.Now()}
	r.devices[addr] = dev

	r.mu.Unlock()

	r.logger.Info().Str("address", addr.String()).Msg("DeviceDiscovered")

	if r.OnDiscovered != nil {
		r.OnDiscovered(dev)
	}

	return dev
}

func (r *Registry) Lookup(addr DeviceAddress) (*KnownDevice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[addr]

	return dev, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.devices)
}

// Addresses returns every known address in ascending order.
func (r *Registry) Addresses() []DeviceAddress {
	r.mu.Lock()
	out := make([]DeviceAddress, 0, len(r.devices))

	for addr := range r.devices {
		out = append(out, addr)
	}
	r.mu.Unlock()

	slices.SortFunc(out, DeviceAddress.Compare)

	return out
}
