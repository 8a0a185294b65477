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

package native

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/carverauto/homerelay/pkg/ble"
)

// maxAttributeLen is the largest value an ATT read can return.
const maxAttributeLen = 512

type peripheral struct {
	adapter *Adapter
	addr    ble.DeviceAddress
	native  bluetooth.Address

	mu        sync.Mutex
	props     ble.PeripheralProperties
	connected bool
	device    *bluetooth.Device
	chars     []ble.Characteristic
	handles   map[ble.Characteristic]bluetooth.DeviceCharacteristic
}

var _ ble.Peripheral = (*peripheral)(nil)

func newPeripheral(a *Adapter, addr ble.DeviceAddress, native bluetooth.Address) *peripheral {
	return &peripheral{
		adapter: a,
		addr:    addr,
		native:  native,
		props:   ble.PeripheralProperties{Address: addr, AddressType: ble.AddressTypeUnknown},
	}
}

func (p *peripheral) Address() ble.DeviceAddress {
	return p.addr
}

func (p *peripheral) Properties() ble.PeripheralProperties {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.props
}

func (p *peripheral) update(adv advertisement) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.props = mergeProperties(p.props, adv)
}

// setConnected records the connection state and reports whether it changed.
func (p *peripheral) setConnected(connected bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected == connected {
		return false
	}

	p.connected = connected
	if !connected {
		p.device = nil
	}

	return true
}

type connectResult struct {
	device bluetooth.Device
	err    error
}

// Connect blocks until the host stack connects or ctx is done. An abandoned attempt keeps
// running in the stack; its result is dropped.
func (p *peripheral) Connect(ctx context.Context) error {
	done := make(chan connectResult, 1)

	go func() {
		dev, err := p.adapter.radio.Connect(p.native, bluetooth.ConnectionParams{})
		done <- connectResult{device: dev, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("connect %s: %w", p.addr, r.err)
		}

		p.mu.Lock()
		p.device = &r.device
		p.mu.Unlock()

		p.adapter.setConnected(p.addr, true)

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *peripheral) Disconnect() error {
	p.mu.Lock()
	dev := p.device
	p.mu.Unlock()

	if dev == nil {
		return errNotConnected
	}

	if err := dev.Disconnect(); err != nil {
		return fmt.Errorf("disconnect %s: %w", p.addr, err)
	}

	p.adapter.setConnected(p.addr, false)

	return nil
}

func (p *peripheral) Characteristics() []ble.Characteristic {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]ble.Characteristic(nil), p.chars...)
}

// DiscoverCharacteristics walks every service on the connected device.
func (p *peripheral) DiscoverCharacteristics(ctx context.Context) ([]ble.Characteristic, error) {
	p.mu.Lock()
	dev := p.device
	p.mu.Unlock()

	if dev == nil {
		return nil, errNotConnected
	}

	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discover services on %s: %w", p.addr, err)
	}

	var chars []ble.Characteristic

	handles := make(map[ble.Characteristic]bluetooth.DeviceCharacteristic)

	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		svcID, ok := convertUUID(svc.UUID())
		if !ok {
			continue
		}

		found, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			p.adapter.logger.Warn().
				Str("address", p.addr.String()).
				Str("service", svcID.String()).
				Err(err).
				Msg("Characteristic discovery failed")

			continue
		}

		for _, dc := range found {
			id, ok := convertUUID(dc.UUID())
			if !ok {
				continue
			}

			c := ble.Characteristic{UUID: id, Service: svcID}
			chars = append(chars, c)
			handles[c] = dc
		}
	}

	p.mu.Lock()
	p.chars = chars
	p.handles = handles
	p.mu.Unlock()

	return append([]ble.Characteristic(nil), chars...), nil
}

// Read performs a synchronous read. ctx is only checked up front; the host stack offers
// no way to abort a read in flight.
func (p *peripheral) Read(ctx context.Context, c ble.Characteristic) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	h, ok := p.handles[c]
	p.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownHandle, c.UUID)
	}

	buf := make([]byte, maxAttributeLen)

	n, err := h.Read(buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
