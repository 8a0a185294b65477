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

// Package native backs ble.Adapter with the host Bluetooth stack through
// tinygo.org/x/bluetooth.
//
// The tinygo scan call blocks its goroutine and offers no way to observe a context, so the
// adapter translates callbacks onto an internal channel. Close stops the radio scan and ends
// the event stream with io.EOF, which is what lets the ble event bridge exit cleanly.
package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"tinygo.org/x/bluetooth"

	"github.com/carverauto/homerelay/pkg/ble"
	"github.com/carverauto/homerelay/pkg/logger"
)

const eventQueueSize = 256

var (
	errAdapterClosed = errors.New("bluetooth adapter closed")
	errNotConnected  = errors.New("peripheral not connected")
	errUnknownHandle = errors.New("characteristic not discovered")
)

// radio is the part of *bluetooth.Adapter the adapter drives.
type radio interface {
	Scan(callback func(*bluetooth.Adapter, bluetooth.ScanResult)) error
	StopScan() error
	Connect(address bluetooth.Address, params bluetooth.ConnectionParams) (bluetooth.Device, error)
}

// Adapter implements ble.Adapter.
type Adapter struct {
	radio  radio
	logger logger.Logger

	events    chan ble.Event
	done      chan struct{}
	closeOnce sync.Once

	// Connection state changes are queued here and forwarded by pumpState, so that
	// neither Connect nor the host stack's connect callback waits on a full events queue.
	stateMu     sync.Mutex
	stateQueue  []ble.Event
	stateSignal chan struct{}

	mu          sync.Mutex
	scanning    bool
	peripherals map[ble.DeviceAddress]*peripheral
}

var _ ble.Adapter = (*Adapter)(nil)

// New enables the default host adapter.
func New(log logger.Logger) (*Adapter, error) {
	hw := bluetooth.DefaultAdapter

	if err := hw.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable bluetooth adapter: %w", err)
	}

	a := newAdapter(hw, log)

	hw.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		addr, err := ble.ParseAddress(device.Address.String())
		if err != nil {
			return
		}

		a.setConnected(addr, connected)
	})

	log.Info().Msg("Bluetooth adapter enabled")

	return a, nil
}

func newAdapter(r radio, log logger.Logger) *Adapter {
	a := &Adapter{
		radio:       r,
		logger:      log,
		events:      make(chan ble.Event, eventQueueSize),
		done:        make(chan struct{}),
		stateSignal: make(chan struct{}, 1),
		peripherals: make(map[ble.DeviceAddress]*peripheral),
	}

	go a.pumpState()

	return a
}

// Recv implements ble.EventSource.
func (a *Adapter) Recv(ctx context.Context) (ble.Event, error) {
	select {
	case ev := <-a.events:
		return ev, nil
	case <-a.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// StartScan starts a radio scan on its own goroutine. It is a no-op while a scan runs.
func (a *Adapter) StartScan(_ context.Context) error {
	select {
	case <-a.done:
		return errAdapterClosed
	default:
	}

	a.mu.Lock()
	if a.scanning {
		a.mu.Unlock()

		return nil
	}

	a.scanning = true
	a.mu.Unlock()

	go func() {
		a.logger.Debug().Msg("Bluetooth scan started")

		err := a.radio.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			adv, ok := fromScanResult(result)
			if !ok {
				return
			}

			a.handleAdvertisement(adv)
		})

		a.mu.Lock()
		a.scanning = false
		a.mu.Unlock()

		if err != nil {
			a.logger.Error().Err(err).Msg("Bluetooth scan failed")
			a.emit(ble.OtherEvent{Description: "scan failed: " + err.Error()})

			return
		}

		a.logger.Debug().Msg("Bluetooth scan stopped")
	}()

	return nil
}

func (a *Adapter) StopScan() error {
	a.mu.Lock()
	scanning := a.scanning
	a.mu.Unlock()

	if !scanning {
		return nil
	}

	return a.radio.StopScan()
}

func (a *Adapter) Peripheral(addr ble.DeviceAddress) (ble.Peripheral, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.peripherals[addr]
	if !ok {
		return nil, false
	}

	return p, true
}

func (a *Adapter) Peripherals() []ble.Peripheral {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ble.Peripheral, 0, len(a.peripherals))
	for _, p := range a.peripherals {
		out = append(out, p)
	}

	return out
}

// Close stops scanning and ends the event stream.
func (a *Adapter) Close() error {
	err := a.StopScan()

	a.closeOnce.Do(func() { close(a.done) })

	a.mu.Lock()
	peripherals := make([]*peripheral, 0, len(a.peripherals))
	for _, p := range a.peripherals {
		peripherals = append(peripherals, p)
	}
	a.mu.Unlock()

	for _, p := range peripherals {
		if derr := p.Disconnect(); derr != nil && !errors.Is(derr, errNotConnected) {
			err = errors.Join(err, derr)
		}
	}

	return err
}

// handleAdvertisement updates the peripheral cache and emits the events one scan result
// stands for, in order.
func (a *Adapter) handleAdvertisement(adv advertisement) {
	a.mu.Lock()

	p, known := a.peripherals[adv.address]
	if !known {
		p = newPeripheral(a, adv.address, adv.native)
		a.peripherals[adv.address] = p
	}

	a.mu.Unlock()

	p.update(adv)

	if known {
		a.emit(ble.DeviceUpdated{Address: adv.address})
	} else {
		a.emit(ble.DeviceDiscovered{Address: adv.address})
	}

	for _, m := range adv.manufacturerData {
		a.emit(ble.ManufacturerDataAdvertisement{Address: adv.address, CompanyID: m.companyID, Data: m.data})
	}

	for _, s := range adv.serviceData {
		a.emit(ble.ServiceDataAdvertisement{Address: adv.address, Service: s.service, Data: s.data})
	}

	if len(adv.services) > 0 {
		a.emit(ble.ServicesAdvertisement{Address: adv.address, Services: slices.Clone(adv.services)})
	}
}

func (a *Adapter) setConnected(addr ble.DeviceAddress, connected bool) {
	a.mu.Lock()
	p, ok := a.peripherals[addr]
	a.mu.Unlock()

	if !ok {
		return
	}

	var ev ble.Event = ble.DeviceDisconnected{Address: addr}
	if connected {
		ev = ble.DeviceConnected{Address: addr}
	}

	// The state change and its queue slot are taken together so events keep the order
	// of the changes.
	a.stateMu.Lock()
	if !p.setConnected(connected) {
		a.stateMu.Unlock()

		return
	}

	a.stateQueue = append(a.stateQueue, ev)
	a.stateMu.Unlock()

	select {
	case a.stateSignal <- struct{}{}:
	default:
	}
}

// pumpState forwards queued connection events in order until the adapter closes.
func (a *Adapter) pumpState() {
	for {
		select {
		case <-a.done:
			return
		case <-a.stateSignal:
		}

		a.stateMu.Lock()
		queued := a.stateQueue
		a.stateQueue = nil
		a.stateMu.Unlock()

		for _, ev := range queued {
			if !a.emit(ev) {
				return
			}
		}
	}
}

// emit blocks while the queue is full, pushing back on the radio callback. It reports
// false once the adapter is closed.
func (a *Adapter) emit(ev ble.Event) bool {
	select {
	case a.events <- ev:
		return true
	case <-a.done:
		return false
	}
}
