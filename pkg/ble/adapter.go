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

//go:generate mockgen -destination=mock_ble.go -package=ble github.com/carverauto/homerelay/pkg/ble Adapter,Peripheral,EventSource

package ble

import (
	"context"

	"github.com/google/uuid"
)

// EventSource is the adapter's native event stream. Recv blocks until an event is
// available, ctx is done, or the stream ends, in which case it returns io.EOF.
type EventSource interface {
	Recv(ctx context.Context) (Event, error)
}

// Adapter is the local radio. Implementations own the peripheral cache.
type Adapter interface {
	EventSource
	StartScan(ctx context.Context) error
	StopScan() error
	// Peripheral returns the cached peripheral for addr.
	Peripheral(addr DeviceAddress) (Peripheral, bool)
	// Peripherals returns every cached peripheral.
	Peripherals() []Peripheral
}

// Peripheral is a remote device known to the adapter.
type Peripheral interface {
	Address() DeviceAddress
	Properties() PeripheralProperties
	// Connect issues a connection request. Completion is reported as a DeviceConnected event.
	Connect(ctx context.Context) error
	Disconnect() error
	// Characteristics returns the characteristics found by the last discovery.
	Characteristics() []Characteristic
	DiscoverCharacteristics(ctx context.Context) ([]Characteristic, error)
	Read(ctx context.Context, c Characteristic) ([]byte, error)
}

// Characteristic identifies a GATT characteristic within its service.
type Characteristic struct {
	UUID    uuid.UUID
	Service uuid.UUID
}

type AddressType string

const (
	AddressTypeUnknown AddressType = "Unknown"
	AddressTypePublic  AddressType = "Public"
	AddressTypeRandom  AddressType = "Random"
)

// PeripheralProperties is the advertised state of a peripheral.
type PeripheralProperties struct {
	Address          DeviceAddress
	AddressType      AddressType
	LocalName        string
	TxPowerLevel     *int16
	RSSI             int16
	ManufacturerData map[uint16][]byte
	ServiceData      map[uuid.UUID][]byte
	Services         []uuid.UUID
}
