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

import "github.com/google/uuid"

// Event is a single adapter occurrence. The set of variants is closed; adapters that see
// something unmodelled report it as OtherEvent.
type Event interface {
	// Kind is a stable, lower-case name used for logging and metrics.
	Kind() string
	isEvent()
}

type DeviceDiscovered struct {
	Address DeviceAddress
}

type DeviceConnected struct {
	Address DeviceAddress
}

type DeviceDisconnected struct {
	Address DeviceAddress
}

type DeviceUpdated struct {
	Address DeviceAddress
}

// ManufacturerDataAdvertisement carries one manufacturer specific data element.
type ManufacturerDataAdvertisement struct {
	Address   DeviceAddress
	CompanyID uint16
	Data      []byte
}

// ServiceDataAdvertisement carries one service data element.
type ServiceDataAdvertisement struct {
	Address DeviceAddress
	Service uuid.UUID
	Data    []byte
}

type ServicesAdvertisement struct {
	Address  DeviceAddress
	Services []uuid.UUID
}

// OtherEvent is the catch-all for adapter occurrences with no dedicated variant.
type OtherEvent struct {
	Description string
}

func (DeviceDiscovered) Kind() string              { return "device_discovered" }
func (DeviceConnected) Kind() string               { return "device_connected" }
func (DeviceDisconnected) Kind() string            { return "device_disconnected" }
func (DeviceUpdated) Kind() string                 { return "device_updated" }
func (ManufacturerDataAdvertisement) Kind() string { return "manufacturer_data" }
func (ServiceDataAdvertisement) Kind() string      { return "service_data" }
func (ServicesAdvertisement) Kind() string         { return "services" }
func (OtherEvent) Kind() string                    { return "other" }

func (DeviceDiscovered) isEvent()              {}
func (DeviceConnected) isEvent()               {}
func (DeviceDisconnected) isEvent()            {}
func (DeviceUpdated) isEvent()                 {}
func (ManufacturerDataAdvertisement) isEvent() {}
func (ServiceDataAdvertisement) isEvent()      {}
func (ServicesAdvertisement) isEvent()         {}
func (OtherEvent) isEvent()                    {}
