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
	"encoding/binary"
	"maps"
	"slices"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"

	"github.com/carverauto/homerelay/pkg/ble"
)

type manufacturerElement struct {
	companyID uint16
	data      []byte
}

type serviceDataElement struct {
	service uuid.UUID
	data    []byte
}

// advertisement is the portable part of one scan result.
type advertisement struct {
	address          ble.DeviceAddress
	native           bluetooth.Address
	rssi             int16
	localName        string
	manufacturerData []manufacturerElement
	serviceData      []serviceDataElement
	services         []uuid.UUID
}

// fromScanResult converts a tinygo scan result. Results whose address is not a MAC
// address, as on macOS where the OS hands out opaque identifiers, are skipped.
func fromScanResult(r bluetooth.ScanResult) (advertisement, bool) {
	addr, err := ble.ParseAddress(r.Address.String())
	if err != nil {
		return advertisement{}, false
	}

	adv := advertisement{
		address:   addr,
		native:    r.Address,
		rssi:      r.RSSI,
		localName: r.LocalName(),
	}

	for _, m := range r.ManufacturerData() {
		adv.manufacturerData = append(adv.manufacturerData, manufacturerElement{
			companyID: m.CompanyID,
			data:      append([]byte(nil), m.Data...),
		})
	}

	for _, s := range r.ServiceData() {
		id, ok := convertUUID(s.UUID)
		if !ok {
			continue
		}

		adv.serviceData = append(adv.serviceData, serviceDataElement{
			service: id,
			data:    append([]byte(nil), s.Data...),
		})
	}

	if raw := r.Bytes(); raw != nil {
		adv.services = parseServiceUUIDs(raw)
	} else {
		// Structured payloads (BlueZ, CoreBluetooth, WinRT) do not expose the raw
		// packet, only a membership test.
		for _, s := range adv.serviceData {
			if r.HasServiceUUID(bluetooth.NewUUID(s.service)) {
				adv.services = append(adv.services, s.service)
			}
		}
	}

	return adv, true
}

// AD types carrying service class UUID lists.
const (
	adIncomplete16  = 0x02
	adComplete16    = 0x03
	adIncomplete128 = 0x06
	adComplete128   = 0x07
)

// parseServiceUUIDs walks the AD structures of a raw advertisement and returns the
// 16-bit and 128-bit service class UUIDs it lists. A truncated structure ends the walk.
func parseServiceUUIDs(payload []byte) []uuid.UUID {
	var out []uuid.UUID

	for len(payload) > 0 {
		n := int(payload[0])
		if n == 0 || n >= len(payload) {
			break
		}

		typ, data := payload[1], payload[2:n+1]
		payload = payload[n+1:]

		switch typ {
		case adIncomplete16, adComplete16:
			for ; len(data) >= 2; data = data[2:] {
				out = append(out, shortUUID(binary.LittleEndian.Uint16(data)))
			}
		case adIncomplete128, adComplete128:
			for ; len(data) >= 16; data = data[16:] {
				var id uuid.UUID
				for i := range id {
					id[i] = data[15-i]
				}

				out = append(out, id)
			}
		}
	}

	return out
}

// shortUUID expands a 16-bit UUID onto the Bluetooth base UUID.
func shortUUID(v uint16) uuid.UUID {
	id := uuid.UUID{0, 0, 0, 0, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0x80, 0x5f, 0x9b, 0x34, 0xfb}
	binary.BigEndian.PutUint16(id[2:4], v)

	return id
}

func convertUUID(u bluetooth.UUID) (uuid.UUID, bool) {
	id, err := uuid.Parse(u.String())
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// mergeProperties folds adv into props. Fields absent from an advertisement keep their
// previous value; a scan response rarely repeats everything.
func mergeProperties(props ble.PeripheralProperties, adv advertisement) ble.PeripheralProperties {
	props.Address = adv.address
	props.RSSI = adv.rssi

	if props.AddressType == "" {
		props.AddressType = ble.AddressTypeUnknown
	}

	if adv.localName != "" {
		props.LocalName = adv.localName
	}

	if len(adv.manufacturerData) > 0 {
		md := maps.Clone(props.ManufacturerData)
		if md == nil {
			md = make(map[uint16][]byte, len(adv.manufacturerData))
		}

		for _, m := range adv.manufacturerData {
			md[m.companyID] = m.data
		}

		props.ManufacturerData = md
	}

	if len(adv.serviceData) > 0 {
		sd := maps.Clone(props.ServiceData)
		if sd == nil {
			sd = make(map[uuid.UUID][]byte, len(adv.serviceData))
		}

		for _, s := range adv.serviceData {
			sd[s.service] = s.data
		}

		props.ServiceData = sd
	}

	for _, s := range adv.services {
		if !slices.Contains(props.Services, s) {
			props.Services = append(slices.Clip(props.Services), s)
		}
	}

	return props
}
