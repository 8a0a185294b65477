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
	"slices"
	"strconv"

	"github.com/google/uuid"
)

// ListKnownPeripherals prints every peripheral in the adapter cache that matches filter,
// in address order, followed by "Done".
func (e *Engine) ListKnownPeripherals(filter AddressFilter) {
	peripherals := e.adapter.Peripherals()

	slices.SortFunc(peripherals, func(a, b Peripheral) int {
		return a.Address().Compare(b.Address())
	})

	for _, p := range peripherals {
		if filter.Matches(p.Address()) {
			e.PrintPeripheral(p)
		}
	}

	e.printf("Done\n")
}

// PrintPeripheral prints the advertised properties of p with names resolved through the
// metadata database, plus the names of any characteristics discovered earlier.
func (e *Engine) PrintPeripheral(p Peripheral) {
	props := p.Properties()

	txPower := "?"
	if props.TxPowerLevel != nil {
		txPower = strconv.Itoa(int(*props.TxPowerLevel))
	}

	addrType := props.AddressType
	if addrType == "" {
		addrType = AddressTypeUnknown
	}

	e.printf("%s  (%s, tx_power_level:%s)\n", p.Address(), addrType, txPower)

	if props.LocalName != "" {
		e.printf("  Name : %q\n", props.LocalName)
	}

	companies := make([]uint16, 0, len(props.ManufacturerData))
	for id := range props.ManufacturerData {
		companies = append(companies, id)
	}

	slices.Sort(companies)

	for _, id := range companies {
		e.printf("  Manufacturer Data %d (%s)  %q\n",
			id, e.db.CompanyName(id), HexBytes(props.ManufacturerData[id]))
	}

	for _, id := range sortedUUIDs(props.ServiceData) {
		e.printf("  Service Data %s (%s)  %q\n",
			id, e.db.ServiceName(id), HexBytes(props.ServiceData[id]))
	}

	for _, id := range props.Services {
		e.printf("  Service %s (%s)\n", id, e.db.ServiceName(id))
	}

	chars := p.Characteristics()

	e.printf("  Char length : %d\n", len(chars))

	for _, c := range chars {
		e.printf("    %s\n", e.db.CharacteristicName(c.UUID))
	}
}

// ReadAndPrintCharacteristic reads c from p and prints the formatted value. A failed read
// is printed and logged, never returned.
func (e *Engine) ReadAndPrintCharacteristic(ctx context.Context, c Characteristic, p Peripheral) {
	name := e.db.CharacteristicName(c.UUID)

	data, err := p.Read(ctx, c)
	if err != nil {
		e.printf("    %s : Error:%v\n", name, err)
		e.logger.Warn().
			Str("address", p.Address().String()).
			Str("characteristic", c.UUID.String()).
			Err(err).
			Msg("Characteristic read failed")

		return
	}

	e.printf("    %s = %s\n", name, FormatBytes(data))
}

func sortedUUIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}

	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})

	return out
}
