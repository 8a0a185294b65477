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
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const addressLen = 6

// DeviceAddress is a 48-bit Bluetooth device address, most significant byte first.
type DeviceAddress [addressLen]byte

var (
	// AddressZero is the default address. It never belongs to a real device.
	AddressZero = DeviceAddress{}
	// AddressAny is the all-ones address, used as the wildcard in filters.
	AddressAny = DeviceAddress{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
)

// ParseAddress parses the "AA:BB:CC:DD:EE:FF" form. Dashes are accepted as separators.
func ParseAddress(s string) (DeviceAddress, error) {
	var addr DeviceAddress

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != addressLen {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}

	for i, p := range parts {
		if len(p) != 2 {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}

		b, err := hex.DecodeString(p)
		if err != nil {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}

		addr[i] = b[0]
	}

	return addr, nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) DeviceAddress {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}

	return addr
}

func (a DeviceAddress) String() string {
	return HexBytes(a[:])
}

// Compare orders addresses bytewise and returns -1, 0 or +1.
func (a DeviceAddress) Compare(b DeviceAddress) int {
	return bytes.Compare(a[:], b[:])
}

// AddressFilter scopes logging and connection targets to one address or, for the
// wildcard, to every address. The zero value filters on AddressZero and therefore
// matches no real device.
type AddressFilter struct {
	target DeviceAddress
}

// FilterAny matches every address.
var FilterAny = AddressFilter{target: AddressAny}

// FilterFor matches only addr.
func FilterFor(addr DeviceAddress) AddressFilter {
	return AddressFilter{target: addr}
}

// Matches reports whether addr passes the filter.
func (f AddressFilter) Matches(addr DeviceAddress) bool {
	return f.target == AddressAny || f.target == addr
}

func (f AddressFilter) IsWildcard() bool {
	return f.target == AddressAny
}

func (f AddressFilter) String() string {
	if f.IsWildcard() {
		return "*"
	}

	return f.target.String()
}
