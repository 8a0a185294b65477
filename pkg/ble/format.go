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
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	emptyPlaceholder = "(empty)"

	textPercent      = 90
	mixedPercent     = 20
	mixedMaxRunes    = 20
	printableAbove   = 15
	hexPairSeparator = ":"
)

// HexBytes renders b as upper-case hex pairs joined by ':'.
func HexBytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.Grow(len(b)*3 - 1)

	for i, c := range b {
		if i > 0 {
			sb.WriteString(hexPairSeparator)
		}

		fmt.Fprintf(&sb, "%02X", c)
	}

	return sb.String()
}

// FormatBytes renders a characteristic value for display. Mostly printable UTF-8 is shown
// as text, short partly printable UTF-8 as hex followed by the quoted text, and everything
// else as hex.
func FormatBytes(b []byte) string {
	if !utf8.Valid(b) {
		return HexBytes(b)
	}

	s := string(b)

	total := utf8.RuneCountInString(s)
	if total == 0 {
		return emptyPlaceholder
	}

	printable := 0

	for _, r := range s {
		if r > printableAbove {
			printable++
		}
	}

	percent := 100 * printable / total

	switch {
	case percent > textPercent:
		return s
	case percent > mixedPercent && total < mixedMaxRunes:
		return fmt.Sprintf("%s (\"%s\")", HexBytes(b), s)
	default:
		return HexBytes(b)
	}
}
