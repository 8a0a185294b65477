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

// Package metadata resolves Bluetooth company codes and GATT identifiers to display names.
//
// The tables come from the Nordic bluetooth-numbers-database JSON files. A Database is
// immutable after Load and safe for concurrent use.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultDir is where the bundled registry files live, relative to the working directory.
	DefaultDir = "data/bluetooth-numbers-database/v1"

	companyFile        = "company_ids.json"
	serviceFile        = "service_uuids.json"
	characteristicFile = "characteristic_uuids.json"
	descriptorFile     = "descriptor_uuids.json"

	shortUUIDLength = 4
	fullUUIDLength  = 36
)

// BaseUUID is the Bluetooth base identifier. 16-bit assigned numbers occupy bits 96..111.
var BaseUUID = uuid.MustParse("00000000-0000-1000-8000-00805F9B34FB")

// Entry is a single service, characteristic or descriptor record.
type Entry struct {
	UUID       uuid.UUID
	Name       string
	Identifier string
	Source     string
}

type companyRecord struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type uuidRecord struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	UUID       string `json:"uuid"`
	Source     string `json:"source"`
}

// Database holds the four lookup tables.
type Database struct {
	companies       map[uint16]string
	services        map[uuid.UUID]Entry
	characteristics map[uuid.UUID]Entry
	descriptors     map[uuid.UUID]Entry
}

// Load reads all registry files from dir. Any failure is returned; there is no partial database.
func Load(dir string) (*Database, error) {
	companies, err := loadCompanies(filepath.Join(dir, companyFile))
	if err != nil {
		return nil, err
	}

	db := &Database{companies: companies}

	tables := []struct {
		file string
		dst  *map[uuid.UUID]Entry
	}{
		{serviceFile, &db.services},
		{characteristicFile, &db.characteristics},
		{descriptorFile, &db.descriptors},
	}

	for _, t := range tables {
		entries, err := loadEntries(filepath.Join(dir, t.file))
		if err != nil {
			return nil, err
		}

		*t.dst = entries
	}

	return db, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", errReadRegistryFile, path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w %s: %w", errParseRegistryFile, path, err)
	}

	return nil
}

func loadCompanies(path string) (map[uint16]string, error) {
	var records []companyRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	out := make(map[uint16]string, len(records))

	for _, r := range records {
		if r.Code < 0 || r.Code > 0xFFFF {
			return nil, fmt.Errorf("%w %s: company code %d out of range", errParseRegistryFile, path, r.Code)
		}

		out[uint16(r.Code)] = r.Name
	}

	return out, nil
}

func loadEntries(path string) (map[uuid.UUID]Entry, error) {
	var records []uuidRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]Entry, len(records))

	for _, r := range records {
		id, err := NormalizeUUID(r.UUID)
		if err != nil {
			return nil, fmt.Errorf("%s: entry %q: %w", path, r.Name, err)
		}

		out[id] = Entry{
			UUID:       id,
			Name:       r.Name,
			Identifier: r.Identifier,
			Source:     r.Source,
		}
	}

	return out, nil
}

// NormalizeUUID expands a 4 hex digit short form onto the base identifier, or parses a
// full 36 character identifier.
func NormalizeUUID(s string) (uuid.UUID, error) {
	switch len(s) {
	case shortUUIDLength:
		return uuid.Parse("0000" + strings.ToUpper(s) + BaseUUID.String()[8:])
	case fullUUIDLength:
		return uuid.Parse(s)
	default:
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidUUIDLength, s)
	}
}

// ShortUUID returns the 16-bit assigned number embedded in id when id sits on the base
// identifier.
func ShortUUID(id uuid.UUID) (uint16, bool) {
	if id[0] != 0 || id[1] != 0 {
		return 0, false
	}

	for i := 4; i < len(id); i++ {
		if id[i] != BaseUUID[i] {
			return 0, false
		}
	}

	return uint16(id[2])<<8 | uint16(id[3]), true
}

// CompanyName returns the vendor name for code, or "Unknown(<code>)".
func (db *Database) CompanyName(code uint16) string {
	if name, ok := db.companies[code]; ok {
		return name
	}

	return fmt.Sprintf("Unknown(%d)", code)
}

// Service returns the service entry for id.
func (db *Database) Service(id uuid.UUID) (Entry, bool) {
	e, ok := db.services[id]
	return e, ok
}

// Characteristic returns the characteristic entry for id.
func (db *Database) Characteristic(id uuid.UUID) (Entry, bool) {
	e, ok := db.characteristics[id]
	return e, ok
}

// Descriptor returns the descriptor entry for id.
func (db *Database) Descriptor(id uuid.UUID) (Entry, bool) {
	e, ok := db.descriptors[id]
	return e, ok
}

func (db *Database) ServiceName(id uuid.UUID) string {
	if e, ok := db.services[id]; ok {
		return e.Name
	}

	return fallbackName(id)
}

func (db *Database) DescriptorName(id uuid.UUID) string {
	if e, ok := db.descriptors[id]; ok {
		return e.Name
	}

	return fallbackName(id)
}

// CharacteristicName falls back to "BTLE UUID 0xNNNN" for unlisted ids on the base identifier.
func (db *Database) CharacteristicName(id uuid.UUID) string {
	if e, ok := db.characteristics[id]; ok {
		return e.Name
	}

	if short, ok := ShortUUID(id); ok {
		return fmt.Sprintf("BTLE UUID 0x%04x", short)
	}

	return fallbackName(id)
}

func fallbackName(id uuid.UUID) string {
	return "UUID " + id.String()
}
