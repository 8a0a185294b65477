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

// Package models holds the types shared between relay sources, destinations and config.
package models

import "time"

// Metric is one reading: the value of a property of an object, e.g. the temperature of
// the living room.
type Metric struct {
	Object    string    `json:"object" cbor:"object"`
	Property  string    `json:"property" cbor:"property"`
	Value     string    `json:"value" cbor:"value"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
}
