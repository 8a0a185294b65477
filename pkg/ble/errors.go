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

import "errors"

var (
	ErrInvalidAddress = errors.New("invalid device address")
	// ErrEventStreamClosed means the bridge channel closed under a running loop.
	ErrEventStreamClosed = errors.New("event stream closed unexpectedly")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrConnectTimeout    = errors.New("timed out waiting for device connection")
	ErrPeripheralUnknown = errors.New("peripheral not in adapter cache")
)
