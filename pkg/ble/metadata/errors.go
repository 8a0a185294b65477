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

package metadata

import "errors"

var (
	// ErrInvalidUUIDLength is returned for identifiers that are neither 4 nor 36 characters long.
	ErrInvalidUUIDLength = errors.New("invalid uuid length")
	errReadRegistryFile  = errors.New("failed to read registry file")
	errParseRegistryFile = errors.New("failed to parse registry file")
)
