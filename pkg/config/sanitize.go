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

package config

import (
	"encoding/json"
	"strings"
)

const redacted = "[redacted]"

// sensitiveKeys are JSON keys whose values never leave the process in logs.
//
//nolint:gochecknoglobals // fixed lookup table
var sensitiveKeys = map[string]struct{}{
	"headers":    {},
	"password":   {},
	"token":      {},
	"secret":     {},
	"creds_file": {},
	"key_file":   {},
}

// Sanitize returns the JSON form of cfg with credential-bearing values masked, at any
// depth and inside plugin sections. Used when logging the effective configuration.
func Sanitize(cfg interface{}) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	return json.Marshal(mask(doc))
}

func mask(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, child := range node {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok && child != nil {
				node[k] = redacted
				continue
			}

			node[k] = mask(child)
		}
	case []interface{}:
		for i := range node {
			node[i] = mask(node[i])
		}
	}

	return v
}
