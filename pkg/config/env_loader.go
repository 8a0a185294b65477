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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/carverauto/homerelay/pkg/logger"
)

var (
	ErrDstMustBeNonNilPointer   = errors.New("dst must be a non-nil pointer")
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

// EnvConfigLoader loads configuration from environment variables.
//
// <prefix>CONFIG_JSON, when set, holds the whole document. Otherwise each json-tagged field
// maps to <prefix><TAG>, nested structs joining tags with "_": HOMERELAY_BLE_SCAN_DURATION
// sets Config.BLE.ScanDuration. Slices other than []string, maps and structs take JSON.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader. CONFIG_JSON is applied first and field variables override it.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Debug().Str("env", e.prefix+"CONFIG_JSON").Msg("Loaded base configuration")
	}

	e.loadStruct(v, e.prefix)

	return nil
}

// loadStruct never fails: a bad variable is logged and the field keeps its value.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if err := e.setField(field, envName); err != nil {
			e.logger.Warn().
				Str("field", name).
				Str("env", envName).
				Err(err).
				Msg("Ignoring invalid environment override")
		}
	}
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) error {
	envValue, ok := os.LookupEnv(envName)

	if !ok || envValue == "" {
		e.descend(field, envName)
		return nil
	}

	if err := setFromString(field, envValue); err != nil {
		return fmt.Errorf("%s: %w", envName, err)
	}

	e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

	return nil
}

// descend walks into nested structs, allocating nil struct pointers only when one of
// their fields is actually set.
func (e *EnvConfigLoader) descend(field reflect.Value, envName string) {
	switch {
	case field.Kind() == reflect.Struct && !implementsUnmarshaler(field):
		e.loadStruct(field, envName+"_")
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if !e.hasPrefixedVars(envName + "_") {
			return
		}

		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		e.loadStruct(field.Elem(), envName+"_")
	}
}

func (*EnvConfigLoader) hasPrefixedVars(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}

func implementsUnmarshaler(field reflect.Value) bool {
	if !field.CanAddr() {
		return false
	}

	_, ok := field.Addr().Interface().(json.Unmarshaler)

	return ok
}

func setFromString(field reflect.Value, envValue string) error {
	// Types with their own JSON form, such as models.Duration, get the value as a
	// JSON string so "30s" works.
	if implementsUnmarshaler(field) {
		u := field.Addr().Interface().(json.Unmarshaler)
		if json.Valid([]byte(envValue)) && u.UnmarshalJSON([]byte(envValue)) == nil {
			return nil
		}

		return u.UnmarshalJSON([]byte(strconv.Quote(envValue)))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(envValue, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(envValue, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %w", err)
		}

		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(envValue, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value: %w", err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String && !json.Valid([]byte(envValue)) {
			values := strings.Split(envValue, ",")
			slice := reflect.MakeSlice(field.Type(), len(values), len(values))

			for i, v := range values {
				slice.Index(i).SetString(strings.TrimSpace(v))
			}

			field.Set(slice)

			return nil
		}

		return unmarshalInto(field, envValue)
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return setFromString(field.Elem(), envValue)
	default:
		return unmarshalInto(field, envValue)
	}

	return nil
}

func unmarshalInto(field reflect.Value, envValue string) error {
	if err := json.Unmarshal([]byte(envValue), field.Addr().Interface()); err != nil {
		return fmt.Errorf("unsupported value for %s: %w", field.Kind(), err)
	}

	return nil
}
