// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookup resolves a case-insensitive, dot-separated key.
func (c *Config) lookup(key string) any {
	if c == nil || key == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	path := strings.ToLower(key)
	if v, ok := c.values[path]; ok {
		return v
	}

	current := c.values
	segments := strings.Split(path, ".")
	for i, segment := range segments {
		v, ok := current[segment]
		if !ok {
			return nil
		}
		if i == len(segments)-1 {
			return v
		}
		nested, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		current = nested
	}

	return nil
}

// Get returns the raw value at key, or nil.
func (c *Config) Get(key string) any {
	return c.lookup(key)
}

// String returns the value at key as a string.
//
//	addr := cfg.String("server.addr")
func (c *Config) String(key string) string {
	return cast.ToString(c.lookup(key))
}

// Int returns the value at key as an int.
func (c *Config) Int(key string) int {
	return cast.ToInt(c.lookup(key))
}

// Int64 returns the value at key as an int64.
//
//	threshold := cfg.Int64("compression.threshold")
func (c *Config) Int64(key string) int64 {
	return cast.ToInt64(c.lookup(key))
}

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool {
	return cast.ToBool(c.lookup(key))
}

// Duration returns the value at key as a time.Duration.
func (c *Config) Duration(key string) time.Duration {
	return cast.ToDuration(c.lookup(key))
}

// StringSlice returns the value at key as a []string. A comma separated
// string, as produced by environment variables, is split.
func (c *Config) StringSlice(key string) []string {
	v := c.lookup(key)
	if s, ok := v.(string); ok {
		return splitList(s)
	}

	return cast.ToStringSlice(v)
}

// StringOr returns the value at key as a string, or defaultVal when unset.
func (c *Config) StringOr(key, defaultVal string) string {
	return GetOr(c, key, defaultVal)
}

// IntOr returns the value at key as an int, or defaultVal when unset.
func (c *Config) IntOr(key string, defaultVal int) int {
	return GetOr(c, key, defaultVal)
}

// BoolOr returns the value at key as a bool, or defaultVal when unset.
func (c *Config) BoolOr(key string, defaultVal bool) bool {
	return GetOr(c, key, defaultVal)
}

// DurationOr returns the value at key as a time.Duration, or defaultVal when
// unset.
func (c *Config) DurationOr(key string, defaultVal time.Duration) time.Duration {
	return GetOr(c, key, defaultVal)
}

// Get returns the value at key as T, or the zero value of T when the key is
// missing or cannot be converted.
//
//	threshold := config.Get[int64](cfg, "compression.threshold")
func Get[T any](c *Config, key string) T {
	v, _ := GetE[T](c, key)
	return v
}

// GetOr returns the value at key as T, or defaultVal when the key is missing
// or cannot be converted. T is inferred from defaultVal.
//
//	addr := config.GetOr(cfg, "server.addr", ":8080")
func GetOr[T any](c *Config, key string, defaultVal T) T {
	v, err := GetE[T](c, key)
	if err != nil {
		return defaultVal
	}

	return v
}

// GetE returns the value at key as T, or an error when the key is missing or
// cannot be converted.
func GetE[T any](c *Config, key string) (T, error) {
	var zero T
	if c == nil {
		return zero, fmt.Errorf("config instance is nil")
	}

	val := c.lookup(key)
	if val == nil {
		return zero, fmt.Errorf("key %q not found", key)
	}

	if result, ok := val.(T); ok {
		return result, nil
	}

	if result, ok := convertTo[T](val); ok {
		return result, nil
	}

	return zero, fmt.Errorf("cannot convert value at key %q to type %T", key, zero)
}

// convertTo handles the scalar conversions the service needs. Custom types
// are not supported.
func convertTo[T any](val any) (T, bool) {
	var (
		zero   T
		result any
		err    error
	)

	switch any(zero).(type) {
	case string:
		result, err = cast.ToStringE(val)
	case int:
		result, err = cast.ToIntE(val)
	case int64:
		result, err = cast.ToInt64E(val)
	case float64:
		result, err = cast.ToFloat64E(val)
	case bool:
		result, err = cast.ToBoolE(val)
	case []string:
		if s, ok := val.(string); ok {
			result = splitList(s)
		} else {
			result, err = cast.ToStringSliceE(val)
		}
	case time.Duration:
		result, err = cast.ToDurationE(val)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}

	typed, ok := result.(T)
	return typed, ok
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
