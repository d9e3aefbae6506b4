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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/cast"

	"github.com/lineup-dev/smartcompress/config/codec"
	"github.com/lineup-dev/smartcompress/config/source"
)

// Option is a functional option that can be used to configure a Config instance.
type Option func(c *Config) error

// Config merges configuration data from an ordered list of sources and
// optionally binds it to a struct.
//
// Config is safe for concurrent use by multiple goroutines.
type Config struct {
	values           map[string]any
	sources          []Source
	binding          any
	mu               sync.RWMutex
	schema           *jsonschema.Schema
	customValidators []func(map[string]any) error
}

// WithSource adds a source to the configuration loader.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return errors.New("source cannot be nil")
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile loads a file whose format is detected from its extension
// (.yaml, .yml, .json, .toml). Environment variables in the path are
// expanded.
//
//	config.WithFile("${CONFIG_DIR}/smartcompress.yaml")
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)

		format, err := detectFormat(path)
		if err != nil {
			return NewError("file-source", "detect-format", err)
		}

		return c.addFile(path, format)
	}
}

// WithFileAs loads a file with an explicit format.
func WithFileAs(path string, codecType codec.Type) Option {
	return func(c *Config) error {
		return c.addFile(os.ExpandEnv(path), codecType)
	}
}

func (c *Config) addFile(path string, codecType codec.Type) error {
	decoder, err := codec.GetDecoder(codecType)
	if err != nil {
		return NewError("file-source", "get-decoder", err)
	}

	c.sources = append(c.sources, source.NewFile(path, decoder))
	return nil
}

// WithContent loads configuration from a byte slice in the given format.
func WithContent(data []byte, codecType codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(codecType)
		if err != nil {
			return NewError("content-source", "get-decoder", err)
		}

		c.sources = append(c.sources, source.NewFileContent(data, decoder))
		return nil
	}
}

// WithEnv loads environment variables starting with prefix. The prefix is
// stripped, the rest is lower-cased and every underscore starts a nested key:
// SMARTCOMPRESS_COMPRESSION_THRESHOLD becomes compression.threshold.
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithConsul loads a document from the Consul key-value store. The format is
// detected from the key's extension.
//
// The option is skipped when CONSUL_HTTP_ADDR is not set, so the same wiring
// works on a laptop without Consul. CONSUL_HTTP_TOKEN is honored by the
// Consul client.
func WithConsul(path string) Option {
	return func(c *Config) error {
		if os.Getenv("CONSUL_HTTP_ADDR") == "" {
			return nil
		}

		path = os.ExpandEnv(path)

		format, err := detectFormat(path)
		if err != nil {
			return NewError("consul-source", "detect-format", err)
		}

		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return NewError("consul-source", "get-decoder", err)
		}

		src, err := source.NewConsul(path, decoder, nil)
		if err != nil {
			return NewError("consul-source", "create-client", err)
		}

		c.sources = append(c.sources, src)
		return nil
	}
}

// WithBinding binds the merged configuration to the struct pointed to by v on
// every successful Load. Fields use the `config` tag; zero-valued fields with
// a `default` tag receive that default.
func WithBinding(v any) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("binding target cannot be nil")
		}
		if reflect.TypeOf(v).Kind() != reflect.Ptr {
			return errors.New("binding target must be a pointer")
		}
		c.binding = v
		return nil
	}
}

// WithJSONSchema validates the merged configuration document against schema
// before binding.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return NewError("json-schema", "parse", err)
		}

		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource("config.schema.json", doc); err != nil {
			return NewError("json-schema", "add-resource", err)
		}

		s, err := compiler.Compile("config.schema.json")
		if err != nil {
			return NewError("json-schema", "compile", err)
		}
		c.schema = s
		return nil
	}
}

// WithValidator adds a validation function run against the merged document.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn == nil {
			return errors.New("validator cannot be nil")
		}
		c.customValidators = append(c.customValidators, fn)
		return nil
	}
}

// New creates a Config. Option errors are collected and returned together,
// alongside the partially initialized Config.
func New(options ...Option) (*Config, error) {
	var errs error
	c := &Config{
		values: map[string]any{},
	}

	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(c); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return c, errs
}

// MustNew is like New but panics on error. Use it in main().
func MustNew(options ...Option) *Config {
	cfg, err := New(options...)
	if err != nil {
		panic(fmt.Sprintf("config: failed to create config: %v", err))
	}
	return cfg
}

// Validator is implemented by bound structs that check their own invariants.
type Validator interface {
	Validate() error
}

// Load reads every source in order, merges them with later sources taking
// precedence, validates the result and, if a binding is configured, decodes
// it into the bound struct. State is only replaced when every step succeeds.
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	values, err := c.loadSources(ctx)
	if err != nil {
		return err
	}

	if c.schema != nil {
		if err = c.schema.Validate(values); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}

	for i, fn := range c.customValidators {
		if err = runValidator(fn, values); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		// Decode into a scratch value first so a failed load leaves the
		// caller's struct untouched.
		scratch := reflect.New(reflect.TypeOf(c.binding).Elem()).Interface()
		if err = decode(values, scratch); err != nil {
			return NewError("binding", "bind", err)
		}
		if v, ok := scratch.(Validator); ok {
			if err = v.Validate(); err != nil {
				return NewError("binding", "validate", err)
			}
		}
		reflect.ValueOf(c.binding).Elem().Set(reflect.ValueOf(scratch).Elem())
	}

	c.values = values

	return nil
}

// MustLoad is like Load but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// Encode renders the currently loaded values in the given format, for example
// to print the effective configuration.
func (c *Config) Encode(codecType codec.Type) ([]byte, error) {
	encoder, err := codec.GetEncoder(codecType)
	if err != nil {
		return nil, NewError("encode", "get-encoder", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out, err := encoder.Encode(c.values)
	if err != nil {
		return nil, NewError("encode", "encode", err)
	}

	return out, nil
}

// Values returns a shallow copy of the loaded values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}

	return out
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)

	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		conf, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if conf == nil {
			continue
		}

		if err = mergo.Map(&merged, normalizeMapKeys(conf), mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}

	return merged, nil
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()

	return fn(values)
}

// normalizeMapKeys lower-cases every key, recursively.
func normalizeMapKeys(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeMapKeys(nested)
		}
		normalized[strings.ToLower(k)] = v
	}

	return normalized
}

// decode binds values into target using the `config` tag and then applies
// `default` tags to fields that are still zero. Pointer fields are defaulted
// only when nil, so an explicit zero survives.
func decode(values map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "config",
		Squash:           true,
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err = decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err = setDefaults(reflect.ValueOf(target).Elem()); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}

	return nil
}

func setDefaults(val reflect.Value) error {
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("binding target must point to a struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := range val.NumField() {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := setDefaults(field); err != nil {
				return err
			}
			continue
		}

		def := fieldType.Tag.Get("default")
		if def == "" || !field.IsZero() {
			continue
		}

		if err := setDefaultValue(field, def); err != nil {
			return fmt.Errorf("failed to set default for field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setDefaultValue(field reflect.Value, def string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(def)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(def)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := cast.ToInt64E(def)
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := cast.ToUint64E(def)
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(def)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := cast.ToBoolE(def)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Pointer:
		elem := reflect.New(field.Type().Elem())
		if err := setDefaultValue(elem.Elem(), def); err != nil {
			return err
		}
		field.Set(elem)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type for default tag: %s", field.Type())
		}
		field.Set(reflect.ValueOf(cast.ToStringSlice(strings.Split(def, ","))))
	default:
		return fmt.Errorf("unsupported type for default tag: %s", field.Kind())
	}

	return nil
}
