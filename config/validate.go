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
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lineup-dev/smartcompress/compression"
)

// settingsValidator checks the `validate` tags of [Settings]. Field names in
// errors are the dotted config keys.
var settingsValidator = newSettingsValidator()

func newSettingsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("config"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// oneofci is oneof without case sensitivity.
	must(v.RegisterValidation("oneofci", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, allowed := range strings.Fields(fl.Param()) {
			if strings.EqualFold(value, allowed) {
				return true
			}
		}
		return false
	}))
	must(v.RegisterValidation("encoding", func(fl validator.FieldLevel) bool {
		_, ok := compression.ParseEncoding(fl.Field().String())
		return ok
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validateTags runs the tag validator over s and converts each failure into
// a field [*Error].
func validateTags(s *Settings) []error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{NewError("settings", "validate", err)}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, NewFieldError("settings", fieldPath(fe), "validate", errors.New(tagMessage(fe))))
	}

	return out
}

// fieldPath strips the struct name and any slice index from the namespace:
// Settings.compression.encodings[1] becomes compression.encodings.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if i := strings.IndexByte(ns, '['); i >= 0 {
		ns = ns[:i]
	}

	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneofci":
		return fmt.Sprintf("unsupported value %q, want one of [%s]", fe.Value(), fe.Param())
	case "encoding":
		return fmt.Sprintf("unsupported encoding %q", fe.Value())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("at least %s entry is required", fe.Param())
		}
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("must not be below %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must not exceed %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
