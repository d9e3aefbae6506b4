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

// Package config loads the smartcompress service configuration.
//
// Sources are merged in the order they are given, later sources overriding
// earlier ones key by key. Keys are case-insensitive and addressed with dot
// notation.
//
// # Sources
//
//	config.WithFile("smartcompress.yaml")           // YAML, JSON or TOML by extension
//	config.WithFileAs("smartcompress", codec.TypeYAML)
//	config.WithContent(data, codec.TypeJSON)
//	config.WithEnv("SMARTCOMPRESS_")                 // SMARTCOMPRESS_SERVER_ADDR -> server.addr
//	config.WithConsul("smartcompress/config.yaml")  // skipped without CONSUL_HTTP_ADDR
//
// # Service Settings
//
// [LoadSettings] validates the merged document against [SettingsSchema],
// binds it to [Settings], applies `default` tags and runs
// [Settings.Validate]:
//
//	settings, _, err := config.LoadSettings(ctx,
//	    config.WithFile(os.Getenv("SMARTCOMPRESS_CONFIG")),
//	    config.WithEnv(config.EnvPrefix),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(
//	    compression.New(settings.CompressionOptions()...),
//	    exemption.New(settings.ExemptionOptions()...),
//	)
//
// # Generic Access
//
//	threshold := cfg.Int64("compression.threshold")
//	addr := config.GetOr(cfg, "server.addr", ":8080")
//
// # Errors
//
// Load failures are reported as [*Error], which names the failing source and
// operation:
//
//	var cfgErr *config.Error
//	if errors.As(err, &cfgErr) {
//	    fmt.Println(cfgErr.Source, cfgErr.Operation)
//	}
package config
