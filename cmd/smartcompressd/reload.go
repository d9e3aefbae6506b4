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

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lineup-dev/smartcompress/config"
	"github.com/lineup-dev/smartcompress/logging"
)

// watchReload reloads the configuration on SIGHUP and applies the new log
// level. A configuration that fails to load or validate is logged and
// ignored. The returned func stops watching.
func watchReload(ctx context.Context, log *slog.Logger, logger *logging.Logger, sources []config.Option) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ch:
				reload(ctx, log, logger, sources)
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func reload(ctx context.Context, log *slog.Logger, logger *logging.Logger, sources []config.Option) {
	settings, _, err := config.LoadSettings(ctx, sources...)
	if err != nil {
		log.ErrorContext(ctx, "configuration reload failed", "error", err)
		return
	}

	level, err := logging.ParseLevel(settings.Logging.Level)
	if err != nil {
		log.ErrorContext(ctx, "configuration reload failed", "error", err)
		return
	}

	previous := logger.Level()
	logger.SetLevel(level)
	log.InfoContext(ctx, "configuration reloaded", "previous_level", previous.String(), "level", level.String())
}
