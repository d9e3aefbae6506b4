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

// Command smartcompressd serves a demo API behind the compression and
// exemption middleware.
//
// Configuration is read from the file named by SMARTCOMPRESS_CONFIG (or
// -config), then SMARTCOMPRESS_* environment variables, then Consul when
// CONSUL_HTTP_ADDR is set. SIGHUP reloads the configuration and applies the
// new log level; other settings take effect on restart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"

	"github.com/lineup-dev/smartcompress/config"
	"github.com/lineup-dev/smartcompress/config/codec"
	"github.com/lineup-dev/smartcompress/logging"
	"github.com/lineup-dev/smartcompress/metrics"
	"github.com/lineup-dev/smartcompress/tracing"
)

// ConsulKey is the Consul KV key holding the shared configuration document.
const ConsulKey = "smartcompress/config.yaml"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "smartcompressd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("smartcompressd", flag.ContinueOnError)
	configFile := fs.String("config", os.Getenv("SMARTCOMPRESS_CONFIG"), "configuration file (yaml, json or toml)")
	printConfig := fs.Bool("print-config", false, "print the merged configuration as YAML and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sources := configSources(*configFile)

	settings, cfg, err := config.LoadSettings(ctx, sources...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if *printConfig {
		out, encErr := cfg.Encode(codec.TypeYAML)
		if encErr != nil {
			return encErr
		}
		_, err = stdout.Write(out)
		return err
	}

	logger, err := newLogger(settings, stdout)
	if err != nil {
		return err
	}
	defer logger.Shutdown(context.Background()) //nolint:errcheck // stdout needs no sync

	log := logger.Logger()

	recorder, err := newRecorder(settings, log)
	if err != nil {
		return err
	}

	tracer, err := newTracer(ctx, settings, log)
	if err != nil {
		return err
	}

	handler, err := newRouter(settings, log, recorder, tracer)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: settings.Server.Timeouts.Read,
		ReadTimeout:       settings.Server.Timeouts.Read,
		WriteTimeout:      settings.Server.Timeouts.Write,
		IdleTimeout:       settings.Server.Timeouts.Idle,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	stopReload := watchReload(ctx, log, logger, sources)
	defer stopReload()

	return serve(ctx, srv, log, settings.Server.Timeouts.Shutdown, recorder, tracer)
}

func configSources(file string) []config.Option {
	var opts []config.Option
	if file != "" {
		opts = append(opts, config.WithFile(file))
	}

	return append(opts, config.WithEnv(config.EnvPrefix), config.WithConsul(ConsulKey))
}

func newLogger(settings *config.Settings, out io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(settings.Logging.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithHandlerType(logging.HandlerType(strings.ToLower(settings.Logging.Format))),
		logging.WithOutput(out),
		logging.WithLevel(level),
		logging.WithServiceName(settings.Logging.Service.Name),
		logging.WithServiceVersion(serviceVersion(settings)),
		logging.WithEnvironment(settings.Logging.Service.Environment),
		logging.WithGlobalLogger(),
	)
}

func newRecorder(settings *config.Settings, log *slog.Logger) (*metrics.Recorder, error) {
	provider, err := metrics.ParseProvider(strings.ToLower(settings.Metrics.Provider))
	if err != nil {
		return nil, err
	}

	return metrics.New(
		metrics.WithProvider(provider, settings.Metrics.Endpoint),
		metrics.WithExportInterval(settings.Metrics.Interval),
		metrics.WithServiceName(settings.Logging.Service.Name),
		metrics.WithServiceVersion(serviceVersion(settings)),
		metrics.WithLogger(log),
	)
}

func newTracer(ctx context.Context, settings *config.Settings, log *slog.Logger) (*tracing.Tracer, error) {
	provider, err := tracing.ParseProvider(strings.ToLower(settings.Tracing.Provider))
	if err != nil {
		return nil, err
	}

	opts := []tracing.Option{
		tracing.WithProvider(provider, settings.Tracing.Endpoint),
		tracing.WithSampleRate(lo.FromPtrOr(settings.Tracing.Sample, tracing.DefaultSampleRate)),
		tracing.WithServiceName(settings.Logging.Service.Name),
		tracing.WithServiceVersion(serviceVersion(settings)),
		tracing.WithGlobalTracerProvider(),
		tracing.WithLogger(log),
	}
	if settings.Tracing.Insecure {
		opts = append(opts, tracing.WithInsecure())
	}

	return tracing.New(ctx, opts...)
}

// shutdowner is satisfied by the metrics recorder and the tracer.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func serviceVersion(settings *config.Settings) string {
	if settings.Logging.Service.Version != "" && settings.Logging.Service.Version != "dev" {
		return settings.Logging.Service.Version
	}

	return version
}

// serve runs srv until ctx is cancelled, then shuts down the server and the
// telemetry providers within timeout.
func serve(ctx context.Context, srv *http.Server, log *slog.Logger, timeout time.Duration, telemetry ...shutdowner) error {
	serverErr := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.InfoContext(ctx, "server shutting down", "reason", context.Cause(ctx))
	}

	// ctx is already done; the shutdown deadline needs a fresh parent.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}
	for _, t := range telemetry {
		if err := t.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
		}
	}

	log.InfoContext(shutdownCtx, "server exited")

	return errors.Join(errs...)
}
