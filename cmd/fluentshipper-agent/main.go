// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command fluentshipper-agent reads newline-delimited JSON records from
// stdin and forwards each one as a Fluent Forward event.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"code.hybscloud.com/fluentshipper"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fluentshipper-agent: config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting")
	logConfig(logger, cfg)

	ship, err := newShipper(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to fluentd")
	}
	defer ship.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adminServer := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      newAdminRouter(logger, time.Now(), ship),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	adminErrCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.AdminAddr).Msg("admin server starting")
		adminErrCh <- adminServer.ListenAndServe()
	}()

	readErrCh := make(chan error, 1)
	go func() { readErrCh <- forwardStdin(ctx, cfg, ship, logger) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-adminErrCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
		stop()
	case err := <-readErrCh:
		if err != nil {
			logger.Error().Err(err).Msg("stdin forwarding stopped")
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown error")
	}
}

// shipper is the minimal surface forwardStdin and the admin router need,
// satisfied by fluentshipper.Logger regardless of framing.
type shipper = fluentshipper.Logger

// newShipper dials fluentd once and returns the façade matching the
// configured framing, via fluentshipper.NewLogger. The transport kind
// (TCP vs Unix) is resolved here, since fluentshipper's transport type is
// unexported and can only be produced by its two constructors.
func newShipper(cfg *Config) (shipper, error) {
	opts := []fluentshipper.Option{
		fluentshipper.WithBufferCapacity(cfg.BufferCapacity),
		fluentshipper.WithRetryPolicy(fluentshipper.NewConstantDelayWithParams(cfg.RetryMaxErrors, cfg.RetryWait)),
	}

	framing := fluentshipper.MessagePackFraming
	if cfg.Framing == "json" {
		framing = fluentshipper.JSONFraming
	}

	if cfg.FluentNetwork == "unix" {
		return fluentshipper.NewLogger(framing, fluentshipper.UnixAddr(cfg.FluentAddr), opts...)
	}
	return fluentshipper.NewLogger(framing, fluentshipper.TCPAddr(cfg.FluentAddr), opts...)
}

// forwardStdin reads newline-delimited JSON objects from stdin and emits
// each as one event under cfg.Tag, until ctx is cancelled or stdin closes.
func forwardStdin(ctx context.Context, cfg *Config, s shipper, logger zerolog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warn().Err(err).Msg("skipping malformed line")
			continue
		}

		if err := s.Log(cfg.Tag, record); err != nil {
			logger.Error().Err(err).Msg("emit failed")
		}
	}
	_ = s.Flush()
	return scanner.Err()
}
