// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// newLogger builds a structured logger: stderr always, plus a
// size-and-age-rotated file when cfg.LogFile is set. cfg.LogFormat selects
// the stderr encoding: "json" for production/Loki ingestion, "pretty" for a
// zerolog.ConsoleWriter suited to a terminal. The rotated file sink always
// stays JSON regardless of console format, since logs shipped downstream
// are parsed by machines, not read in a terminal.
func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var console io.Writer = os.Stderr
	if cfg.LogFormat == "pretty" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	writers := []io.Writer{console}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  cfg.LogMaxMB,
			MaxAge:   cfg.LogMaxAge,
			Compress: true,
		})
	}

	return zerolog.New(io.MultiWriter(writers...)).
		With().
		Timestamp().
		Str("service", "fluentshipper-agent").
		Logger()
}
