// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
)

// newAdminRouter wires the agent's admin surface: health, Prometheus
// metrics, a process diagnostics snapshot, and a sender diagnostics
// snapshot, on a gorilla/mux router.
func newAdminRouter(logger zerolog.Logger, started time.Time, ship shipper) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealthz(started)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/debug/process", handleProcessDiagnostics(logger)).Methods(http.MethodGet)
	r.HandleFunc("/debug/sender", handleSenderDiagnostics(ship)).Methods(http.MethodGet)
	return r
}

func handleHealthz(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status": "ok",
			"uptime": time.Since(started).String(),
		})
	}
}

// handleProcessDiagnostics reports this process's own CPU and memory usage,
// read live via gopsutil rather than runtime.MemStats, so the figures line
// up with what an external monitor (top, docker stats) would show.
func handleProcessDiagnostics(logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proc, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			logger.Error().Err(err).Msg("process diagnostics: open self")
			http.Error(w, "diagnostics unavailable", http.StatusInternalServerError)
			return
		}

		cpuPercent, err := proc.CPUPercent()
		if err != nil {
			logger.Warn().Err(err).Msg("process diagnostics: cpu percent")
		}
		memInfo, err := proc.MemoryInfo()
		rssBytes := uint64(0)
		if err != nil {
			logger.Warn().Err(err).Msg("process diagnostics: memory info")
		} else if memInfo != nil {
			rssBytes = memInfo.RSS
		}
		numFDs, _ := proc.NumFDs()

		writeJSON(w, map[string]any{
			"pid":         os.Getpid(),
			"cpu_percent": cpuPercent,
			"rss_bytes":   rssBytes,
			"open_fds":    numFDs,
		})
	}
}

// handleSenderDiagnostics reports the live Sender's RSS and goroutine count
// alongside its connection identity, buffer occupancy, and cumulative
// flush/reconnect/retry counts, so an operator can tell a stalled sender
// (buffer pinned near capacity, retry verdicts stuck on wait) from a
// healthy-but-idle one without cross-referencing the Prometheus scrape.
func handleSenderDiagnostics(ship shipper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := ship.Stats()

		rssBytes := uint64(0)
		if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if memInfo, err := proc.MemoryInfo(); err == nil && memInfo != nil {
				rssBytes = memInfo.RSS
			}
		}

		writeJSON(w, map[string]any{
			"rss_bytes":  rssBytes,
			"goroutines": runtime.NumGoroutine(),

			"network": stats.Network,
			"address": stats.Address,

			"buffer_occupancy_bytes": stats.BufferOccupancyBytes,
			"buffer_capacity_bytes":  stats.BufferCapacityBytes,

			"flushes_ok":    stats.FlushesOK,
			"flushes_empty": stats.FlushesEmpty,
			"flushes_error": stats.FlushesError,
			"reconnects":    stats.Reconnects,

			"retry_ready":     stats.RetryReady,
			"retry_wait":      stats.RetryWait,
			"retry_exhausted": stats.RetryExhausted,
		})
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
