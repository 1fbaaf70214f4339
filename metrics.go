// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the log forwarder. These are package-level,
// registered once in init, and shared by every Sender in the process.
var (
	eventsEmittedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fluentshipper_events_emitted_total",
		Help: "Total number of events accepted by Emit, whether or not they have been flushed yet.",
	})

	flushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentshipper_flushes_total",
		Help: "Total flush attempts by outcome.",
	}, []string{"outcome"})

	reconnectsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fluentshipper_reconnects_total",
		Help: "Total number of reconnect-once attempts made during a flush.",
	})

	bufferOccupancyBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fluentshipper_buffer_occupancy_bytes",
		Help: "Current number of bytes sitting in the send buffer.",
	})

	bufferCapacityBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fluentshipper_buffer_capacity_bytes",
		Help: "Configured send buffer capacity.",
	})

	retryVerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentshipper_retry_verdicts_total",
		Help: "Total RetryPolicy.Attempt verdicts by kind.",
	}, []string{"verdict"})

	errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fluentshipper_errors_total",
		Help: "Total errors surfaced to the caller, by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		eventsEmittedTotal,
		flushesTotal,
		reconnectsTotal,
		bufferOccupancyBytes,
		bufferCapacityBytes,
		retryVerdictsTotal,
		errorsTotal,
	)
}

const (
	flushOutcomeOK    = "ok"
	flushOutcomeError = "error"
	flushOutcomeEmpty = "empty"
)

// errorMetricKind classifies err for the errorsTotal label, without
// allocating: it type-switches on the sentinel/typed errors this package
// defines.
func errorMetricKind(err error) string {
	switch err.(type) {
	case *IoError:
		return "io"
	case *EncodeError:
		return "encode"
	}
	switch err {
	case ErrTooLongData:
		return "too_long"
	case ErrRetryAttemptsExceeded:
		return "retry_exceeded"
	default:
		return "other"
	}
}

// observeBuffer reports the Sender's current occupancy and capacity. It is
// called when Emit appends a frame and when a flush clears the buffer; the
// error paths and the empty-buffer flush, which leave the buffer unchanged,
// do not call it.
func (s *Sender) observeBuffer() {
	bufferOccupancyBytes.Set(float64(s.buf.len()))
	bufferCapacityBytes.Set(float64(s.buf.capacity()))
}
