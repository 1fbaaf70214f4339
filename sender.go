// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"net"
	"time"
)

// Sender owns a connected stream and a fixed-capacity write buffer, and
// exclusively owns both: there is no sharing (spec.md §3). A Sender is not
// safe for concurrent use by multiple producers; external synchronization
// is required if sharing (spec.md §5).
type Sender struct {
	transport transport
	conn      net.Conn

	retryPolicy  RetryPolicy
	errorHandler ErrorHandler

	buf *buffer

	// clock is overridable in tests; production callers never set it.
	clock func() time.Time

	// Per-instance counters backing Stats, mirrored alongside the
	// package-level Prometheus counters in metrics.go (which aggregate
	// across every Sender in the process and can't answer "how is this
	// one connection doing").
	flushesOK      uint64
	flushesEmpty   uint64
	flushesError   uint64
	reconnects     uint64
	retryReady     uint64
	retryWait      uint64
	retryExhausted uint64
}

// SenderStats is a point-in-time snapshot of one Sender's connection and
// buffer state, for diagnostics endpoints such as /debug/sender.
type SenderStats struct {
	Network string
	Address string

	BufferOccupancyBytes int
	BufferCapacityBytes  int

	FlushesOK    uint64
	FlushesEmpty uint64
	FlushesError uint64
	Reconnects   uint64

	RetryReady     uint64
	RetryWait      uint64
	RetryExhausted uint64
}

// Stats reports this Sender's transport identity alongside its buffer
// occupancy and cumulative flush/reconnect/retry counts.
func (s *Sender) Stats() SenderStats {
	return SenderStats{
		Network: s.transport.network(),
		Address: s.transport.address(),

		BufferOccupancyBytes: s.buf.len(),
		BufferCapacityBytes:  s.buf.capacity(),

		FlushesOK:    s.flushesOK,
		FlushesEmpty: s.flushesEmpty,
		FlushesError: s.flushesError,
		Reconnects:   s.reconnects,

		RetryReady:     s.retryReady,
		RetryWait:      s.retryWait,
		RetryExhausted: s.retryExhausted,
	}
}

// NewSender establishes the initial connection and returns the error if it
// cannot connect. A Sender is born connected; it lives until Close, which
// releases the stream.
func NewSender(t transport, opts ...Option) (*Sender, error) {
	if t == nil {
		return nil, ErrInvalidArgument
	}

	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.RetryPolicy == nil {
		o.RetryPolicy = NewConstantDelay()
	}

	conn, err := t.dial()
	if err != nil {
		return nil, err
	}

	return &Sender{
		transport:    t,
		conn:         conn,
		retryPolicy:  o.RetryPolicy,
		errorHandler: o.ErrorHandler,
		buf:          newBuffer(o.BufferCapacity),
		clock:        time.Now,
	}, nil
}

// Close releases the underlying stream. Callers should call Flush first to
// avoid silently discarding buffered data.
func (s *Sender) Close() error { return s.conn.Close() }

// Emit buffers one frame's bytes and possibly flushes, per spec.md §4.4.
// Exactly one current-time reading is used throughout the call (the single-
// read invariant spec.md §9 requires).
func (s *Sender) Emit(data []byte) error {
	now := s.clock()

	// 1. Exhausted retry policy: surface without touching the buffer.
	v := s.retryPolicy.Attempt(now)
	retryVerdictsTotal.WithLabelValues(verdictLabel(v)).Inc()
	s.recordVerdict(v)
	if v == Exhausted {
		errorsTotal.WithLabelValues(errorMetricKind(ErrRetryAttemptsExceeded)).Inc()
		s.errorHandler.HandleError(now, ErrRetryAttemptsExceeded, s.buf.bytes())
		return ErrRetryAttemptsExceeded
	}

	// 2. Forced flush when the new frame would overflow the buffer and a
	// flush is currently allowed.
	if s.buf.len()+len(data) > s.buf.capacity() && s.retryPolicy.Attempt(now) == Ready {
		if err := s.flushBuffer(); err != nil {
			return err
		}
	}

	// 3. Still doesn't fit (too large for an empty buffer, or a Wait-
	// blocked flush left no room): backpressure via ErrTooLongData.
	if len(data) > s.buf.capacity()-s.buf.len() {
		errorsTotal.WithLabelValues(errorMetricKind(ErrTooLongData)).Inc()
		s.errorHandler.HandleError(now, ErrTooLongData, s.buf.bytes())
		return ErrTooLongData
	}

	// 4. Append.
	s.buf.append(data)
	eventsEmittedTotal.Inc()
	s.observeBuffer()

	// 5. Flush now if allowed, else defer.
	if s.retryPolicy.Attempt(now) == Ready {
		return s.flushBuffer()
	}
	return nil
}

func (s *Sender) recordVerdict(v Verdict) {
	switch v {
	case Ready:
		s.retryReady++
	case Wait:
		s.retryWait++
	default:
		s.retryExhausted++
	}
}

func verdictLabel(v Verdict) string {
	switch v {
	case Ready:
		return "ready"
	case Wait:
		return "wait"
	default:
		return "exhausted"
	}
}

// Flush drains the buffer now, per spec.md §4.4's flush_buffer algorithm.
func (s *Sender) Flush() error { return s.flushBuffer() }

func (s *Sender) flushBuffer() error {
	if s.buf.len() == 0 {
		s.retryPolicy.Reset()
		flushesTotal.WithLabelValues(flushOutcomeEmpty).Inc()
		s.flushesEmpty++
		return nil
	}

	_, err := s.conn.Write(s.buf.bytes())
	if err != nil {
		// Reconnect-once: a single redial attempt, inline, before
		// declaring the flush failed.
		reconnectsTotal.Inc()
		s.reconnects++
		newConn, dialErr := s.transport.dial()
		if dialErr == nil {
			_ = s.conn.Close()
			s.conn = newConn
			_, err = s.conn.Write(s.buf.bytes())
		}
	}

	if err == nil {
		s.buf.clear()
		s.retryPolicy.Reset()
		s.observeBuffer()
		flushesTotal.WithLabelValues(flushOutcomeOK).Inc()
		s.flushesOK++
		return nil
	}

	now := s.clock()
	ioErr := &IoError{Cause: err}
	s.retryPolicy.RecordError(now)
	s.errorHandler.HandleError(now, ioErr, s.buf.bytes())
	flushesTotal.WithLabelValues(flushOutcomeError).Inc()
	s.flushesError++
	errorsTotal.WithLabelValues(errorMetricKind(ioErr)).Inc()
	return ioErr
}
