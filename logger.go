// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import "time"

// logger is the shared core behind JSONLogger and MessagePackLogger: both
// façades own a Sender and differ only in which wire framing and record
// marshaler they bind at construction (spec.md §1, supplemented from the
// original FluentLogger factory split into per-framing constructors).
type logger struct {
	sender *Sender
	clock  func() time.Time
}

// LogWithTimestamp encodes one event under the caller-supplied event time
// and emits it. The timestamp is a Unix second count (spec.md §4.3).
func (l *logger) logWithTimestamp(tag string, ts int64, encode func(tag string, t int64) ([]byte, error)) error {
	data, err := encode(tag, ts)
	if err != nil {
		return err
	}
	return l.sender.Emit(data)
}

func (l *logger) log(tag string, encode func(tag string, t int64) ([]byte, error)) error {
	return l.logWithTimestamp(tag, l.clock().Unix(), encode)
}

// Close flushes and releases the underlying connection.
func (l *logger) close() error {
	_ = l.sender.Flush()
	return l.sender.Close()
}

// stats reports the underlying Sender's connection and buffer diagnostics.
func (l *logger) stats() SenderStats { return l.sender.Stats() }

// Logger is the façade both JSONLogger and MessagePackLogger satisfy;
// NewLogger picks between them based on a Framing value instead of
// requiring the caller to know which constructor to call.
type Logger interface {
	Log(tag string, record any) error
	LogWithTimestamp(tag string, ts int64, record any) error
	Flush() error
	Close() error
	Stats() SenderStats
}

// NewLogger dials t and returns a Logger using the wire encoding framing
// selects, with the default marshaler for that encoding.
func NewLogger(framing Framing, t transport, opts ...Option) (Logger, error) {
	if framing == MessagePackFraming {
		return NewMessagePackLogger(t, nil, opts...)
	}
	return NewJSONLogger(t, nil, opts...)
}

// JSONLogger emits events framed and encoded as JSON (spec.md §4.1, §8 S2).
type JSONLogger struct {
	logger
	marshaler JSONMarshaler
}

// NewJSONLogger dials t and returns a ready JSONLogger. m may be nil, in
// which case DefaultJSONMarshaler (encoding/json) is used.
func NewJSONLogger(t transport, m JSONMarshaler, opts ...Option) (*JSONLogger, error) {
	s, err := NewSender(t, opts...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = DefaultJSONMarshaler
	}
	return &JSONLogger{
		logger:    logger{sender: s, clock: time.Now},
		marshaler: m,
	}, nil
}

// Log encodes record as tag's event at the current time and emits it.
func (l *JSONLogger) Log(tag string, record any) error {
	return l.log(tag, func(tag string, t int64) ([]byte, error) {
		return encodeJSON(tag, t, record, l.marshaler)
	})
}

// LogWithTimestamp is Log with an explicit event time.
func (l *JSONLogger) LogWithTimestamp(tag string, ts int64, record any) error {
	return l.logWithTimestamp(tag, ts, func(tag string, t int64) ([]byte, error) {
		return encodeJSON(tag, t, record, l.marshaler)
	})
}

// Flush drains any buffered events now.
func (l *JSONLogger) Flush() error { return l.sender.Flush() }

// Close flushes and releases the underlying connection.
func (l *JSONLogger) Close() error { return l.close() }

// Stats reports the underlying Sender's connection and buffer diagnostics.
func (l *JSONLogger) Stats() SenderStats { return l.stats() }

// MessagePackLogger emits events framed and encoded as MessagePack
// (spec.md §4.2, §8 S1).
type MessagePackLogger struct {
	logger
	marshaler MessagePackMarshaler
}

// NewMessagePackLogger dials t and returns a ready MessagePackLogger. m may
// be nil, in which case DefaultMessagePackMarshaler (vmihailenco/msgpack)
// is used.
func NewMessagePackLogger(t transport, m MessagePackMarshaler, opts ...Option) (*MessagePackLogger, error) {
	s, err := NewSender(t, opts...)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = DefaultMessagePackMarshaler
	}
	return &MessagePackLogger{
		logger:    logger{sender: s, clock: time.Now},
		marshaler: m,
	}, nil
}

// Log encodes record as tag's event at the current time and emits it.
func (l *MessagePackLogger) Log(tag string, record any) error {
	return l.log(tag, func(tag string, t int64) ([]byte, error) {
		return encodeMessagePack(tag, t, record, l.marshaler)
	})
}

// LogWithTimestamp is Log with an explicit event time.
func (l *MessagePackLogger) LogWithTimestamp(tag string, ts int64, record any) error {
	return l.logWithTimestamp(tag, ts, func(tag string, t int64) ([]byte, error) {
		return encodeMessagePack(tag, t, record, l.marshaler)
	})
}

// Flush drains any buffered events now.
func (l *MessagePackLogger) Flush() error { return l.sender.Flush() }

// Close flushes and releases the underlying connection.
func (l *MessagePackLogger) Close() error { return l.close() }

// Stats reports the underlying Sender's connection and buffer diagnostics.
func (l *MessagePackLogger) Stats() SenderStats { return l.stats() }
