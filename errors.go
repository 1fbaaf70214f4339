// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import "errors"

// Sentinel error kinds surfaced to callers of Sender.Emit / Sender.Flush.
//
// IoError and EncodeError carry an underlying cause reachable via errors.Unwrap
// (or errors.As); ErrTooLongData and ErrRetryAttemptsExceeded carry none.
var (
	// ErrTooLongData reports that a single frame exceeds the buffer's
	// remaining capacity and could not be accommodated by a prior flush.
	ErrTooLongData = errors.New("fluentshipper: frame larger than buffer capacity")

	// ErrRetryAttemptsExceeded reports that the retry policy returned
	// Exhausted at Emit entry.
	ErrRetryAttemptsExceeded = errors.New("fluentshipper: retry attempts exceeded")

	// ErrInvalidArgument reports an invalid configuration (nil transport,
	// empty address, etc).
	ErrInvalidArgument = errors.New("fluentshipper: invalid argument")
)

// IoError wraps a transport failure that survived the single reconnect-retry
// attempt (see Sender.flushBuffer).
type IoError struct {
	Cause error
}

func (e *IoError) Error() string { return "fluentshipper: io: " + e.Cause.Error() }

func (e *IoError) Unwrap() error { return e.Cause }

// EncodeError wraps a failure from the frame encoder's collaborators: the
// JSON or MessagePack record marshaler.
type EncodeError struct {
	// Framing names which encoding path failed ("json" or "msgpack").
	Framing string
	Cause   error
}

func (e *EncodeError) Error() string {
	return "fluentshipper: " + e.Framing + " encode: " + e.Cause.Error()
}

func (e *EncodeError) Unwrap() error { return e.Cause }
