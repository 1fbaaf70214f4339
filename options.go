// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import "time"

const defaultBufferCapacity = 8 * 1024 * 1024 // 8 MiB, per spec.md §6

// Options configures a Sender. Callers do not construct Options directly;
// use the With* functions with NewSender.
type Options struct {
	BufferCapacity int
	RetryPolicy    RetryPolicy
	ErrorHandler   ErrorHandler
}

var defaultOptions = Options{
	BufferCapacity: defaultBufferCapacity,
	RetryPolicy:    nil, // NewSender fills this with a fresh ConstantDelay
	ErrorHandler:   NullHandler{},
}

// Option configures a Sender at construction.
type Option func(*Options)

// WithBufferCapacity overrides the default 8 MiB buffer capacity. The
// capacity is also the hard per-frame upper bound (spec.md §6).
func WithBufferCapacity(n int) Option {
	return func(o *Options) { o.BufferCapacity = n }
}

// WithRetryPolicy overrides the default ConstantDelay(50ms, max 100).
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.RetryPolicy = p }
}

// WithErrorHandler overrides the default no-op ErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *Options) { o.ErrorHandler = h }
}

// WithErrorHandlerFunc is a convenience wrapper around WithErrorHandler for
// a plain function.
func WithErrorHandlerFunc(f func(now time.Time, err error, unsent []byte)) Option {
	return WithErrorHandler(ErrorHandlerFunc(f))
}
