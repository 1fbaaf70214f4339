// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import "time"

// ErrorHandler observes delivery failures. HandleError is called once per
// surfaced failure, before the error is returned to the Emit/Flush caller.
// Implementations must not mutate or retain unsent beyond the call.
type ErrorHandler interface {
	HandleError(now time.Time, err error, unsent []byte)
}

// NullHandler is the default ErrorHandler: it does nothing.
type NullHandler struct{}

func (NullHandler) HandleError(time.Time, error, []byte) {}

// ErrorHandlerFunc adapts a plain function to ErrorHandler.
type ErrorHandlerFunc func(now time.Time, err error, unsent []byte)

func (f ErrorHandlerFunc) HandleError(now time.Time, err error, unsent []byte) {
	f(now, err, unsent)
}
