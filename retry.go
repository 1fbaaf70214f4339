// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fluentshipper

import (
	"time"

	"golang.org/x/time/rate"
)

// Verdict is the ternary classification a RetryPolicy returns from Attempt.
type Verdict uint8

const (
	// Ready means a flush attempt may proceed now.
	Ready Verdict = iota
	// Wait means the caller should defer the flush; the frame stays buffered.
	Wait
	// Exhausted means the policy gives up; the caller should surface
	// ErrRetryAttemptsExceeded without attempting a flush.
	Exhausted
)

// RetryPolicy gates when Sender may attempt the next flush, based on a
// sliding window of past write failures.
//
// Implementations must honor the three-state contract: Reset clears all
// recorded history, RecordError appends a failure observed at t, and
// Attempt classifies whether a send may proceed at t.
type RetryPolicy interface {
	Reset()
	RecordError(t time.Time)
	Attempt(t time.Time) Verdict
}

// ConstantDelay is the default RetryPolicy: a bounded deque of failure
// timestamps, newest at front, with a fixed inter-attempt wait.
//
// The deque holds newest-at-front but the threshold is read from the back
// (the oldest retained entry). Once errors are arriving faster than wait,
// the oldest retained error stays pinned near now-window, keeping Attempt
// in Wait continuously until a flush finally succeeds and Reset runs.
type ConstantDelay struct {
	errors    []time.Time // front = newest, back = oldest
	maxErrors int
	wait      time.Duration
}

// NewConstantDelay constructs the default retry policy: max_errors=100,
// wait=50ms.
func NewConstantDelay() *ConstantDelay {
	return &ConstantDelay{maxErrors: 100, wait: 50 * time.Millisecond}
}

// NewConstantDelayWithParams constructs a ConstantDelay with custom bounds,
// for alternate policies that still want the constant-delay shape.
func NewConstantDelayWithParams(maxErrors int, wait time.Duration) *ConstantDelay {
	return &ConstantDelay{maxErrors: maxErrors, wait: wait}
}

func (p *ConstantDelay) Reset() { p.errors = p.errors[:0] }

func (p *ConstantDelay) RecordError(t time.Time) {
	p.errors = append(p.errors, time.Time{})
	copy(p.errors[1:], p.errors)
	p.errors[0] = t
	if len(p.errors) > p.maxErrors {
		p.errors = p.errors[:p.maxErrors]
	}
}

func (p *ConstantDelay) Attempt(t time.Time) Verdict {
	if len(p.errors) > p.maxErrors {
		// Never reachable under the push-then-trim discipline above; kept
		// as a defensive branch and as the contract alternate policies
		// must also honor.
		return Exhausted
	}
	if len(p.errors) == 0 {
		return Ready
	}
	oldest := p.errors[len(p.errors)-1]
	if t.Sub(oldest) >= p.wait {
		return Ready
	}
	return Wait
}

// TokenBucketPolicy is an alternate RetryPolicy backed by golang.org/x/time/rate:
// flush attempts are gated by a token bucket instead of a fixed delay since
// the last error. Errors are still recorded for Exhausted's hard cap so a
// sustained outage eventually surfaces ErrRetryAttemptsExceeded instead of
// buffering forever.
type TokenBucketPolicy struct {
	limiter   *rate.Limiter
	errors    int
	maxErrors int

	// haveVerdict/verdictAt/verdictReady cache the single token-consuming
	// decision made for a given instant. Sender.Emit calls Attempt up to
	// three times per call with the identical now (spec.md §4.4/§9's
	// single-read invariant); without this cache each call would drain
	// another token from the bucket and the last of the three checks
	// would nearly always see Wait, even though the underlying decision
	// for that instant was already Ready.
	haveVerdict  bool
	verdictAt    time.Time
	verdictReady bool
}

// NewTokenBucketPolicy builds a policy that allows one flush attempt per
// interval (refilling at 1/interval per second, burst 1), giving up
// (Exhausted) once more than maxErrors failures have been recorded since the
// last Reset. A maxErrors of zero or less disables the cap.
func NewTokenBucketPolicy(interval time.Duration, maxErrors int) *TokenBucketPolicy {
	return &TokenBucketPolicy{
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		maxErrors: maxErrors,
	}
}

func (p *TokenBucketPolicy) Reset() { p.errors = 0 }

func (p *TokenBucketPolicy) RecordError(t time.Time) { p.errors++ }

func (p *TokenBucketPolicy) Attempt(t time.Time) Verdict {
	if p.maxErrors > 0 && p.errors > p.maxErrors {
		return Exhausted
	}
	if !p.haveVerdict || !p.verdictAt.Equal(t) {
		p.verdictAt = t
		p.verdictReady = p.limiter.AllowN(t, 1)
		p.haveVerdict = true
	}
	if p.verdictReady {
		return Ready
	}
	return Wait
}
