// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sensirion

import (
	"runtime"
	"time"
)

// Delayer waits out the execution time of a command.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a function to the Delayer interface.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// Sleep blocks the calling goroutine for the requested duration.
var Sleep Delayer = DelayFunc(time.Sleep)

// CooperativeSlice is the longest Cooperative sleeps between two calls to
// yield.
const CooperativeSlice = time.Millisecond

// Cooperative returns a Delayer that keeps calling yield until the requested
// duration elapsed, handing control to the caller's scheduler in between. When
// yield is nil, runtime.Gosched is used.
//
// Between two calls to yield it sleeps at most CooperativeSlice, so a yield
// that returns immediately doesn't spin a core.
func Cooperative(yield func()) Delayer {
	if yield == nil {
		yield = runtime.Gosched
	}
	return DelayFunc(func(d time.Duration) {
		deadline := time.Now().Add(d)
		for {
			yield()
			left := time.Until(deadline)
			if left <= 0 {
				return
			}
			time.Sleep(min(left, CooperativeSlice))
		}
	})
}
