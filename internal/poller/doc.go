// Package poller provides the repeating poll timer for DistroBoard.
//
// This package is internal to DistroBoard. A [Scheduler] invokes a tick
// function at a fixed interval until it is stopped. Each tick runs on its own
// goroutine, so a slow tick can overlap the next one; callers that need
// ordering guarantees must provide them in the tick function.
//
// Stopping a scheduler cancels the timer only. Ticks that are already
// running keep their context and finish on their own, which makes
// [Scheduler.Stop] safe to call from inside a tick.
package poller
