package timer

import "time"

// Clock supplies the one-shot timers that drive an engine. The engine arms a new tick
// only after the previous one has been applied, so ticks never overlap.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once after d. The returned func cancels the call if it has not fired yet.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// SystemClock is backed by the runtime timers.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
