package engine

import "time"

// Clock abstracts wall-clock access so windowed logic (simultaneity,
// lockouts, latches) is deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real wall clock.
func SystemClock() Clock { return systemClock{} }

// nowMs 当前毫秒时间戳
func nowMs(c Clock) int64 {
	return c.Now().UnixMilli()
}
