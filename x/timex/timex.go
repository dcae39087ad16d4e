package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Due reports whether interval has elapsed since start, tolerating wrap.
func Due(now, start uint32, interval uint32) bool { return now-start >= interval }

// Millis returns a wrapping millisecond counter relative to t0.
func Millis(t0, now time.Time) uint32 { return uint32(now.Sub(t0) / time.Millisecond) }
