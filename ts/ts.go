// Package ts deals in the millisecond timestamps stored in the model.
package ts

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock wraps a clockwork.Clock so that servers and tests share one type.
type Clock struct {
	realClock clockwork.Clock
}

func NewRealClock() *Clock {
	return NewClock(clockwork.NewRealClock())
}

func NewClock(c clockwork.Clock) *Clock {
	return &Clock{realClock: c}
}

func (c *Clock) Now() time.Time {
	return c.realClock.Now()
}

// NowMillis is Now as stored in the model.
func (c *Clock) NowMillis() int64 {
	return c.realClock.Now().UnixMilli()
}

func (c *Clock) RealClock() clockwork.Clock {
	return c.realClock
}

// FromMillis converts a stored timestamp to local time, truncated to the
// second, for people to read.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).Local().Truncate(time.Second)
}

// Format renders a stored timestamp for people, or "-" if there isn't one.
func Format(ms *int64) string {
	if ms == nil || *ms == 0 {
		return "-"
	}
	return FromMillis(*ms).Format("2006-01-02 15:04:05")
}
