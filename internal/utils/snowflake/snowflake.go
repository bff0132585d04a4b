package snowflake

import (
	"sync/atomic"
	"time"
)

var last atomic.Int64

// GenerateID returns a process-unique id that never decreases. It is the
// current unix millisecond, bumped past the previous id on collision.
func GenerateID() int64 {
	for {
		prev := last.Load()
		next := max(time.Now().UnixMilli(), prev+1)
		if last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
