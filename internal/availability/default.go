package availability

import "sync/atomic"

var defaultResolver atomic.Pointer[Resolver]

func SetDefault(r *Resolver) {
	defaultResolver.Store(r)
}

// Default returns the resolver built at start, or nil before that.
func Default() *Resolver {
	return defaultResolver.Load()
}
