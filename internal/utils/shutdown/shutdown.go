package shutdown

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

type logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

var (
	mu    sync.Mutex
	ilog  logger
	hooks []func() error
	once  sync.Once
)

func Init(log logger) {
	mu.Lock()
	defer mu.Unlock()
	ilog = log
	hooks = nil
	once = sync.Once{}
}

// Register adds a hook. Hooks run in reverse registration order, so resources
// opened first are closed last.
func Register(fn func() error) {
	mu.Lock()
	hooks = append(hooks, fn)
	mu.Unlock()
}

// Listen blocks until SIGINT, SIGTERM or SIGHUP, runs the hooks and exits.
func Listen() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	ilog.Infof("relay started, press Ctrl+C to exit")
	sig := <-quit
	ilog.Warnf("received %v, shutting down", sig)
	Shutdown()
	os.Exit(0)
}

// Shutdown runs the hooks once. Later calls do nothing.
func Shutdown() {
	once.Do(func() {
		mu.Lock()
		fns := hooks
		mu.Unlock()
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](); err != nil {
				ilog.Errorf("shutdown hook failed: %v", err)
			}
		}
		ilog.Infof("shutdown completed")
	})
}
