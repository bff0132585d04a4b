package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

// Func is one run of a periodic task. Its error is logged, the task keeps
// its schedule.
type Func func(ctx context.Context) error

type taskEntry struct {
	name       string
	interval   time.Duration
	fn         Func
	runOnStart bool
	started    bool
	running    atomic.Bool
	stopCh     chan struct{}
	updateCh   chan time.Duration
}

var (
	tasks   = make(map[string]*taskEntry)
	tasksMu sync.Mutex
)

// Register adds a periodic task. runOnStart runs it once as soon as Run is
// called. A non-positive interval leaves the task unregistered.
func Register(name string, interval time.Duration, runOnStart bool, fn Func) {
	if interval <= 0 {
		log.Debugf("task %s disabled: interval is 0", name)
		return
	}
	tasksMu.Lock()
	defer tasksMu.Unlock()
	if _, exists := tasks[name]; exists {
		log.Warnf("task %s already registered", name)
		return
	}
	tasks[name] = &taskEntry{
		name:       name,
		interval:   interval,
		fn:         fn,
		runOnStart: runOnStart,
		stopCh:     make(chan struct{}),
		updateCh:   make(chan time.Duration, 1),
	}
	log.Debugf("task %s registered every %v", name, interval)
}

// Update changes the interval of a task. An interval of 0 removes it.
func Update(name string, interval time.Duration) {
	tasksMu.Lock()
	entry, exists := tasks[name]
	if !exists {
		tasksMu.Unlock()
		log.Warnf("task %s not found", name)
		return
	}
	if interval <= 0 {
		delete(tasks, name)
		tasksMu.Unlock()
		close(entry.stopCh)
		log.Infof("task %s removed", name)
		return
	}
	tasksMu.Unlock()

	// a newer interval replaces one that was not picked up yet
	select {
	case <-entry.updateCh:
	default:
	}
	entry.updateCh <- interval
	log.Infof("task %s now runs every %v", name, interval)
}

// Run starts every registered task that is not running yet and returns.
// Tasks stop with ctx.
func Run(ctx context.Context) {
	tasksMu.Lock()
	defer tasksMu.Unlock()
	for _, entry := range tasks {
		if entry.started {
			continue
		}
		entry.started = true
		go entry.loop(ctx)
	}
}

func (e *taskEntry) loop(ctx context.Context) {
	if e.runOnStart {
		go e.fire(ctx)
	}
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			go e.fire(ctx)
		case d := <-e.updateCh:
			ticker.Reset(d)
			e.interval = d
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// fire runs the task unless the previous run is still going.
func (e *taskEntry) fire(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		log.Debugf("task %s still running, tick skipped", e.name)
		return
	}
	defer e.running.Store(false)
	if err := e.fn(ctx); err != nil {
		log.Warnf("task %s failed: %v", e.name, err)
	}
}
