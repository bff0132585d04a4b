package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/samber/lo"
)

type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Step is one unit of startup work. Lower Priority runs first among the
// steps whose dependencies in After are done.
type Step struct {
	Name     string
	Priority int
	After    []string
	Run      func(ctx context.Context) error
}

type StepResult struct {
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

// Bootstrap runs startup steps one at a time on the calling goroutine.
type Bootstrap struct {
	steps []Step
}

func NewBootstrap(steps ...Step) *Bootstrap {
	return &Bootstrap{steps: steps}
}

func (b *Bootstrap) Add(s Step) *Bootstrap {
	b.steps = append(b.steps, s)
	return b
}

// Run executes every step and returns the results in execution order. A step
// whose dependency failed, was skipped, is unknown or sits on a cycle is
// skipped. Steps left when ctx ends are skipped too.
func (b *Bootstrap) Run(ctx context.Context) []StepResult {
	results := make([]StepResult, 0, len(b.steps))
	status := make(map[string]StepStatus, len(b.steps))
	known := make(map[string]bool, len(b.steps))
	pending := make([]Step, 0, len(b.steps))

	for _, s := range b.steps {
		if known[s.Name] {
			results = append(results, StepResult{Name: s.Name, Status: StepSkipped, Err: fmt.Errorf("duplicate step %q", s.Name)})
			continue
		}
		known[s.Name] = true
		pending = append(pending, s)
	}

	finish := func(r StepResult) {
		status[r.Name] = r.Status
		results = append(results, r)
		switch r.Status {
		case StepDone:
			log.Infof("bootstrap step %s done in %v", r.Name, r.Duration)
		case StepFailed:
			log.Warnf("bootstrap step %s failed: %v", r.Name, r.Err)
		default:
			log.Warnf("bootstrap step %s skipped: %v", r.Name, r.Err)
		}
	}

	for len(pending) > 0 {
		var ready []int
		var blocked []Step
		for i, s := range pending {
			if err := b.blockedBy(s, known, status); err != nil {
				finish(StepResult{Name: s.Name, Status: StepSkipped, Err: err})
				blocked = append(blocked, s)
				continue
			}
			if lo.EveryBy(s.After, func(dep string) bool { return status[dep] == StepDone }) {
				ready = append(ready, i)
			}
		}
		if len(blocked) > 0 {
			pending = lo.Filter(pending, func(s Step, _ int) bool { return !lo.ContainsBy(blocked, func(x Step) bool { return x.Name == s.Name }) })
			continue
		}
		if len(ready) == 0 {
			names := lo.Map(pending, func(s Step, _ int) string { return s.Name })
			for _, s := range pending {
				finish(StepResult{Name: s.Name, Status: StepSkipped, Err: fmt.Errorf("dependency cycle among %s", strings.Join(names, ", "))})
			}
			break
		}

		next := lo.MinBy(ready, func(a, b int) bool { return pending[a].Priority < pending[b].Priority })
		s := pending[next]
		pending = append(pending[:next:next], pending[next+1:]...)

		if err := ctx.Err(); err != nil {
			finish(StepResult{Name: s.Name, Status: StepSkipped, Err: err})
			continue
		}
		finish(runStep(ctx, s))
	}
	return results
}

// blockedBy reports why s can never run, or nil while it still can.
func (b *Bootstrap) blockedBy(s Step, known map[string]bool, status map[string]StepStatus) error {
	for _, dep := range s.After {
		if !known[dep] {
			return fmt.Errorf("unknown dependency %q", dep)
		}
		switch status[dep] {
		case StepFailed:
			return fmt.Errorf("dependency %q failed", dep)
		case StepSkipped:
			return fmt.Errorf("dependency %q was skipped", dep)
		}
	}
	return nil
}

func runStep(ctx context.Context, s Step) (res StepResult) {
	start := time.Now()
	res = StepResult{Name: s.Name, Status: StepDone}
	defer func() {
		if r := recover(); r != nil {
			res.Status = StepFailed
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Duration = time.Since(start)
	}()
	if s.Run == nil {
		return res
	}
	if err := s.Run(ctx); err != nil {
		res.Status = StepFailed
		res.Err = err
	}
	return res
}
