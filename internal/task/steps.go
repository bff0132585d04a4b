package task

import (
	"context"
	"errors"

	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

const (
	StepCatalogPopulate = "catalog_populate"
	StepActiveSetWarm   = "active_set_warm"
	StepRelayLogPrune   = "relay_log_prune"
	StepPeriodicTasks   = "periodic_tasks"
)

// Startup is the work deferred off the request path at start. The periodic
// tasks start last and do not depend on the catalog, so a failed first fetch
// is retried by the refresh task.
func Startup() *Bootstrap {
	return NewBootstrap(
		Step{Name: StepCatalogPopulate, Priority: 0, Run: populateCatalog},
		Step{Name: StepActiveSetWarm, Priority: 1, After: []string{StepCatalogPopulate}, Run: warmActiveSet},
		Step{Name: StepRelayLogPrune, Priority: 2, Run: op.RelayLogCleanup},
		Step{Name: StepPeriodicTasks, Priority: 3, Run: func(ctx context.Context) error {
			Init()
			Run(ctx)
			return nil
		}},
	)
}

func populateCatalog(ctx context.Context) error {
	n, err := op.CatalogCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("catalog has %d models, skipping initial fetch", n)
		return nil
	}
	_, err = RefreshCatalog(ctx)
	return err
}

func warmActiveSet(ctx context.Context) error {
	r := availability.Default()
	if r == nil {
		return ErrNoResolver
	}
	set := r.ListActiveModels(ctx)
	if set.Len() == 0 {
		return errors.New("no active models after catalog population")
	}
	log.Infof("active model set warmed with %d models", set.Len())
	return nil
}
