package task

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/metrics"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
)

const (
	TaskCatalogRefresh = "catalog_refresh"
	TaskRelayLogSave   = "relay_log_save"
	TaskRelayLogClean  = "relay_log_clean"
)

var ErrNoResolver = errors.New("model resolver is not initialized")

// Init registers the periodic tasks with intervals from the settings.
func Init() {
	catalogHours, err := op.SettingGetInt(model.SettingKeyCatalogRefreshInterval)
	if err != nil {
		log.Errorf("failed to get catalog refresh interval: %v", err)
		catalogHours = 6
	}
	Register(TaskCatalogRefresh, time.Duration(catalogHours)*time.Hour, false, func(ctx context.Context) error {
		_, err := RefreshCatalog(ctx)
		return err
	})

	saveMinutes, err := op.SettingGetInt(model.SettingKeyRelayLogSaveInterval)
	if err != nil {
		log.Warnf("failed to get relay log save interval: %v", err)
		saveMinutes = 10
	}
	Register(TaskRelayLogSave, time.Duration(saveMinutes)*time.Minute, false, op.RelayLogSaveDBTask)
	Register(TaskRelayLogClean, 24*time.Hour, false, op.RelayLogCleanup)
}

// SettingChanged applies a saved setting to the task it drives.
func SettingChanged(s model.Setting) {
	n, err := strconv.Atoi(s.Value)
	if err != nil {
		return
	}
	switch s.Key {
	case model.SettingKeyCatalogRefreshInterval:
		Update(TaskCatalogRefresh, time.Duration(n)*time.Hour)
	case model.SettingKeyRelayLogSaveInterval:
		Update(TaskRelayLogSave, time.Duration(n)*time.Minute)
	}
}

// RefreshCatalog syncs the OpenRouter catalog through the default resolver
// and records the result.
func RefreshCatalog(ctx context.Context) (model.CatalogSyncResult, error) {
	r := availability.Default()
	if r == nil {
		return model.CatalogSyncResult{}, ErrNoResolver
	}
	result, err := r.Refresh(ctx)
	metrics.Default().CatalogRefresh(err, result.Total)
	if err != nil {
		return result, err
	}
	log.Infof("catalog refreshed: %d models, %d added, %d deactivated", result.Total, len(result.Added), len(result.Deactivated))
	return result, nil
}
