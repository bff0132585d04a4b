package op

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/cache"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var catalogCache = cache.New[string, model.ModelDescriptor](64)

var catalogLastSync atomic.Int64

// CatalogActiveIDs reads the active model ids straight from the database.
func CatalogActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.GetDB().WithContext(ctx).Model(&model.ModelDescriptor{}).
		Where("active = ?", true).
		Order("model_id").
		Pluck("model_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active models: %w", err)
	}
	return ids, nil
}

func CatalogGet(id string) (model.ModelDescriptor, bool) {
	return catalogCache.Get(id)
}

func CatalogList(ctx context.Context, activeOnly bool) ([]model.ModelDescriptor, error) {
	if catalogCache.Len() == 0 {
		if err := catalogRefreshCache(ctx); err != nil {
			return nil, err
		}
	}
	list := lo.Values(catalogCache.GetAll())
	if activeOnly {
		list = lo.Filter(list, func(m model.ModelDescriptor, _ int) bool { return m.Active })
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ModelID < list[j].ModelID })
	return list, nil
}

func CatalogCount(ctx context.Context) (int64, error) {
	var n int64
	err := db.GetDB().WithContext(ctx).Model(&model.ModelDescriptor{}).Count(&n).Error
	return n, err
}

// CatalogLastSync is the time of the last successful sync in this process.
func CatalogLastSync() time.Time {
	v := catalogLastSync.Load()
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

// CatalogSync upserts the fetched descriptors as active and deactivates every
// stored model that is missing from them.
func CatalogSync(ctx context.Context, fetched []model.ModelDescriptor) (model.CatalogSyncResult, error) {
	now := time.Now()
	var result model.CatalogSyncResult

	err := db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored []string
		if err := tx.Model(&model.ModelDescriptor{}).Where("active = ?", true).Pluck("model_id", &stored).Error; err != nil {
			return err
		}
		fetchedIDs := lo.Map(fetched, func(m model.ModelDescriptor, _ int) string { return m.ModelID })
		deleted, added := lo.Difference(stored, lo.Uniq(fetchedIDs))
		result.Added = added
		result.Deactivated = deleted

		if len(fetched) > 0 {
			for i := range fetched {
				fetched[i].Active = true
				fetched[i].LastFetchedAt = now
				if fetched[i].DisplayName == "" {
					fetched[i].DisplayName = fetched[i].ModelID
				}
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "model_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"display_name", "is_multimodal", "is_free", "supports_reasoning", "supports_pdf",
					"input_price_per_million", "output_price_per_million", "cost_band",
					"context_length", "active", "last_fetched_at",
				}),
			}).CreateInBatches(fetched, 200).Error
			if err != nil {
				return err
			}
		}
		if len(deleted) > 0 {
			if err := tx.Model(&model.ModelDescriptor{}).Where("model_id IN ?", deleted).Update("active", false).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("failed to sync catalog: %w", err)
	}
	result.Total = len(fetched)
	result.SyncedAt = now.Format(time.RFC3339)
	catalogLastSync.Store(now.Unix())
	if err := catalogRefreshCache(ctx); err != nil {
		return result, err
	}
	return result, nil
}

func catalogRefreshCache(ctx context.Context) error {
	var all []model.ModelDescriptor
	if err := db.GetDB().WithContext(ctx).Find(&all).Error; err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	catalogCache.Clear()
	for _, m := range all {
		catalogCache.Set(m.ModelID, m)
	}
	return nil
}
