package op

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/cache"
	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

var settingCache = cache.New[model.SettingKey, string](16)

// SettingList returns the runtime settings in their declaration order.
func SettingList(ctx context.Context) ([]model.Setting, error) {
	return lo.FilterMap(model.DefaultSettings(), func(d model.Setting, _ int) (model.Setting, bool) {
		v, ok := settingCache.Get(d.Key)
		return model.Setting{Key: d.Key, Value: v}, ok
	}), nil
}

func SettingGetString(key model.SettingKey) (string, error) {
	v, ok := settingCache.Get(key)
	if !ok {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	return v, nil
}

// SettingSetString validates and stores the value. Unknown keys are rejected.
func SettingSetString(ctx context.Context, key model.SettingKey, value string) error {
	s := model.Setting{Key: key, Value: value}
	if err := s.Validate(); err != nil {
		return err
	}
	current, ok := settingCache.Get(key)
	if !ok {
		return fmt.Errorf("setting not found: %s", key)
	}
	if current == value {
		return nil
	}
	err := db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&s).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	settingCache.Set(key, value)
	return nil
}

func SettingGetInt(key model.SettingKey) (int, error) {
	v, err := SettingGetString(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func SettingGetBool(key model.SettingKey) (bool, error) {
	v, err := SettingGetString(key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(v)
}

// settingRefreshCache loads the stored settings and inserts the defaults of
// keys that have no row yet.
func settingRefreshCache(ctx context.Context) error {
	conn := db.GetDB().WithContext(ctx)

	var stored []model.Setting
	if err := conn.Find(&stored).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	have := lo.SliceToMap(stored, func(s model.Setting) (model.SettingKey, bool) { return s.Key, true })
	missing := lo.Reject(model.DefaultSettings(), func(s model.Setting, _ int) bool { return have[s.Key] })
	if len(missing) > 0 {
		if err := conn.Create(&missing).Error; err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	}

	settingCache.Clear()
	for _, s := range append(stored, missing...) {
		settingCache.Set(s.Key, s.Value)
	}
	return nil
}
