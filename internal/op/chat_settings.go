package op

import (
	"context"
	"errors"
	"fmt"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatSettingsGet returns the stored settings of userID. A user without a
// row gets the defaults and no error.
func ChatSettingsGet(ctx context.Context, userID uint) (model.UserChatSettings, error) {
	var s model.UserChatSettings
	err := db.GetDB().WithContext(ctx).Where("user_id = ?", userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultChatSettings(userID), nil
	}
	if err != nil {
		return model.UserChatSettings{}, fmt.Errorf("failed to load chat settings: %w", err)
	}
	return s, nil
}

func ChatSettingsUpdate(ctx context.Context, userID uint, u model.UserChatSettingsUpdate) (model.UserChatSettings, error) {
	s, err := ChatSettingsGet(ctx, userID)
	if err != nil {
		return s, err
	}
	s.Apply(u)
	err = db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"auto_fallback_enabled", "temperature", "top_p", "max_tokens", "system_prompt", "updated_at"}),
	}).Create(&s).Error
	if err != nil {
		return s, fmt.Errorf("failed to save chat settings: %w", err)
	}
	return s, nil
}
