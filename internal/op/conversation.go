package op

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/xstrings"
	"gorm.io/gorm"
)

var ErrConversationNotFound = errors.New("conversation not found")

const conversationTitleMaxRunes = 60

func ownedBy(tx *gorm.DB, who model.Identity) *gorm.DB {
	if who.Anonymous() {
		return tx.Where("user_id IS NULL AND anonymous_id = ?", who.AnonymousID)
	}
	return tx.Where("user_id = ?", who.UserID)
}

// ConversationGetOrCreate returns the caller's conversation id, or a new
// conversation titled after firstMessage when id is nil, unknown or owned by
// someone else.
func ConversationGetOrCreate(ctx context.Context, who model.Identity, id *uint, firstMessage string) (*model.Conversation, error) {
	tx := db.GetDB().WithContext(ctx)
	if id != nil && *id != 0 {
		var conv model.Conversation
		err := ownedBy(tx.Model(&model.Conversation{}), who).Where("id = ?", *id).First(&conv).Error
		if err == nil {
			return &conv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
	}
	conv := model.Conversation{
		UserID:      who.UserIDPtr(),
		AnonymousID: who.AnonymousID,
		Title:       conversationTitle(firstMessage),
	}
	if err := tx.Create(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conv, nil
}

func conversationTitle(msg string) string {
	if msg == "" {
		return "New conversation"
	}
	return xstrings.Truncate(msg, conversationTitleMaxRunes)
}

func ConversationList(ctx context.Context, who model.Identity, page, pageSize int) ([]model.Conversation, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	var list []model.Conversation
	err := ownedBy(db.GetDB().WithContext(ctx).Model(&model.Conversation{}), who).
		Order("updated_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&list).Error
	return list, err
}

func ConversationGet(ctx context.Context, who model.Identity, id uint) (*model.ConversationDetail, error) {
	var conv model.Conversation
	err := ownedBy(db.GetDB().WithContext(ctx).Model(&model.Conversation{}), who).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	msgs, err := MessageList(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &model.ConversationDetail{Conversation: conv, Messages: msgs}, nil
}

func ConversationDelete(ctx context.Context, who model.Identity, id uint) error {
	return db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := ownedBy(tx.Model(&model.Conversation{}), who).Where("id = ?", id).Delete(&model.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&model.Message{}).Error
	})
}

func conversationTouch(ctx context.Context, id uint) {
	db.GetDB().WithContext(ctx).Model(&model.Conversation{}).Where("id = ?", id).Update("updated_at", time.Now())
}
