package op

import (
	"context"
	"errors"
	"fmt"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"gorm.io/gorm"
)

// MessageAdd inserts msg in its own commit.
func MessageAdd(ctx context.Context, msg *model.Message) error {
	if msg.ConversationID == 0 {
		return fmt.Errorf("message has no conversation")
	}
	if err := db.GetDB().WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to insert %s message: %w", msg.Role, err)
	}
	conversationTouch(ctx, msg.ConversationID)
	return nil
}

func MessageList(ctx context.Context, conversationID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := db.GetDB().WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// MessageRecent returns the last limit messages in chronological order.
func MessageRecent(ctx context.Context, conversationID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := db.GetDB().WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MessagePatchLatestAssistant applies the non-nil fields of meta to the most
// recent assistant message of the conversation.
func MessagePatchLatestAssistant(ctx context.Context, conversationID uint, meta model.MessageMeta) error {
	if meta.Empty() {
		return nil
	}
	tx := db.GetDB().WithContext(ctx)
	var latest model.Message
	err := tx.Where("conversation_id = ? AND role = ?", conversationID, model.RoleAssistant).
		Order("id DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("no assistant message in conversation %d", conversationID)
	}
	if err != nil {
		return err
	}

	updates := map[string]any{}
	if meta.PromptTokens != nil {
		updates["prompt_tokens"] = *meta.PromptTokens
	}
	if meta.CompletionTokens != nil {
		updates["completion_tokens"] = *meta.CompletionTokens
	}
	if meta.ModelID != nil && *meta.ModelID != "" {
		updates["model_id_used"] = *meta.ModelID
	}
	if len(updates) == 0 {
		return nil
	}
	return tx.Model(&model.Message{}).Where("id = ?", latest.ID).Updates(updates).Error
}
