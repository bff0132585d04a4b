package op

import (
	"context"
	"errors"
	"fmt"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"gorm.io/gorm"
)

var ErrTransactionExists = errors.New("transaction already recorded")

func TransactionCreate(ctx context.Context, txn *model.Transaction) error {
	err := db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Transaction{}).Where("external_id = ?", txn.ExternalID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrTransactionExists
		}
		return tx.Create(txn).Error
	})
	if err != nil && !errors.Is(err, ErrTransactionExists) {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return err
}

func TransactionList(ctx context.Context, page, pageSize int) ([]model.Transaction, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	var list []model.Transaction
	err := db.GetDB().WithContext(ctx).Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error
	return list, err
}
