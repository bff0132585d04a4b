package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ExternalID string          `json:"external_id" gorm:"uniqueIndex;size:128;not null"`
	UserID     uint            `json:"user_id" gorm:"index;not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null"`
	Currency   string          `json:"currency" gorm:"size:8;not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

type TransactionCreate struct {
	ExternalID string          `json:"external_id" binding:"required"`
	UserID     uint            `json:"user_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency"`
}
