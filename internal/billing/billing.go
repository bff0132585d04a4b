// Package billing is the boundary to the commission bookkeeping that runs
// after a paid transaction. Referral attribution lives behind
// CommissionRecorder and is not part of this service.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/shopspring/decimal"
)

const defaultCurrency = "USD"

var ErrInvalidAmount = errors.New("transaction amount must be positive")

// CommissionRecorder looks up referral attribution for a paid transaction
// and records the commissions it finds.
type CommissionRecorder interface {
	RecordCommission(ctx context.Context, transactionID string, customerUserID uint, amount decimal.Decimal) error
}

// LogRecorder only logs the call. It is the recorder used when no external
// bookkeeping is configured.
type LogRecorder struct{}

func (LogRecorder) RecordCommission(_ context.Context, transactionID string, customerUserID uint, amount decimal.Decimal) error {
	log.Infof("commission hook: transaction %s, user %d, amount %s", transactionID, customerUserID, amount.StringFixed(2))
	return nil
}

type Service struct {
	recorder CommissionRecorder
	save     func(ctx context.Context, txn *model.Transaction) error
}

func NewService(recorder CommissionRecorder) *Service {
	if recorder == nil {
		recorder = LogRecorder{}
	}
	return &Service{recorder: recorder, save: op.TransactionCreate}
}

// CompleteTransaction stores a paid transaction and then notifies the
// recorder. A recorder failure is logged and does not undo the transaction.
func (s *Service) CompleteTransaction(ctx context.Context, in model.TransactionCreate) (*model.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	txn := &model.Transaction{
		ExternalID: strings.TrimSpace(in.ExternalID),
		UserID:     in.UserID,
		Amount:     in.Amount,
		Currency:   currency,
	}
	if txn.ExternalID == "" {
		return nil, fmt.Errorf("transaction id is required")
	}
	if err := s.save(ctx, txn); err != nil {
		return nil, err
	}
	if err := s.recorder.RecordCommission(ctx, txn.ExternalID, txn.UserID, txn.Amount); err != nil {
		log.Errorf("commission recording for transaction %s failed: %v", txn.ExternalID, err)
	}
	return txn, nil
}

var defaultService = NewService(nil)

func Default() *Service {
	return defaultService
}

// SetRecorder replaces the recorder of the default service.
func SetRecorder(r CommissionRecorder) {
	defaultService = NewService(r)
}
