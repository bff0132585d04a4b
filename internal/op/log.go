package op

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/gloriamundo/gloriamundo/internal/utils/snowflake"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	relayLogBatch     = 20  // buffered entries that trigger a flush
	relayLogMemWindow = 100 // entries kept in memory when persistence is off
)

// relayLogs buffers entries between flushes. flushMu serializes flushes so
// that an entry is written exactly once.
var relayLogs struct {
	mu      sync.Mutex
	flushMu sync.Mutex
	buf     []model.RelayLog
}

func relayLogKeep() bool {
	keep, err := SettingGetBool(model.SettingKeyRelayLogKeepEnabled)
	if err != nil {
		log.Warnf("failed to read %s, keeping relay logs: %v", model.SettingKeyRelayLogKeepEnabled, err)
		return true
	}
	return keep
}

func relayLogFlush(ctx context.Context) error {
	relayLogs.flushMu.Lock()
	defer relayLogs.flushMu.Unlock()

	relayLogs.mu.Lock()
	batch := slices.Clone(relayLogs.buf)
	relayLogs.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}

	if err := db.GetDB().WithContext(ctx).CreateInBatches(batch, relayLogBatch).Error; err != nil {
		return err
	}

	// entries added during the write stay buffered
	relayLogs.mu.Lock()
	relayLogs.buf = slices.Clone(relayLogs.buf[min(len(batch), len(relayLogs.buf)):])
	relayLogs.mu.Unlock()
	return nil
}

// RelayLogAdd buffers one entry and flushes once a batch is full. With
// persistence off only the newest entries are kept in memory.
func RelayLogAdd(ctx context.Context, l model.RelayLog) error {
	l.ID = snowflake.GenerateID()
	if l.Time == 0 {
		l.Time = time.Now().Unix()
	}
	keep := relayLogKeep()

	relayLogs.mu.Lock()
	relayLogs.buf = append(relayLogs.buf, l)
	n := len(relayLogs.buf)
	if !keep && n > relayLogMemWindow {
		relayLogs.buf = slices.Clone(relayLogs.buf[n-relayLogMemWindow/2:])
	}
	relayLogs.mu.Unlock()

	if keep && n >= relayLogBatch {
		return relayLogFlush(ctx)
	}
	return nil
}

// RelayLogSaveDBTask flushes the buffer and applies the retention period.
func RelayLogSaveDBTask(ctx context.Context) error {
	start := time.Now()
	defer func() { log.Debugf("relay log save took %s", time.Since(start)) }()

	if !relayLogKeep() {
		return nil
	}
	if err := relayLogFlush(ctx); err != nil {
		return err
	}
	return RelayLogCleanup(ctx)
}

// RelayLogCleanup deletes persisted logs older than the keep period.
func RelayLogCleanup(ctx context.Context) error {
	days, err := SettingGetInt(model.SettingKeyRelayLogKeepPeriod)
	if err != nil || days <= 0 {
		return err
	}
	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	res := db.GetDB().WithContext(ctx).Where("time < ?", cutoff).Delete(&model.RelayLog{})
	if res.Error == nil && res.RowsAffected > 0 {
		log.Infof("pruned %d relay logs older than %d days", res.RowsAffected, days)
	}
	return res.Error
}

// RelayLogList pages newest first over the buffered entries, then the
// persisted ones.
func RelayLogList(ctx context.Context, q model.RelayLogQuery) ([]model.RelayLog, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}

	relayLogs.mu.Lock()
	buffered := lo.Filter(relayLogs.buf, func(l model.RelayLog, _ int) bool { return q.Match(l) })
	relayLogs.mu.Unlock()
	slices.Reverse(buffered)

	offset := (q.Page - 1) * q.PageSize
	result := make([]model.RelayLog, 0, q.PageSize)
	if offset < len(buffered) {
		result = append(result, buffered[offset:min(offset+q.PageSize, len(buffered))]...)
	}

	remaining := q.PageSize - len(result)
	if remaining == 0 || !relayLogKeep() {
		return result, nil
	}
	var stored []model.RelayLog
	err := relayLogQuery(db.GetDB().WithContext(ctx), q).
		Order("id DESC").
		Offset(max(offset-len(buffered), 0)).
		Limit(remaining).
		Find(&stored).Error
	if err != nil {
		return nil, err
	}
	return append(result, stored...), nil
}

func relayLogQuery(tx *gorm.DB, q model.RelayLogQuery) *gorm.DB {
	if q.Start > 0 {
		tx = tx.Where("time >= ?", q.Start)
	}
	if q.End > 0 {
		tx = tx.Where("time <= ?", q.End)
	}
	if q.Model != "" {
		tx = tx.Where("request_model_name = ? OR actual_model_name = ?", q.Model, q.Model)
	}
	if q.FallbackOnly {
		tx = tx.Where("fallback_applied = ?", true)
	}
	return tx
}

func RelayLogClear(ctx context.Context) error {
	relayLogs.mu.Lock()
	relayLogs.buf = nil
	relayLogs.mu.Unlock()
	return db.GetDB().WithContext(ctx).Where("1 = 1").Delete(&model.RelayLog{}).Error
}
