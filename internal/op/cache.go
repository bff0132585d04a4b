package op

import (
	"context"
	"fmt"
	"time"
)

func InitCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := settingRefreshCache(ctx); err != nil {
		return fmt.Errorf("setting refresh cache error: %w", err)
	}
	if err := catalogRefreshCache(ctx); err != nil {
		return fmt.Errorf("catalog refresh cache error: %w", err)
	}
	if err := userRefreshCache(ctx); err != nil {
		return fmt.Errorf("user refresh cache error: %w", err)
	}
	return nil
}

func SaveCache() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return RelayLogSaveDBTask(ctx)
}
