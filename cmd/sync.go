package cmd

import (
	"context"
	"fmt"

	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/task"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/spf13/cobra"
)

var syncModelsCmd = &cobra.Command{
	Use:   "sync-models",
	Short: "Fetch the OpenRouter catalog once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := conf.Load(cfgFile); err != nil {
			return err
		}
		log.Setup(conf.AppConfig.Log.Level, conf.AppConfig.Log.Format)
		if err := openDatabase(); err != nil {
			return fmt.Errorf("database init error: %w", err)
		}
		defer db.Close()
		if err := op.InitCache(); err != nil {
			return fmt.Errorf("cache init error: %w", err)
		}
		or, err := newOpenRouter()
		if err != nil {
			return err
		}
		buildRuntime(or)

		result, err := task.RefreshCatalog(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("models: %d\nadded: %d\ndeactivated: %d\nsynced at: %s\n", result.Total, len(result.Added), len(result.Deactivated), result.SyncedAt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncModelsCmd)
}
