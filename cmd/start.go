package cmd

import (
	"context"

	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"github.com/gloriamundo/gloriamundo/internal/relay"
	"github.com/gloriamundo/gloriamundo/internal/server"
	"github.com/gloriamundo/gloriamundo/internal/server/auth"
	"github.com/gloriamundo/gloriamundo/internal/task"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/gloriamundo/gloriamundo/internal/utils/shutdown"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start " + conf.APP_NAME,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := conf.Load(cfgFile); err != nil {
			return err
		}
		log.Setup(conf.AppConfig.Log.Level, conf.AppConfig.Log.Format)
		conf.PrintBanner()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		shutdown.Init(log.Logger)
		defer shutdown.Listen()
		if err := openDatabase(); err != nil {
			log.Errorf("database init error: %v", err)
			return
		}
		shutdown.Register(db.Close)

		if err := op.InitCache(); err != nil {
			log.Errorf("cache init error: %v", err)
			return
		}
		shutdown.Register(op.SaveCache)

		if err := op.UserInit(); err != nil {
			log.Errorf("user init error: %v", err)
			return
		}
		auth.SetSecret(conf.AppConfig.Auth.JWTSecret)

		or, err := newOpenRouter()
		if err != nil {
			log.Errorf("openrouter client error: %v", err)
			return
		}
		buildRuntime(or)
		shutdown.Register(func() error {
			relay.Default().Wait()
			return nil
		})

		if err := server.Start(); err != nil {
			log.Errorf("server start error: %v", err)
			return
		}
		shutdown.Register(server.Close)

		ctx, cancel := context.WithCancel(context.Background())
		shutdown.Register(func() error {
			cancel()
			return nil
		})
		go task.Startup().Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
