package cmd

import (
	"context"
	"github.com/spf13/cobra"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func Start() {
	cfg := newCfg("env")
	slog.SetLogLoggerLevel(slog.Level(cfg.GetInt("log.level")))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var scheduleFile string

	importCmd := &cobra.Command{
		Use:   "capacity:import",
		Short: "Import a monthly staff schedule into the capacity store",
		Run: func(cmd *cobra.Command, args []string) {
			runCapacityImportCmd(ctx, scheduleFile)
		},
	}
	importCmd.Flags().StringVarP(&scheduleFile, "file", "f", "", "schedule yaml file")
	_ = importCmd.MarkFlagRequired("file")

	rootCmd := &cobra.Command{Use: "cleanny-dispatch"}
	cmd := []*cobra.Command{
		{
			Use:   "serve-http",
			Short: "Run HTTP server",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
		},
		{
			Use:   "serve-queue:dispatch",
			Short: "Run queue dispatch server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueDispatchCmd(ctx)
			},
		},
		{
			Use:   "serve-queue:notify",
			Short: "Run queue notify server",
			Run: func(cmd *cobra.Command, args []string) {
				runQueueNotifyCmd(ctx)
			},
		},
		importCmd,
		{
			Use:   "dev",
			Short: "Run dev server, for testing purpose",
			Run: func(cmd *cobra.Command, args []string) {
				runHttpServerCmd(ctx)
			},
			PreRun: func(cmd *cobra.Command, args []string) {
				go func() {
					runQueueDispatchCmd(ctx)
				}()
				go func() {
					runQueueNotifyCmd(ctx)
				}()
			},
		},
	}

	rootCmd.AddCommand(cmd...)
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
