package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cuentas/internal/amqp"
	"cuentas/internal/cli"
	"cuentas/internal/services"
	"cuentas/internal/sheets"
	gsheet "cuentas/internal/sheets/google"
	memsheets "cuentas/internal/sheets/memory"
	"cuentas/internal/worker"
)

var rootCmd = &cobra.Command{
	Use:          "cuentas-worker",
	Short:        "Mirror the consolidated history to Google Sheets",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().Bool("once", false, "Sync every year once and exit")
	rootCmd.Flags().Bool("eager", false, "Sync a year as soon as its record event arrives")
}

func main() {
	cli.LoadEnvFile()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting cuentas-worker")

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	var mirror sheets.HistoryWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:    cfg.GoogleSpreadsheetID,
			HistorySheetName: cfg.GoogleHistorySheetName,
			CredentialsJSON:  cfg.GoogleServiceAccountJSON,
			CredentialsFile:  cfg.GoogleServiceAccountFile,
			Logger:           logger,
		})
		if err != nil {
			return fmt.Errorf("google sheets client: %w", err)
		}
		mirror = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		mirror = memsheets.New()
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, mirroring in memory")
	}

	pcfg := services.DefaultSyncProcessorConfig()
	if cfg.SyncInterval > 0 {
		pcfg.FullSyncInterval = cfg.SyncInterval
	}
	processor := services.NewSyncProcessor(res.Stores, mirror, pcfg, logger)
	w := worker.NewSyncWorker(processor, logger)
	w.Eager, _ = cmd.Flags().GetBool("eager")

	if once, _ := cmd.Flags().GetBool("once"); once {
		return w.StartupSyncCheck(ctx)
	}

	if err := processor.Start(ctx); err != nil {
		return err
	}

	var consumeErr error
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return errors.Join(err, processor.Stop(context.Background()))
		}
		defer client.Close()
		// Run blocks until the signal context ends or the broker gives up.
		consumeErr = w.Run(ctx, client)
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL, relying on periodic full syncs")
		<-ctx.Done()
	}

	return errors.Join(consumeErr, cli.GracefulShutdown(logger, 30*time.Second, processor.Stop))
}
