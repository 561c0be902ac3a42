package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cuentas/internal/cache"
	"cuentas/internal/cli"
	apphttp "cuentas/internal/http"
	"cuentas/internal/insights"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "Port to listen on (overrides PORT)")
	serveCmd.Flags().Bool("log-only-probes", false, "Log suspicious requests without blocking them")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := cli.SignalContext(cli.SetupLogger(nil))
	defer cancel()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	logger := a.logger
	cfg := a.cfg

	if created, err := a.auth.Bootstrap(ctx, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword); err != nil {
		logger.Error("Bootstrap admin failed", "error", err)
	} else if created {
		logger.Info("Bootstrap admin created", "email", cfg.BootstrapAdminEmail)
	}

	caches := cache.NewManager(logger)
	for _, c := range a.auth.Caches() {
		caches.Register(c)
	}
	caches.StartCleanup(5 * time.Minute)
	go a.ledger.RunRefresh(ctx, cfg.RefreshInterval)

	var ai *insights.Client
	if cfg.InsightsURL != "" {
		ai = insights.New(insights.Config{
			BaseURL: cfg.InsightsURL,
			APIKey:  cfg.InsightsAPIKey,
			Model:   cfg.InsightsModel,
			Timeout: cfg.InsightsTimeout,
		}, logger)
	}

	port := cfg.Port
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		port = p
	}
	logOnly, _ := cmd.Flags().GetBool("log-only-probes")

	srv, err := apphttp.NewServer(":"+port, apphttp.Deps{
		Ledger:             a.ledger,
		Fixed:              a.fixed,
		Auth:               a.auth,
		Insights:           ai,
		Pinger:             a.backend.Pinger,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      strings.HasPrefix(cfg.BaseURL, "https://"),
		BlockSuspicious:    !logOnly,
	})
	if err != nil {
		a.Close(ctx)
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting cuentas server", "port", port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		logger.Error("Server error", "error", err, "port", port)
	}

	shutdownErr := cli.GracefulShutdown(logger, 30*time.Second,
		srv.Shutdown,
		func(context.Context) error { caches.Stop(); return nil },
		a.Close,
	)
	return errors.Join(err, shutdownErr)
}
