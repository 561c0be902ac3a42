package main

import (
	"context"
	"fmt"

	"cuentas/internal/amqp"
	"cuentas/internal/auth"
	"cuentas/internal/backend"
	"cuentas/internal/cli"
	"cuentas/internal/config"
	"cuentas/internal/localstore"
	"cuentas/internal/log"
	"cuentas/internal/services"
)

// app is what every subcommand needs: config, storage and the services on top.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	backend *backend.Result
	fixed   *services.FixedValuesService
	ledger  *services.Ledger
	auth    *auth.Service
	events  *amqp.Client
}

// openApp wires the services over the configured backend and loads the ledger.
// withEvents connects the AMQP publisher when AMQP_URL is set.
func openApp(ctx context.Context, withEvents bool) (*app, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg)

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, backend: res}

	local := localstore.New(res.Stores.KV)
	a.fixed, err = services.NewFixedValuesService(local, cfg.FixedValuesFile, logger)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("fixed values: %w", err)
	}

	var opts []services.LedgerOption
	if withEvents && cfg.AMQPURL != "" {
		a.events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without record events", "error", err)
		} else {
			opts = append(opts, services.WithEvents(a.events))
		}
	}
	a.ledger = services.NewLedger(res.Stores, local, a.fixed, logger, opts...)
	if err := a.ledger.Refresh(ctx); err != nil {
		logger.Warn("Initial load failed, serving cached data", "error", err)
	}

	var mailer auth.Mailer
	if cfg.SMTPHost != "" {
		mailer = auth.NewSMTPMailer(auth.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	a.auth = auth.NewService(res.Stores.Users, mailer, auth.Options{
		SessionTTL: cfg.SessionTTL,
		ResetTTL:   cfg.ResetTokenTTL,
		BaseURL:    cfg.BaseURL,
	}, logger)
	return a, nil
}

func (a *app) Close(context.Context) error {
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("Closing AMQP client", "error", err)
		}
	}
	return a.backend.Close()
}
