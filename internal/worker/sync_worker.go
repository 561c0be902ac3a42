// Package worker turns record events from the broker into spreadsheet syncs.
package worker

import (
	"context"
	"fmt"

	"cuentas/internal/amqp"
	"cuentas/internal/log"
	"cuentas/internal/metrics"
)

// Syncer is the part of services.SyncProcessor the worker drives.
type Syncer interface {
	MarkDirty(year int)
	ProcessDirty(ctx context.Context)
	SyncAll(ctx context.Context) error
}

// EventSource delivers record events until ctx ends. *amqp.Client implements it.
type EventSource interface {
	ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error
}

// SyncWorker marks the year of every written record dirty. With Eager set the
// year is mirrored right away instead of on the processor's next poll.
type SyncWorker struct {
	syncer Syncer
	logger *log.Logger
	Eager  bool
}

func NewSyncWorker(syncer Syncer, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{syncer: syncer, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleRecordEvent processes a single record event from AMQP.
func (w *SyncWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	if ev == nil {
		return fmt.Errorf("nil record event")
	}
	if ev.Year <= 0 {
		// Deletes of records that were never loaded carry no period.
		w.logger.WarnContext(ctx, "Record event without period, scheduling full sync",
			log.FieldUtility, ev.Utility, log.FieldRecordID, ev.ID)
		return w.syncer.SyncAll(ctx)
	}

	w.logger.InfoContext(ctx, "Processing record event",
		"action", ev.Action,
		log.FieldUtility, ev.Utility,
		log.FieldRecordID, ev.ID,
		log.FieldYear, ev.Year,
		log.FieldMonth, int(ev.Month))

	w.syncer.MarkDirty(ev.Year)
	metrics.EventsConsumed.WithLabelValues(string(ev.Utility), string(ev.Action)).Inc()
	if w.Eager {
		w.syncer.ProcessDirty(ctx)
	}
	return nil
}

// StartupSyncCheck mirrors every year once so events missed while the worker
// was down are caught up.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if err := w.syncer.SyncAll(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed")
	return nil
}

// Run consumes events until ctx ends.
func (w *SyncWorker) Run(ctx context.Context, src EventSource) error {
	err := src.ConsumeRecordEvents(ctx, w.HandleRecordEvent)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
