package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cuentas/internal/core"
	"cuentas/internal/log"
	"cuentas/internal/metrics"
	"cuentas/internal/ports"
	"cuentas/internal/sheets"
)

// SyncProcessorConfig holds configuration for the sync processor
type SyncProcessorConfig struct {
	// PollInterval is how often dirty years are mirrored (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many failed writes a year gets before it is dropped
	// until the next full sync (default: 3)
	MaxRetries int

	// FullSyncInterval is how often every year is re-mirrored (default: 10m)
	FullSyncInterval time.Duration
}

// DefaultSyncProcessorConfig returns sensible defaults
func DefaultSyncProcessorConfig() SyncProcessorConfig {
	return SyncProcessorConfig{
		PollInterval:     10 * time.Second,
		MaxRetries:       3,
		FullSyncInterval: 10 * time.Minute,
	}
}

// SyncProcessor mirrors the consolidated history to a spreadsheet. Years are
// marked dirty by record events and written on the next poll; unchanged
// years are not rewritten.
type SyncProcessor struct {
	stores ports.Stores
	mirror sheets.HistoryWriter
	config SyncProcessorConfig
	logger *log.Logger

	pending sync.Mutex
	dirty   map[int]int // year -> failed attempts
	written map[int][]core.HistoryRow
	writeMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewSyncProcessor creates a new sync processor
func NewSyncProcessor(stores ports.Stores, mirror sheets.HistoryWriter, config SyncProcessorConfig, logger *log.Logger) *SyncProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncProcessor{
		stores:  stores,
		mirror:  mirror,
		config:  config,
		logger:  logger.WithComponent(log.ComponentSheets),
		dirty:   map[int]int{},
		written: map[int][]core.HistoryRow{},
	}
}

// MarkDirty schedules year for the next poll.
func (p *SyncProcessor) MarkDirty(year int) {
	p.pending.Lock()
	defer p.pending.Unlock()
	if _, ok := p.dirty[year]; !ok {
		p.dirty[year] = 0
	}
}

// Dirty lists the years waiting to be mirrored, newest first.
func (p *SyncProcessor) Dirty() []int {
	p.pending.Lock()
	defer p.pending.Unlock()
	out := make([]int, 0, len(p.dirty))
	for y := range p.dirty {
		out = append(out, y)
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

// Start begins the processing loop. Returns an error if already running.
func (p *SyncProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sync processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Sync processor started",
		"poll_interval", p.config.PollInterval,
		"full_sync_interval", p.config.FullSyncInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *SyncProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		p.logger.InfoContext(ctx, "Sync processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Sync processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *SyncProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SyncProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	fullTicker := time.NewTicker(p.config.FullSyncInterval)
	defer fullTicker.Stop()

	if err := p.SyncAll(ctx); err != nil {
		p.logger.WarnContext(ctx, "Initial full sync failed", "error", err)
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.ProcessDirty(ctx)
		case <-fullTicker.C:
			if err := p.SyncAll(ctx); err != nil {
				p.logger.WarnContext(ctx, "Full sync failed", "error", err)
			}
		}
	}
}

type collections struct {
	water       []core.WaterRecord
	electricity []core.ElectricityRecord
	internet    []core.InternetRecord
}

func (p *SyncProcessor) load(ctx context.Context) (collections, error) {
	var c collections
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { c.water, err = p.stores.Water.List(gctx); return })
	g.Go(func() (err error) { c.electricity, err = p.stores.Electricity.List(gctx); return })
	g.Go(func() (err error) { c.internet, err = p.stores.Internet.List(gctx); return })
	if err := g.Wait(); err != nil {
		return collections{}, fmt.Errorf("load collections: %w", err)
	}
	return c, nil
}

// SyncAll marks every year that has records dirty and processes them.
func (p *SyncProcessor) SyncAll(ctx context.Context) error {
	c, err := p.load(ctx)
	if err != nil {
		return err
	}
	for _, y := range core.Years(c.water, c.electricity, c.internet) {
		p.MarkDirty(y)
	}
	p.process(ctx, c)
	return nil
}

// ProcessDirty mirrors every dirty year once.
func (p *SyncProcessor) ProcessDirty(ctx context.Context) {
	if len(p.Dirty()) == 0 {
		return
	}
	c, err := p.load(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Cannot load records for sync", "error", err)
		return
	}
	p.process(ctx, c)
}

func (p *SyncProcessor) process(ctx context.Context, c collections) {
	for _, year := range p.Dirty() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rows := core.Consolidate(c.water, c.electricity, c.internet, year)
		if err := p.syncYear(ctx, year, rows); err != nil {
			p.handleFailure(ctx, year, err)
			continue
		}
		p.pending.Lock()
		delete(p.dirty, year)
		p.pending.Unlock()
	}
}

func (p *SyncProcessor) syncYear(ctx context.Context, year int, rows []core.HistoryRow) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	prev, ok := p.written[year]
	if !ok {
		prev, ok = p.readMirrored(ctx, year)
	}
	if ok && slices.Equal(prev, rows) {
		p.written[year] = rows
		metrics.SheetsSyncs.WithLabelValues("unchanged").Inc()
		return nil
	}
	ref, err := p.mirror.WriteHistory(ctx, year, rows)
	if err != nil {
		return fmt.Errorf("write history %d: %w", year, err)
	}
	p.written[year] = rows
	metrics.SheetsSyncs.WithLabelValues("written").Inc()
	p.logger.InfoContext(ctx, "Synced history", log.FieldYear, year, "rows", len(rows), "ref", ref)
	return nil
}

// readMirrored asks a readable mirror what it holds for year, so a restarted
// worker does not rewrite every tab on its first full sync.
func (p *SyncProcessor) readMirrored(ctx context.Context, year int) ([]core.HistoryRow, bool) {
	reader, ok := p.mirror.(sheets.HistoryReader)
	if !ok {
		return nil, false
	}
	rows, err := reader.ReadHistory(ctx, year)
	if err != nil {
		p.logger.DebugContext(ctx, "Cannot read mirrored history, rewriting", log.FieldYear, year, "error", err)
		return nil, false
	}
	return rows, true
}

// handleFailure keeps the year dirty until MaxRetries is reached.
func (p *SyncProcessor) handleFailure(ctx context.Context, year int, syncErr error) {
	metrics.SheetsSyncs.WithLabelValues("error").Inc()

	p.pending.Lock()
	defer p.pending.Unlock()
	p.dirty[year]++
	attempts := p.dirty[year]

	p.logger.WarnContext(ctx, "History sync failed", log.FieldYear, year, "attempt", attempts, "error", syncErr)
	if attempts >= p.config.MaxRetries {
		delete(p.dirty, year)
		p.logger.ErrorContext(ctx, "History sync dropped after max retries; waiting for next full sync",
			log.FieldYear, year, "attempts", attempts)
	}
}
