package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"cuentas/internal/amqp"
	"cuentas/internal/core"
	"cuentas/internal/localstore"
	"cuentas/internal/log"
	"cuentas/internal/metrics"
	"cuentas/internal/ports"
)

// EventPublisher announces successful writes. *amqp.Client implements it.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// kind binds one record type to its store and in-memory snapshot.
type kind[R core.Record] struct {
	utility  core.Utility
	store    ports.RecordStore[R]
	items    []R
	prepare  func(R) R
	validate func(R, time.Time) error
	total    func(R) core.Money
}

// Ledger is the application-state container: it owns the in-memory snapshot
// of every collection and is the only way to mutate them. Writes are checked
// against the snapshot, persisted, and only then applied to the snapshot and
// the local cache, so a failed write leaves the visible state untouched.
type Ledger struct {
	mu          sync.RWMutex
	water       *kind[core.WaterRecord]
	electricity *kind[core.ElectricityRecord]
	internet    *kind[core.InternetRecord]
	stale       bool
	// writes counts successful mutations; Refresh drops a load that raced one.
	writes uint64

	local  *localstore.Store
	fixed  *FixedValuesService
	events EventPublisher
	logger *log.Logger
	audit  *log.StructuredLogger
	now    func() time.Time
}

// LedgerOption customizes a Ledger.
type LedgerOption func(*Ledger)

// WithEvents publishes record events after each successful write.
func WithEvents(p EventPublisher) LedgerOption {
	return func(l *Ledger) { l.events = p }
}

// WithClock overrides time.Now; tests use it to pin the accepted year range.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(stores ports.Stores, local *localstore.Store, fixed *FixedValuesService, logger *log.Logger, opts ...LedgerOption) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	l := &Ledger{
		water: &kind[core.WaterRecord]{
			utility:  core.Water,
			store:    stores.Water,
			prepare:  func(r core.WaterRecord) core.WaterRecord { r.Normalize(); return r },
			validate: core.WaterRecord.Validate,
			total:    func(r core.WaterRecord) core.Money { return r.TotalToPay },
		},
		electricity: &kind[core.ElectricityRecord]{
			utility:  core.Electricity,
			store:    stores.Electricity,
			prepare:  func(r core.ElectricityRecord) core.ElectricityRecord { r.Normalize(); return r },
			validate: core.ElectricityRecord.Validate,
			total:    func(r core.ElectricityRecord) core.Money { return r.TotalToPay },
		},
		internet: &kind[core.InternetRecord]{
			utility:  core.Internet,
			store:    stores.Internet,
			prepare:  func(r core.InternetRecord) core.InternetRecord { r.Normalize(); return r },
			validate: core.InternetRecord.Validate,
			total:    func(r core.InternetRecord) core.Money { return r.TotalToPay },
		},
		local:  local,
		fixed:  fixed,
		logger: logger,
		audit:  log.NewStructuredLogger(logger),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Refresh reloads every collection from the store. When the store cannot be
// reached the last cached copies are loaded instead and the ledger is marked
// stale; the store error is still returned.
func (l *Ledger) Refresh(ctx context.Context) error {
	l.mu.RLock()
	gen := l.writes
	l.mu.RUnlock()

	var (
		water []core.WaterRecord
		elec  []core.ElectricityRecord
		inet  []core.InternetRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { water, err = l.water.store.List(gctx); return })
	g.Go(func() (err error) { elec, err = l.electricity.store.List(gctx); return })
	g.Go(func() (err error) { inet, err = l.internet.store.List(gctx); return })

	if err := g.Wait(); err != nil {
		l.logger.WarnContext(ctx, "Store unavailable, falling back to local cache", "error", err)
		l.loadCached(ctx)
		return fmt.Errorf("refresh ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writes != gen {
		l.logger.DebugContext(ctx, "Records changed while loading, keeping current snapshot")
		return nil
	}
	replace(ctx, l, l.water, water)
	replace(ctx, l, l.electricity, elec)
	replace(ctx, l, l.internet, inet)
	l.stale = false
	l.logger.InfoContext(ctx, "Ledger loaded",
		"water", len(water), "electricity", len(elec), "internet", len(inet))
	return nil
}

func replace[R core.Record](ctx context.Context, l *Ledger, k *kind[R], records []R) {
	for i := range records {
		records[i] = k.prepare(records[i])
	}
	core.SortRecords(records)
	k.items = records
	syncLocal(ctx, l, k)
}

func (l *Ledger) loadCached(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	loaded := restore(ctx, l, l.water)
	loaded = restore(ctx, l, l.electricity) || loaded
	loaded = restore(ctx, l, l.internet) || loaded
	// Whatever is on screen now predates the failed load.
	if loaded || len(l.water.items)+len(l.electricity.items)+len(l.internet.items) > 0 {
		l.stale = true
	}
}

// RunRefresh reloads the snapshot every interval until ctx is done, so
// records written by other instances show up and a ledger that booted from
// the local cache recovers once the store is back.
func (l *Ledger) RunRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	l.logger.InfoContext(ctx, "Ledger refresh loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Refresh(ctx); err != nil && ctx.Err() == nil {
				l.logger.WarnContext(ctx, "Periodic ledger refresh failed", "error", err)
			}
		}
	}
}

func restore[R core.Record](ctx context.Context, l *Ledger, k *kind[R]) bool {
	if l.local == nil || len(k.items) > 0 {
		return false
	}
	snap, err := localstore.LoadCollection[R](ctx, l.local, k.utility)
	if err != nil {
		if !errors.Is(err, localstore.ErrMissing) {
			l.logger.WarnContext(ctx, "Cannot read cached collection", log.FieldUtility, k.utility, "error", err)
		}
		return false
	}
	k.items = core.Sorted(snap.Records)
	metrics.RecordsInMemory.WithLabelValues(string(k.utility)).Set(float64(len(k.items)))
	return true
}

// syncLocal overwrites the cached copy after a successful persistence outcome.
// Caller holds l.mu.
func syncLocal[R core.Record](ctx context.Context, l *Ledger, k *kind[R]) {
	metrics.RecordsInMemory.WithLabelValues(string(k.utility)).Set(float64(len(k.items)))
	if l.local == nil {
		return
	}
	if err := localstore.SaveCollection(ctx, l.local, k.utility, k.items); err != nil {
		l.logger.WarnContext(ctx, "Cannot update local cache", log.FieldUtility, k.utility, "error", err)
	}
}

// Stale reports whether the snapshot came from the local cache rather than the store.
func (l *Ledger) Stale() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stale
}

func rejected(u core.Utility, err error) {
	reason := metrics.ReasonInvalid
	if errors.Is(err, core.ErrDuplicatePeriod) {
		reason = metrics.ReasonDuplicate
	}
	metrics.ValidationRejections.WithLabelValues(string(u), reason).Inc()
}

func create[R core.Record](ctx context.Context, l *Ledger, k *kind[R], r R) (R, error) {
	var zero R
	r = k.prepare(r)
	if err := k.validate(r, l.now()); err != nil {
		rejected(k.utility, err)
		return zero, err
	}

	l.mu.Lock()
	if err := core.CheckPeriodUnique(k.utility, r, k.items, false); err != nil {
		l.mu.Unlock()
		rejected(k.utility, err)
		return zero, err
	}
	created, err := k.store.Create(ctx, r)
	if err != nil {
		l.mu.Unlock()
		return zero, l.storeFailed(ctx, k.utility, log.OpCreate, err)
	}
	next := make([]R, 0, len(k.items)+1)
	next = append(next, k.items...)
	next = append(next, created)
	core.SortRecords(next)
	k.items = next
	l.writes++
	syncLocal(ctx, l, k)
	l.mu.Unlock()

	l.written(ctx, amqp.ActionCreated, k.utility, created.RecordID(), created.RecordPeriod(), k.total(created))
	return created, nil
}

func update[R core.Record](ctx context.Context, l *Ledger, k *kind[R], r R) (R, error) {
	var zero R
	if r.RecordID() == "" {
		return zero, ports.ErrNotFound
	}
	r = k.prepare(r)
	if err := k.validate(r, l.now()); err != nil {
		rejected(k.utility, err)
		return zero, err
	}

	l.mu.Lock()
	if err := core.CheckPeriodUnique(k.utility, r, k.items, true); err != nil {
		l.mu.Unlock()
		rejected(k.utility, err)
		return zero, err
	}
	if err := k.store.Update(ctx, r); err != nil {
		l.mu.Unlock()
		return zero, l.storeFailed(ctx, k.utility, log.OpUpdate, err)
	}
	next := make([]R, 0, len(k.items)+1)
	for _, existing := range k.items {
		if existing.RecordID() != r.RecordID() {
			next = append(next, existing)
		}
	}
	next = append(next, r)
	core.SortRecords(next)
	k.items = next
	l.writes++
	syncLocal(ctx, l, k)
	l.mu.Unlock()

	l.written(ctx, amqp.ActionUpdated, k.utility, r.RecordID(), r.RecordPeriod(), k.total(r))
	return r, nil
}

func remove[R core.Record](ctx context.Context, l *Ledger, k *kind[R], id string) error {
	l.mu.Lock()
	if err := k.store.Delete(ctx, id); err != nil {
		l.mu.Unlock()
		return l.storeFailed(ctx, k.utility, log.OpDelete, err)
	}
	var gone R
	next := make([]R, 0, len(k.items))
	for _, existing := range k.items {
		if existing.RecordID() == id {
			gone = existing
			continue
		}
		next = append(next, existing)
	}
	k.items = next
	l.writes++
	syncLocal(ctx, l, k)
	l.mu.Unlock()

	var total core.Money
	if gone.RecordID() != "" {
		total = k.total(gone)
	}
	l.written(ctx, amqp.ActionDeleted, k.utility, id, gone.RecordPeriod(), total)
	return nil
}

func (l *Ledger) storeFailed(ctx context.Context, u core.Utility, op string, err error) error {
	if errors.Is(err, core.ErrDuplicatePeriod) {
		rejected(u, err)
		return err
	}
	if !errors.Is(err, ports.ErrNotFound) {
		metrics.PersistenceFailures.WithLabelValues(string(u), op).Inc()
		l.audit.LogError(ctx, "Store write failed", err, log.ComponentLedger, op,
			log.NewFields().WithErrorType(log.ErrorTypeDatabase).WithRecord(string(u), "", 0, 0, 0))
	}
	return fmt.Errorf("%s %s record: %w", op, u, err)
}

func (l *Ledger) written(ctx context.Context, action amqp.Action, u core.Utility, id string, p core.Period, total core.Money) {
	metrics.RecordsWritten.WithLabelValues(string(u), string(action)).Inc()
	l.audit.LogRecordWritten(ctx, string(action), string(u), id, p.Year, int(p.Month), int64(total))

	if l.events == nil {
		return
	}
	if err := l.events.PublishRecordEvent(ctx, amqp.NewRecordEvent(action, u, id, p, total)); err != nil {
		metrics.EventPublishFailures.Inc()
		l.logger.ErrorContext(ctx, "Failed to publish record event", log.FieldUtility, u, log.FieldRecordID, id, "error", err)
	}
}

func (l *Ledger) AddWater(ctx context.Context, r core.WaterRecord) (core.WaterRecord, error) {
	return create(ctx, l, l.water, r)
}

func (l *Ledger) UpdateWater(ctx context.Context, r core.WaterRecord) (core.WaterRecord, error) {
	return update(ctx, l, l.water, r)
}

func (l *Ledger) DeleteWater(ctx context.Context, id string) error {
	return remove(ctx, l, l.water, id)
}

func (l *Ledger) AddElectricity(ctx context.Context, r core.ElectricityRecord) (core.ElectricityRecord, error) {
	return create(ctx, l, l.electricity, r)
}

func (l *Ledger) UpdateElectricity(ctx context.Context, r core.ElectricityRecord) (core.ElectricityRecord, error) {
	return update(ctx, l, l.electricity, r)
}

func (l *Ledger) DeleteElectricity(ctx context.Context, id string) error {
	return remove(ctx, l, l.electricity, id)
}

func (l *Ledger) AddInternet(ctx context.Context, r core.InternetRecord) (core.InternetRecord, error) {
	return create(ctx, l, l.internet, r)
}

func (l *Ledger) UpdateInternet(ctx context.Context, r core.InternetRecord) (core.InternetRecord, error) {
	return update(ctx, l, l.internet, r)
}

func (l *Ledger) DeleteInternet(ctx context.Context, id string) error {
	return remove(ctx, l, l.internet, id)
}

// Delete removes a record of any utility.
func (l *Ledger) Delete(ctx context.Context, u core.Utility, id string) error {
	switch u {
	case core.Water:
		return l.DeleteWater(ctx, id)
	case core.Electricity:
		return l.DeleteElectricity(ctx, id)
	case core.Internet:
		return l.DeleteInternet(ctx, id)
	}
	return core.ErrUnknownUtility
}

// Water returns the water records, most recent first.
func (l *Ledger) Water() []core.WaterRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.WaterRecord(nil), l.water.items...)
}

func (l *Ledger) Electricity() []core.ElectricityRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.ElectricityRecord(nil), l.electricity.items...)
}

func (l *Ledger) Internet() []core.InternetRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.InternetRecord(nil), l.internet.items...)
}

// Snapshot is a consistent copy of all three collections.
type Snapshot struct {
	Water       []core.WaterRecord
	Electricity []core.ElectricityRecord
	Internet    []core.InternetRecord
	Stale       bool
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot{
		Water:       append([]core.WaterRecord(nil), l.water.items...),
		Electricity: append([]core.ElectricityRecord(nil), l.electricity.items...),
		Internet:    append([]core.InternetRecord(nil), l.internet.items...),
		Stale:       l.stale,
	}
}

// FindWater returns the water record with the given id from the snapshot.
func (l *Ledger) FindWater(id string) (core.WaterRecord, bool) {
	return find(l, l.water, id)
}

func (l *Ledger) FindElectricity(id string) (core.ElectricityRecord, bool) {
	return find(l, l.electricity, id)
}

func (l *Ledger) FindInternet(id string) (core.InternetRecord, bool) {
	return find(l, l.internet, id)
}

func find[R core.Record](l *Ledger, k *kind[R], id string) (R, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, r := range k.items {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero R
	return zero, false
}

func (l *Ledger) currentPeriod() core.Period {
	now := l.now()
	return core.Period{Year: now.Year(), Month: core.MonthOf(now.Month())}
}

func (l *Ledger) fixedValues(ctx context.Context) core.FixedValues {
	if l.fixed == nil {
		return core.DefaultFixedValues()
	}
	fv, err := l.fixed.Get(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "Using default fixed values", "error", err)
		return core.DefaultFixedValues()
	}
	return fv
}

// NewWaterDraft prefills a water form for the current month with the configured discount.
func (l *Ledger) NewWaterDraft(ctx context.Context) core.WaterRecord {
	r := core.WaterRecord{
		Period:   l.currentPeriod(),
		Discount: l.fixedValues(ctx).WaterDiscount,
		Status:   core.Pending,
	}
	r.Apply()
	return r
}

// NewElectricityDraft seeds the previous meter from the latest reading.
func (l *Ledger) NewElectricityDraft(context.Context) core.ElectricityRecord {
	l.mu.RLock()
	prev := core.NextPreviousMeter(l.electricity.items)
	l.mu.RUnlock()
	r := core.ElectricityRecord{
		Period:        l.currentPeriod(),
		PreviousMeter: prev,
		CurrentMeter:  prev,
		Status:        core.Pending,
	}
	r.Apply()
	return r
}

// NewInternetDraft prefills the monthly cost from the fixed values.
func (l *Ledger) NewInternetDraft(ctx context.Context) core.InternetRecord {
	r := core.InternetRecord{
		Period:      l.currentPeriod(),
		MonthlyCost: l.fixedValues(ctx).InternetMonthlyCost,
		Status:      core.Pending,
	}
	r.Apply()
	return r
}
