package worker

import (
	"context"
	"errors"
	"slices"
	"testing"

	"cuentas/internal/amqp"
	"cuentas/internal/core"
)

type fakeSyncer struct {
	dirty     []int
	processed int
	fullSyncs int
	fullErr   error
}

func (f *fakeSyncer) MarkDirty(year int)           { f.dirty = append(f.dirty, year) }
func (f *fakeSyncer) ProcessDirty(context.Context) { f.processed++ }
func (f *fakeSyncer) SyncAll(context.Context) error {
	f.fullSyncs++
	return f.fullErr
}

type fakeSource struct {
	events []*amqp.RecordEvent
	err    error
}

func (s fakeSource) ConsumeRecordEvents(ctx context.Context, handler func(context.Context, *amqp.RecordEvent) error) error {
	for _, ev := range s.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
	return s.err
}

func TestHandleRecordEventMarksYear(t *testing.T) {
	s := &fakeSyncer{}
	w := NewSyncWorker(s, nil)

	ev := amqp.NewRecordEvent(amqp.ActionCreated, core.Water, "id-1", core.Period{Year: 2024, Month: 3}, 2500)
	if err := w.HandleRecordEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(s.dirty, []int{2024}) {
		t.Errorf("dirty = %v, want [2024]", s.dirty)
	}
	if s.processed != 0 {
		t.Errorf("lazy worker should leave processing to the poll loop")
	}

	w.Eager = true
	if err := w.HandleRecordEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.processed != 1 {
		t.Errorf("eager worker processed %d times, want 1", s.processed)
	}
}

func TestHandleRecordEventWithoutPeriod(t *testing.T) {
	s := &fakeSyncer{}
	w := NewSyncWorker(s, nil)

	ev := amqp.NewRecordEvent(amqp.ActionDeleted, core.Internet, "gone", core.Period{}, 0)
	if err := w.HandleRecordEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.fullSyncs != 1 || len(s.dirty) != 0 {
		t.Errorf("expected a full sync, got full=%d dirty=%v", s.fullSyncs, s.dirty)
	}

	if err := w.HandleRecordEvent(context.Background(), nil); err == nil {
		t.Error("nil event should fail")
	}
}

func TestStartupSyncCheck(t *testing.T) {
	s := &fakeSyncer{fullErr: errors.New("sheets down")}
	w := NewSyncWorker(s, nil)
	if err := w.StartupSyncCheck(context.Background()); err == nil {
		t.Fatal("expected the sync error to surface")
	}
}

func TestRunConsumesUntilSourceStops(t *testing.T) {
	s := &fakeSyncer{}
	w := NewSyncWorker(s, nil)
	src := fakeSource{
		events: []*amqp.RecordEvent{
			amqp.NewRecordEvent(amqp.ActionCreated, core.Water, "a", core.Period{Year: 2023, Month: 0}, 100),
			amqp.NewRecordEvent(amqp.ActionUpdated, core.Electricity, "b", core.Period{Year: 2024, Month: 5}, 200),
		},
		err: errors.New("broker gone"),
	}
	if err := w.Run(context.Background(), src); err == nil || err.Error() != "broker gone" {
		t.Fatalf("Run error = %v", err)
	}
	if !slices.Equal(s.dirty, []int{2023, 2024}) {
		t.Errorf("dirty = %v", s.dirty)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx, fakeSource{err: context.Canceled}); err != nil {
		t.Errorf("cancelled run should return nil, got %v", err)
	}
}
