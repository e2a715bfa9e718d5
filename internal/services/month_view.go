package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"extrato/internal/core"
	applog "extrato/internal/log"
	"extrato/internal/registry"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load started before it finished.
var ErrSuperseded = errors.New("load superseded by a newer one")

// MonthLoader is the part of Aggregator a MonthView drives.
type MonthLoader interface {
	LoadMonth(ctx context.Context, month time.Month, itemIDs []string) (core.Statement, error)
}

// ViewState is an immutable snapshot of a MonthView.
type ViewState struct {
	Seq       uint64
	Month     time.Month
	Loading   bool
	Statement core.Statement
	Err       error
}

// MonthView holds the statement of the selected month for a presentation
// layer. Every load gets a sequence number; only the latest one may publish
// its result. A failed load clears the held statement.
type MonthView struct {
	loader MonthLoader
	items  registry.ItemRegistry
	year   func() int

	mu        sync.Mutex
	seq       uint64
	month     time.Month
	loading   bool
	statement core.Statement
	err       error
	cancel    context.CancelFunc
	listeners []func(ViewState)
}

type loadTicket struct {
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	month  time.Month
	op     string
}

// NewMonthView selects initial (usually the current month). year reports the
// year loads are placed in; it is only used for empty statements.
func NewMonthView(loader MonthLoader, items registry.ItemRegistry, initial time.Month, year func() int) *MonthView {
	if year == nil {
		year = func() int { return time.Now().Year() }
	}
	return &MonthView{
		loader:    loader,
		items:     items,
		year:      year,
		month:     initial,
		statement: core.EmptyStatement(year(), initial),
	}
}

// OnSettled registers fn to be called with the state after each load that
// was not superseded.
func (v *MonthView) OnSettled(fn func(ViewState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Snapshot returns the current state.
func (v *MonthView) Snapshot() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// SelectMonth switches to month and loads it, blocking until the load settles.
func (v *MonthView) SelectMonth(ctx context.Context, month int) (ViewState, error) {
	t, snap, err := v.selectAndBegin(ctx, month)
	if err != nil {
		return snap, err
	}
	return v.run(t)
}

// SelectMonthAsync switches to month and starts loading it in the background.
// The returned snapshot already reports Loading.
func (v *MonthView) SelectMonthAsync(ctx context.Context, month int) (ViewState, error) {
	t, snap, err := v.selectAndBegin(ctx, month)
	if err != nil {
		return snap, err
	}
	go v.run(t)
	return snap, nil
}

// Refresh reloads the selected month, blocking until the load settles.
func (v *MonthView) Refresh(ctx context.Context) (ViewState, error) {
	t, _ := v.begin(ctx)
	return v.run(t)
}

// RefreshAsync reloads the selected month in the background.
func (v *MonthView) RefreshAsync(ctx context.Context) ViewState {
	t, snap := v.begin(ctx)
	go v.run(t)
	return snap
}

// Close cancels the in-flight load, if any.
func (v *MonthView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// selectAndBegin switches month and starts its load in one critical section,
// so the ticket always carries the month this call selected.
func (v *MonthView) selectAndBegin(ctx context.Context, month int) (loadTicket, ViewState, error) {
	if err := core.ValidateMonth(month); err != nil {
		return loadTicket{}, v.Snapshot(), err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.month = time.Month(month)
	return v.beginLocked(ctx, applog.OpSelect), v.snapshotLocked(), nil
}

func (v *MonthView) begin(ctx context.Context) (loadTicket, ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.beginLocked(ctx, applog.OpRefresh), v.snapshotLocked()
}

func (v *MonthView) beginLocked(ctx context.Context, op string) loadTicket {
	if v.cancel != nil {
		v.cancel()
	}
	v.seq++
	loadCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.loading = true

	return loadTicket{ctx: loadCtx, cancel: cancel, seq: v.seq, month: v.month, op: op}
}

func (v *MonthView) run(t loadTicket) (ViewState, error) {
	defer t.cancel()

	st, err := v.load(t)

	v.mu.Lock()
	if t.seq != v.seq {
		snap := v.snapshotLocked()
		v.mu.Unlock()
		applog.ForComponent(applog.ComponentView).DebugContext(t.ctx, "Discarding superseded load",
			applog.FieldOperation, t.op,
			applog.FieldSeq, t.seq,
			"latest_seq", snap.Seq)
		return snap, ErrSuperseded
	}

	v.loading = false
	v.cancel = nil
	if err != nil {
		v.statement = core.EmptyStatement(v.year(), t.month)
		v.err = err
	} else {
		v.statement = st
		v.err = nil
	}
	snap := v.snapshotLocked()
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()

	if err != nil {
		applog.ForComponent(applog.ComponentView).ErrorContext(t.ctx, "Month load failed",
			applog.FieldOperation, t.op,
			applog.FieldSeq, t.seq,
			applog.FieldMonth, int(t.month),
			applog.FieldError, err)
	}
	for _, fn := range listeners {
		fn(snap)
	}
	return snap, err
}

func (v *MonthView) load(t loadTicket) (core.Statement, error) {
	ids, err := v.items.ItemIDs(t.ctx)
	if err != nil {
		return core.Statement{}, err
	}
	return v.loader.LoadMonth(t.ctx, t.month, ids)
}

func (v *MonthView) snapshotLocked() ViewState {
	return ViewState{
		Seq:       v.seq,
		Month:     v.month,
		Loading:   v.loading,
		Statement: v.statement,
		Err:       v.err,
	}
}
