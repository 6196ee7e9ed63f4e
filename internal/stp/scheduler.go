package stp

import (
	"context"
	"time"
)

// tickInterval is the fixed 100ms scheduler period (spec §4.5).
const tickInterval = 100 * time.Millisecond

// lowPriorityBatchBudget and lowPriorityBatchMax implement spec §5's cap
// on low-priority processing: at most 50ms per pass, at most 5
// callbacks, so a BPDU storm or a burst of config messages cannot starve
// the tick.
const (
	lowPriorityBatchBudget = 50 * time.Millisecond
	lowPriorityBatchMax    = 5
)

// workItem is one low-priority unit of work: a BPDU delivery or a config
// message, scoped to the instance it touches so the dispatch loop can
// flush exactly that instance's dirty fields afterward.
type workItem struct {
	idx StpIndex
	fn  func()
}

// Submit enqueues a low-priority unit of work to run on the engine's
// single dispatch goroutine. Safe to call from any goroutine; this is
// the only point where the outside world hands work to the engine
// (spec §5: raw-frame inputs and the control channel are both
// low-priority sources multiplexed behind the 100ms timer queue).
func (e *Engine) Submit(idx StpIndex, fn func()) {
	e.lowPriority <- workItem{idx: idx, fn: fn}
}

// ensureQueue allocates the low-priority queue if it is still nil, which
// only happens for an Engine not built by NewEngine; NewEngine allocates
// it up front so Submit and Snapshot work before Run has started.
func (e *Engine) ensureQueue() {
	if e.lowPriority == nil {
		e.lowPriority = make(chan workItem, 1024)
	}
}

// Run is the single dispatch loop (spec §5): a two-queue priority
// scheme services the 100ms timer queue before any low-priority source,
// and caps low-priority processing per pass. It blocks until ctx is
// cancelled. Every public entry point reachable from here (Update,
// ReceivedConfigBpdu, management adapter calls wrapped in Submit) is a
// short run-to-completion step; suspension happens only in this loop.
func (e *Engine) Run(ctx context.Context) error {
	e.ensureQueue()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var tick uint64

	for {
		// High-priority check: never let a ready low-priority item run
		// ahead of a due tick.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.nowTick++
			e.dispatchTick(tick)
			tick++
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.nowTick++
			e.dispatchTick(tick)
			tick++
		case item := <-e.lowPriority:
			e.runLowPriorityBatch(item)
		}
	}
}

// runLowPriorityBatch drains up to lowPriorityBatchMax queued items, or
// until lowPriorityBatchBudget elapses, whichever comes first.
func (e *Engine) runLowPriorityBatch(first workItem) {
	deadline := time.Now().Add(lowPriorityBatchBudget)
	item := first

	for n := 0; ; n++ {
		item.fn()
		e.flushDirty(item.idx)

		if n+1 >= lowPriorityBatchMax || time.Now().After(deadline) {
			return
		}

		select {
		case item = <-e.lowPriority:
		default:
			return
		}
	}
}

// dispatchTick implements spec §4.5's two interleaved schedules: one
// fifth of the active instances run their timers every 100ms tick (so
// each instance updates every 500ms), and one tenth of them publish
// counters every second.
func (e *Engine) dispatchTick(tick uint64) {
	group := tick % 5
	for i := 0; i < e.table.Len(); i++ {
		idx := StpIndex(i)
		if uint64(i)%5 != group {
			continue
		}
		if e.table.At(idx).State != InstanceActive {
			continue
		}
		e.Update(idx)
		e.flushDirty(idx)
	}

	pubGroup := (tick / 10) % 10
	for i := 0; i < e.table.Len(); i++ {
		idx := StpIndex(i)
		if uint64(i)%10 != pubGroup {
			continue
		}
		if e.table.At(idx).State != InstanceActive {
			continue
		}
		e.publishCounters(idx)
	}
}
