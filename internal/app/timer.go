package app

import (
	"sync"
	"time"
)

// summaryTimers tracks the pending round-summary timeout per session.
// Scheduling replaces any earlier timer for the same session, and a
// manual round advance cancels the pending one, so at most one timeout
// can fire per summary phase.
type summaryTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newSummaryTimers() *summaryTimers {
	return &summaryTimers{timers: make(map[string]*time.Timer)}
}

// schedule arms fire to run after d, replacing any pending timer for
// the session.
func (st *summaryTimers) schedule(sessionID string, d time.Duration, fire func()) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if prev, ok := st.timers[sessionID]; ok {
		prev.Stop()
	}

	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		st.drop(sessionID, tm)
		fire()
	})
	st.timers[sessionID] = tm
}

// cancel stops the session's pending timer, if any. Safe to call when
// the timer already fired or was never set.
func (st *summaryTimers) cancel(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if tm, ok := st.timers[sessionID]; ok {
		tm.Stop()
		delete(st.timers, sessionID)
	}
}

// drop removes the map entry only if it still belongs to the firing
// timer, so a replacement scheduled in the meantime stays tracked.
func (st *summaryTimers) drop(sessionID string, tm *time.Timer) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if cur, ok := st.timers[sessionID]; ok && cur == tm {
		delete(st.timers, sessionID)
	}
}

// stopAll cancels every pending timer. Used on shutdown.
func (st *summaryTimers) stopAll() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, tm := range st.timers {
		tm.Stop()
		delete(st.timers, id)
	}
}
