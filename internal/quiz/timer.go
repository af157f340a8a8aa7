package quiz

import "time"

// Ticker is the subset of time.Ticker the engine needs. Tests swap in a fake.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc creates a ticker firing every d.
type NewTickerFunc func(d time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker wraps time.NewTicker.
func NewStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// startTimerLocked replaces any running timer with a new one. e.mu must be held.
func (e *Engine) startTimerLocked() {
	e.stopTimerLocked()
	gen := e.timerGen
	t := e.newTicker(e.interval)
	done := make(chan struct{})
	e.stopTimer = func() {
		t.Stop()
		close(done)
	}
	go func() {
		for {
			select {
			case <-t.C():
				e.tick(gen)
			case <-done:
				return
			}
		}
	}()
}

// stopTimerLocked cancels the running timer. Bumping the generation drops any
// tick that was already in flight. e.mu must be held.
func (e *Engine) stopTimerLocked() {
	if e.stopTimer != nil {
		e.stopTimer()
		e.stopTimer = nil
	}
	e.timerGen++
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.timerGen || !e.state.Answering() {
		return
	}
	e.elapsed++
}

// TimerRunning reports whether a ticker goroutine is active.
func (e *Engine) TimerRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopTimer != nil
}
