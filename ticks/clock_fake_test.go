package ticks_test

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// fakeClock implements clockz.Clock with manually advanced time, so the tick
// domain can be exercised deterministically.
type fakeClock struct {
	mu      sync.RWMutex
	wg      sync.WaitGroup
	time    time.Time
	waiters []*waiter
}

type waiter struct {
	targetTime time.Time
	destChan   chan time.Time
	afterFunc  func()
	period     time.Duration
	active     bool
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{time: t}
}

func (f *fakeClock) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.time
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   ch,
		active:     true,
	}
	f.waiters = append(f.waiters, w)
	return ch
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) clockz.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	w := &waiter{
		targetTime: f.time.Add(d),
		afterFunc:  fn,
		active:     true,
	}
	f.waiters = append(f.waiters, w)
	return &fakeTimer{clock: f, waiter: w}
}

func (f *fakeClock) NewTimer(d time.Duration) clockz.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   ch,
		active:     true,
	}
	f.waiters = append(f.waiters, w)
	return &fakeTimer{clock: f, waiter: w}
}

func (f *fakeClock) NewTicker(d time.Duration) clockz.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	w := &waiter{
		targetTime: f.time.Add(d),
		destChan:   ch,
		period:     d,
		active:     true,
	}
	f.waiters = append(f.waiters, w)
	return &fakeTicker{clock: f, waiter: w}
}

// Step advances the fake clock, firing any waiters that come due.
func (f *fakeClock) Step(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTimeLocked(f.time.Add(d))
}

// HasWaiters reports whether any timer or channel is armed.
func (f *fakeClock) HasWaiters() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, w := range f.waiters {
		if w.active {
			return true
		}
	}
	return false
}

// BlockUntilReady blocks until pending AfterFunc callbacks have completed.
func (f *fakeClock) BlockUntilReady() {
	f.wg.Wait()
}

func (f *fakeClock) Sleep(d time.Duration) {
	<-f.After(d)
}

func (f *fakeClock) Since(t time.Time) time.Duration {
	return f.Now().Sub(t)
}

func (f *fakeClock) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (f *fakeClock) WithDeadline(ctx context.Context, deadline time.Time) (context.Context, context.CancelFunc) {
	return context.WithDeadline(ctx, deadline)
}

func (f *fakeClock) setTimeLocked(t time.Time) {
	if t.Before(f.time) {
		panic("cannot move fake clock backwards")
	}
	f.time = t

	newWaiters := make([]*waiter, 0, len(f.waiters))
	for _, w := range f.waiters {
		if !w.active {
			continue
		}
		if !w.targetTime.After(t) {
			if w.destChan != nil {
				select {
				case w.destChan <- t:
				default:
				}
			}
			if w.afterFunc != nil {
				f.wg.Add(1)
				go func() {
					defer f.wg.Done()
					w.afterFunc()
				}()
			}
			if w.period > 0 {
				w.targetTime = w.targetTime.Add(w.period)
				for !w.targetTime.After(t) {
					select {
					case w.destChan <- w.targetTime:
					default:
					}
					w.targetTime = w.targetTime.Add(w.period)
				}
				newWaiters = append(newWaiters, w)
			}
		} else {
			newWaiters = append(newWaiters, w)
		}
	}
	f.waiters = newWaiters
}

type fakeTimer struct {
	clock  *fakeClock
	waiter *waiter
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := t.waiter.active
	t.waiter.active = false
	return active
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	active := t.waiter.active
	t.waiter.active = true
	t.waiter.targetTime = t.clock.time.Add(d)
	return active
}

func (t *fakeTimer) C() <-chan time.Time {
	return t.waiter.destChan
}

type fakeTicker struct {
	clock  *fakeClock
	waiter *waiter
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.waiter.active = false
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.waiter.destChan
}
