package runtime

import (
	"context"
	"log/slog"
	"mika/internal/util/future"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const minInterval = time.Millisecond

// TimerFunc is invoked each time a timer fires. tick counts firings from 1.
type TimerFunc func(ctx context.Context, tick int) error

// Timer is one pending setTimeout or setInterval registration.
type Timer struct {
	ID     int
	Delay  time.Duration
	Repeat bool

	cancel     chan struct{}
	cancelOnce sync.Once
	result     *future.Future[int]
}

// Result completes with the number of firings once the timer stops.
func (t *Timer) Result() *future.Future[int] { return t.result }

func (t *Timer) stop() {
	t.cancelOnce.Do(func() { close(t.cancel) })
}

// Scheduler runs timer callbacks on their own goroutines. It does not
// serialize them; callers guard interpreter state themselves.
type Scheduler struct {
	mu     sync.Mutex
	nextID int
	timers map[int]*Timer

	group    *errgroup.Group
	ctx      context.Context
	shutdown context.CancelFunc
}

func NewScheduler(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)
	return &Scheduler{
		timers:   make(map[int]*Timer),
		group:    group,
		ctx:      gctx,
		shutdown: cancel,
	}
}

// After fires fn once after delay.
func (s *Scheduler) After(delay time.Duration, fn TimerFunc) *Timer {
	return s.schedule(delay, false, fn)
}

// Every fires fn each interval until cancelled.
func (s *Scheduler) Every(interval time.Duration, fn TimerFunc) *Timer {
	if interval < minInterval {
		interval = minInterval
	}
	return s.schedule(interval, true, fn)
}

func (s *Scheduler) schedule(delay time.Duration, repeat bool, fn TimerFunc) *Timer {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	s.nextID++
	t := &Timer{
		ID:     s.nextID,
		Delay:  delay,
		Repeat: repeat,
		cancel: make(chan struct{}),
		result: future.Pending[int](),
	}
	s.timers[t.ID] = t
	s.mu.Unlock()

	slog.Debug("timer scheduled",
		slog.Int("id", t.ID),
		slog.Duration("delay", delay),
		slog.Bool("repeat", repeat))

	s.group.Go(func() error { return s.run(t, fn) })
	return t
}

func (s *Scheduler) run(t *Timer, fn TimerFunc) error {
	defer s.remove(t.ID)

	timer := time.NewTimer(t.Delay)
	defer timer.Stop()

	ticks := 0
	for {
		select {
		case <-s.ctx.Done():
			t.result.Reject(s.ctx.Err())
			return nil
		case <-t.cancel:
			t.result.Reject(future.ErrCancelled)
			return nil
		case <-timer.C:
		}

		// a cancel that raced the timer wins
		select {
		case <-t.cancel:
			t.result.Reject(future.ErrCancelled)
			return nil
		default:
		}

		ticks++
		if err := fn(s.ctx, ticks); err != nil {
			slog.Error("timer callback failed",
				slog.Int("id", t.ID),
				slog.Any("error", err))
			t.result.Reject(err)
			return err
		}
		if !t.Repeat {
			t.result.Resolve(ticks)
			return nil
		}
		timer.Reset(t.Delay)
	}
}

func (s *Scheduler) remove(id int) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()
}

// Cancel removes a timer that has not completed. A callback already running
// finishes normally.
func (s *Scheduler) Cancel(id int) bool {
	s.mu.Lock()
	t, ok := s.timers[id]
	delete(s.timers, id)
	s.mu.Unlock()
	if !ok {
		return false
	}
	t.stop()
	slog.Debug("timer cancelled", slog.Int("id", id))
	return true
}

// Pending is the number of registered timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Wait blocks until every timer has stopped and returns the first callback
// error, which also stops the remaining timers.
func (s *Scheduler) Wait() error {
	return s.group.Wait()
}

// Shutdown stops all timers and waits for running callbacks.
func (s *Scheduler) Shutdown() error {
	s.shutdown()
	return s.group.Wait()
}
