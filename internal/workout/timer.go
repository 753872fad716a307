package workout

import (
	"sync"
	"time"
)

// DefaultTickInterval is the rest countdown resolution.
const DefaultTickInterval = time.Second

// Cue thresholds of the rest countdown, in seconds remaining.
const (
	warningAt   = 10
	countdownAt = 3
)

// RestTimer drives the rest countdown for one rest period. A new timer is
// created every time rest mode is entered; stopping it is idempotent and
// never blocks.
type RestTimer struct {
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

func newRestTimer(interval time.Duration) *RestTimer {
	return &RestTimer{
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// start runs the ticker loop in a goroutine tracked by wg. onTick receives
// the timer itself so the receiver can ignore ticks from a stale timer.
func (t *RestTimer) start(wg *sync.WaitGroup, onTick func(*RestTimer)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				select {
				case <-t.stop:
					return
				default:
				}
				onTick(t)
			}
		}
	}()
}

// Stop ends the countdown. Safe to call more than once and while holding the
// controller lock.
func (t *RestTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Stopped reports whether Stop has been called.
func (t *RestTimer) Stopped() bool {
	select {
	case <-t.stop:
		return true
	default:
		return false
	}
}
