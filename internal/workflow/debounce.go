package workflow

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Phase is the debouncer's lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseInFlight
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseInFlight:
		return "in_flight"
	default:
		return "idle"
	}
}

// FireFunc receives the request id assigned to a dispatched value.
type FireFunc func(requestID uint64, value string)

// Debouncer delays a value until no newer value was scheduled for the delay.
// Every Schedule cancels the pending timer; only the latest one can fire.
// Each fire gets a fresh monotonic request id.
type Debouncer struct {
	mu    sync.Mutex
	clock clockwork.Clock
	delay time.Duration
	fire  FireFunc

	phase    Phase
	timer    clockwork.Timer
	gen      uint64
	seq      uint64
	inFlight uint64
	closed   bool
}

// NewDebouncer creates an idle debouncer. A nil clock means the real one.
// The fire callback runs on its own goroutine.
func NewDebouncer(c clockwork.Clock, delay time.Duration, fire FireFunc) *Debouncer {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Debouncer{clock: c, delay: delay, fire: fire}
}

// Schedule replaces any pending value with value and restarts the delay.
func (d *Debouncer) Schedule(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.phase = PhasePending
	d.timer = d.clock.AfterFunc(d.delay, func() { d.expire(gen, value) })
}

// expire runs on the timer. gen guards against a timer whose Stop lost the race.
func (d *Debouncer) expire(gen uint64, value string) {
	d.mu.Lock()
	if d.closed || gen != d.gen || d.phase != PhasePending {
		d.mu.Unlock()
		return
	}
	d.seq++
	id := d.seq
	d.phase = PhaseInFlight
	d.inFlight = id
	d.timer = nil
	d.mu.Unlock()

	d.fire(id, value)
}

// Done marks requestID as finished. Stale ids are ignored.
func (d *Debouncer) Done(requestID uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseInFlight && d.inFlight == requestID {
		d.phase = PhaseIdle
		d.inFlight = 0
	}
}

// Cancel drops the pending timer and forgets any in-flight request.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
	d.phase = PhaseIdle
	d.inFlight = 0
}

// Close cancels and refuses further scheduling.
func (d *Debouncer) Close() {
	d.Cancel()
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Phase returns the current phase.
func (d *Debouncer) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// InFlight returns the id of the request in flight, or 0.
func (d *Debouncer) InFlight() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inFlight
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
