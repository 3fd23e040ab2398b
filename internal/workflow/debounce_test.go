package workflow

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fired struct {
	id    uint64
	value string
}

type recorder struct {
	mu    sync.Mutex
	calls []fired
}

func (r *recorder) fire(id uint64, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fired{id, value})
}

func (r *recorder) snapshot() []fired {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fired(nil), r.calls...)
}

// await waits until n values were fired. Fake timers run their callbacks on
// a new goroutine.
func (r *recorder) await(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.snapshot()) == n }, time.Second, time.Millisecond)
}

func newTestDebouncer() (*Debouncer, *clockwork.FakeClock, *recorder) {
	c := clockwork.NewFakeClockAt(time.Unix(0, 0))
	rec := &recorder{}
	return NewDebouncer(c, time.Second, rec.fire), c, rec
}

func TestDebouncer_OnlyLatestFires(t *testing.T) {
	d, c, rec := newTestDebouncer()

	d.Schedule("a")
	c.Advance(300 * time.Millisecond)
	d.Schedule("ab")
	c.Advance(300 * time.Millisecond)
	d.Schedule("abc")
	assert.Equal(t, PhasePending, d.Phase())

	c.Advance(999 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	c.Advance(time.Millisecond)
	rec.await(t, 1)
	assert.Equal(t, []fired{{1, "abc"}}, rec.snapshot())
	assert.Equal(t, PhaseInFlight, d.Phase())
	assert.Equal(t, uint64(1), d.InFlight())

	c.Advance(10 * time.Second)
	assert.Len(t, rec.snapshot(), 1)
}

func TestDebouncer_CancelPreventsFire(t *testing.T) {
	d, c, rec := newTestDebouncer()

	d.Schedule("abc")
	d.Cancel()
	c.Advance(2 * time.Second)

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, PhaseIdle, d.Phase())
	assert.Zero(t, d.InFlight())
}

func TestDebouncer_RequestIDsAreMonotonic(t *testing.T) {
	d, c, rec := newTestDebouncer()

	d.Schedule("one")
	c.Advance(time.Second)
	rec.await(t, 1)
	d.Done(1)
	assert.Equal(t, PhaseIdle, d.Phase())

	d.Schedule("two")
	c.Advance(time.Second)
	rec.await(t, 2)

	assert.Equal(t, []fired{{1, "one"}, {2, "two"}}, rec.snapshot())
}

func TestDebouncer_DoneIgnoresStaleID(t *testing.T) {
	d, c, rec := newTestDebouncer()

	d.Schedule("one")
	c.Advance(time.Second)
	rec.await(t, 1)
	d.Schedule("two")
	d.Done(1)

	assert.Equal(t, PhasePending, d.Phase())
}

func TestDebouncer_CloseRefusesScheduling(t *testing.T) {
	d, c, rec := newTestDebouncer()

	d.Schedule("abc")
	d.Close()
	d.Schedule("abcd")
	c.Advance(5 * time.Second)

	assert.Empty(t, rec.snapshot())
	assert.Equal(t, PhaseIdle, d.Phase())
}

func TestDebouncer_SystemClock(t *testing.T) {
	done := make(chan fired, 1)
	d := NewDebouncer(nil, 10*time.Millisecond, func(id uint64, v string) { done <- fired{id, v} })

	d.Schedule("x")
	d.Schedule("xy")

	select {
	case f := <-done:
		assert.Equal(t, fired{1, "xy"}, f)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}
}
