package generator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerDeliversLastValue(t *testing.T) {
	clock := &manualClock{}
	var got []string
	d := NewDebouncer(clock, 300*time.Millisecond, func(v string) { got = append(got, v) })

	for _, v := range []string{"g", "go", "goo", "goog"} {
		d.Push(v)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Empty(t, got)
	assert.True(t, d.Pending())

	clock.Advance(200 * time.Millisecond)
	require.Len(t, got, 1)
	assert.Equal(t, "goog", got[0])
	assert.False(t, d.Pending())
}

func TestDebouncerSeparateBursts(t *testing.T) {
	clock := &manualClock{}
	var got []int
	d := NewDebouncer(clock, time.Second, func(v int) { got = append(got, v) })

	d.Push(1)
	clock.Advance(time.Second)
	d.Push(2)
	d.Push(3)
	clock.Advance(time.Second)

	assert.Equal(t, []int{1, 3}, got)
}

func TestDebouncerStop(t *testing.T) {
	clock := &manualClock{}
	called := false
	d := NewDebouncer(clock, time.Second, func(string) { called = true })

	d.Push("x")
	d.Stop()
	clock.Advance(2 * time.Second)
	d.Push("y")
	clock.Advance(2 * time.Second)

	assert.False(t, called)
	assert.False(t, d.Pending())
}

func TestDebouncerRealClock(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	d := NewDebouncer(nil, 20*time.Millisecond, func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		close(done)
	})

	d.Push("a")
	d.Push("b")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer did not fire")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b"}, got)
}
