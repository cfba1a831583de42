package generator

import (
	"sync"
	"time"
)

// DefaultDebounceWindow окно тишины, после которого ввод считается устоявшимся
const DefaultDebounceWindow = 300 * time.Millisecond

// Timer отменяемая отложенная задача
type Timer interface {
	Stop() bool
}

// Clock планирует отложенные задачи. В тестах подменяется ручными часами.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock возвращает часы на основе time.AfterFunc
func RealClock() Clock {
	return realClock{}
}

// Debouncer доставляет последнее значение после окна тишины.
// Каждый Push отменяет предыдущую задачу и планирует новую; выполнится
// только последняя запланированная.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	fn      func(T)
	timer   Timer
	seq     uint64
	stopped bool
}

// NewDebouncer создает Debouncer. fn вызывается вне внутренней блокировки.
func NewDebouncer[T any](clock Clock, window time.Duration, fn func(T)) *Debouncer[T] {
	if clock == nil {
		clock = RealClock()
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer[T]{clock: clock, window: window, fn: fn}
}

// Push перезапускает окно с новым значением
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.clock.AfterFunc(d.window, func() { d.fire(seq, v) })
}

// fire проверяет номер задачи: Stop не гарантирует отмену уже стартовавшего таймера
func (d *Debouncer[T]) fire(seq uint64, v T) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Pending сообщает, ожидает ли значение доставки
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop отменяет ожидающую задачу; последующие Push игнорируются
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
