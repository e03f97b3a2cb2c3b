package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer(t *testing.T) {
	t.Run("only last call executes", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		var counter atomic.Int32
		var last atomic.Int32

		for i := 1; i <= 5; i++ {
			d.Debounce(func() {
				counter.Add(1)
				last.Store(int32(i))
			})
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(60 * time.Millisecond)

		if got := counter.Load(); got != 1 {
			t.Errorf("expected 1 execution, got %d", got)
		}
		if got := last.Load(); got != 5 {
			t.Errorf("expected last call 5, got %d", got)
		}
	})

	t.Run("cancel prevents execution", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		var counter atomic.Int32

		d.Debounce(func() { counter.Add(1) })
		d.Cancel()
		time.Sleep(50 * time.Millisecond)

		if got := counter.Load(); got != 0 {
			t.Errorf("expected 0 executions, got %d", got)
		}
	})
}
