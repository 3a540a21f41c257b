package kestrel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerWheelOrdersByDeadline(t *testing.T) {
	w := newTimerWheel()
	base := time.Now()

	var fired []int
	mk := func(n int) *Waker {
		return newWaker(func() { fired = append(fired, n) })
	}

	w.schedule(base.Add(30*time.Millisecond), mk(3))
	w.schedule(base.Add(10*time.Millisecond), mk(1))
	w.schedule(base.Add(20*time.Millisecond), mk(2))

	due := w.fireDue(base.Add(25 * time.Millisecond))
	assert.Len(t, due, 2)
	assert.Equal(t, timerID(2), due[0].id)
	assert.Equal(t, timerID(3), due[1].id)
}

func TestTimerWheelCancel(t *testing.T) {
	w := newTimerWheel()
	id := w.schedule(time.Now().Add(time.Millisecond), newWaker(func() {}))
	w.cancel(id)
	_, ok := w.nextDeadline()
	assert.False(t, ok)
}

func TestReadyQueueDrainIsFIFO(t *testing.T) {
	q := newReadyQueue()
	var order []int
	push := func(n int) {
		q.push(runnableFunc(func() { order = append(order, n) }))
	}
	push(1)
	push(2)
	push(3)

	for _, r := range q.drain() {
		r.poll()
	}
	assert.Equal(t, []int{1, 2, 3}, order)
}

// runnableFunc adapts a plain function to runnable, for tests only.
type runnableFunc func()

func (f runnableFunc) poll() { f() }
