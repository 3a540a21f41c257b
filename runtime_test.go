package kestrel_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusrt/kestrel"
)

func TestBlockOn_RootOnlyReturnsValue(t *testing.T) {
	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	v := kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) int { return 42 }))
	assert.Equal(t, 42, v)
}

func TestBlockOn_SpawnAndForgetIncrementsCounter(t *testing.T) {
	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	var counter atomic.Int64

	kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) struct{} {
		set := kestrel.NewJoinSet[struct{}]()
		for i := 0; i < 5; i++ {
			h := kestrel.Spawn(kestrel.Go(func(a *kestrel.Async) struct{} {
				counter.Add(1)
				return struct{}{}
			}))
			set.Push(h)
		}
		kestrel.Await(a, set.AwaitAll())
		return struct{}{}
	}))

	assert.EqualValues(t, 5, counter.Load())
}

func TestBlockOn_SleepDurationRespected(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithIO())
	require.NoError(t, err)
	defer rt.Shutdown()

	start := time.Now()
	kestrel.BlockOn(rt, kestrel.Sleep(50*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestBlockOn_SleepZeroDoesNotTouchReactor(t *testing.T) {
	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	start := time.Now()
	kestrel.BlockOn(rt, kestrel.Sleep(0))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestTimeout_Expires(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithIO())
	require.NoError(t, err)
	defer rt.Shutdown()

	res := kestrel.BlockOn(rt, kestrel.Timeout(20*time.Millisecond, kestrel.Sleep(100*time.Millisecond)))
	require.Error(t, res.Err)
	var timeoutErr *kestrel.TimeoutError
	assert.ErrorAs(t, res.Err, &timeoutErr)
}

func TestTimeout_NotTriggered(t *testing.T) {
	rt, err := kestrel.New(kestrel.WithIO())
	require.NoError(t, err)
	defer rt.Shutdown()

	res := kestrel.BlockOn(rt, kestrel.Timeout(50*time.Millisecond, kestrel.Go(func(a *kestrel.Async) int {
		kestrel.Await(a, kestrel.Sleep(10*time.Millisecond))
		return 123
	})))
	require.NoError(t, res.Err)
	assert.Equal(t, 123, res.Value)
}

func TestSpawn_OutsideContextPanics(t *testing.T) {
	assert.Panics(t, func() {
		kestrel.Spawn(kestrel.Ready(struct{}{}))
	})
}

func TestYieldNow_TakesExactlyOneCycle(t *testing.T) {
	y := kestrel.YieldNow()
	_, ok := y.Poll(nil)
	assert.False(t, ok, "first poll must yield")
	_, ok = y.Poll(nil)
	assert.True(t, ok, "second poll must resolve")

	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	var ran bool
	kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) struct{} {
		kestrel.Await(a, kestrel.YieldNow())
		ran = true
		return struct{}{}
	}))
	assert.True(t, ran)
}

func TestJoinHandle_ErrReportsPanic(t *testing.T) {
	rt, err := kestrel.New()
	require.NoError(t, err)
	defer rt.Shutdown()

	handleErr := kestrel.BlockOn(rt, kestrel.Go(func(a *kestrel.Async) error {
		h := kestrel.Spawn(kestrel.Go(func(a *kestrel.Async) int {
			panic("boom")
		}))
		kestrel.Await(a, h)
		return h.Err()
	}))

	require.Error(t, handleErr)
	var panicErr kestrel.PanicError
	assert.ErrorAs(t, handleErr, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
}
