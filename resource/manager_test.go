package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisposeReleasesInReverseOrder(t *testing.T) {
	mgr := NewManager(nil)
	var order []int

	mgr.Acquire(KindOther, func() error { order = append(order, 1); return nil })
	mgr.Acquire(KindOther, func() error { order = append(order, 2); return nil })
	mgr.Acquire(KindOther, func() error { order = append(order, 3); return nil })

	errs := mgr.Dispose(context.Background())
	require.Empty(t, errs)
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestDisposeCapturesErrorsWithoutAborting(t *testing.T) {
	mgr := NewManager(nil)
	var ran []int

	mgr.Acquire(KindOther, func() error { ran = append(ran, 1); return nil })
	mgr.Acquire(KindOther, func() error { ran = append(ran, 2); return errors.New("boom") })
	mgr.Acquire(KindOther, func() error { ran = append(ran, 3); return nil })

	errs := mgr.Dispose(context.Background())
	require.Len(t, errs, 1)
	assert.Equal(t, []int{3, 2, 1}, ran)
}

func TestDisposeIsIdempotent(t *testing.T) {
	mgr := NewManager(nil)
	calls := 0
	mgr.Acquire(KindOther, func() error { calls++; return nil })

	mgr.Dispose(context.Background())
	mgr.Dispose(context.Background())

	assert.Equal(t, 1, calls)
}

func TestReleaseRemovesSingleResourceBeforeDispose(t *testing.T) {
	mgr := NewManager(nil)
	var order []int
	id1 := mgr.Acquire(KindTimer, func() error { order = append(order, 1); return nil })
	mgr.Acquire(KindTimer, func() error { order = append(order, 2); return nil })

	require.NoError(t, mgr.Release(id1))
	assert.Equal(t, []int{1}, order)

	mgr.Dispose(context.Background())
	assert.Equal(t, []int{1, 2}, order)
}

func TestCountByKind(t *testing.T) {
	mgr := NewManager(nil)
	mgr.Acquire(KindTimer, func() error { return nil })
	mgr.Acquire(KindTimer, func() error { return nil })
	mgr.Acquire(KindListener, func() error { return nil })

	assert.Equal(t, 2, mgr.Count(KindTimer))
	assert.Equal(t, 1, mgr.Count(KindListener))
	assert.Equal(t, 0, mgr.Count(KindPromise))
}

func TestOlderThanReturnsHandlesAtOrBeforeThreshold(t *testing.T) {
	var now int64
	clock := func() int64 { now++; return now }
	mgr := NewManager(clock)

	id1 := mgr.Acquire(KindOther, func() error { return nil })
	mgr.Acquire(KindOther, func() error { return nil })

	stale := mgr.OlderThan(1)
	assert.Equal(t, []int64{id1}, stale)
}
