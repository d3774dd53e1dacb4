package fueleconomy

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesN(n int) []MenuEntry {
	out := make([]MenuEntry, n)
	for i := range out {
		out[i] = MenuEntry{Value: strconv.Itoa(i)}
	}
	return out
}

func staticDiscovery(entries []MenuEntry) func(context.Context) ([]MenuEntry, error) {
	return func(context.Context) ([]MenuEntry, error) { return entries, nil }
}

func TestResolveLevel_PreservesInputOrder(t *testing.T) {
	entries := entriesN(5)

	// Later entries finish first.
	child := func(_ context.Context, e MenuEntry) ([]string, error) {
		i, _ := strconv.Atoi(e.Value)
		time.Sleep(time.Duration(len(entries)-i) * 5 * time.Millisecond)
		return []string{e.Value + "a", e.Value + "b"}, nil
	}

	got, err := resolveLevel(context.Background(), 0, staticDiscovery(entries), child)

	require.NoError(t, err)
	assert.Equal(t, []string{"0a", "0b", "1a", "1b", "2a", "2b", "3a", "3b", "4a", "4b"}, got)
}

func TestResolveLevel_FirstFailureWinsWithoutPartialResult(t *testing.T) {
	boom := stderrors.New("leaf 2 failed")
	var finished atomic.Int32

	child := func(_ context.Context, e MenuEntry) ([]string, error) {
		defer finished.Add(1)
		if e.Value == "2" {
			return nil, boom
		}
		time.Sleep(10 * time.Millisecond)
		return []string{e.Value}, nil
	}

	got, err := resolveLevel(context.Background(), 0, staticDiscovery(entriesN(4)), child)

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
	// Join waits for every sibling even after a failure.
	assert.Equal(t, int32(4), finished.Load())
}

func TestResolveLevel_DiscoveryFailureSkipsChildren(t *testing.T) {
	boom := stderrors.New("menu unavailable")
	called := false

	_, err := resolveLevel(context.Background(), 0,
		func(context.Context) ([]MenuEntry, error) { return nil, boom },
		func(context.Context, MenuEntry) ([]string, error) { called = true; return nil, nil },
	)

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestResolveLevel_EmptyDiscovery(t *testing.T) {
	got, err := resolveLevel(context.Background(), 0, staticDiscovery([]MenuEntry{}),
		func(context.Context, MenuEntry) ([]int, error) { return []int{1}, nil })

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolveLevel_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	child := func(_ context.Context, e MenuEntry) ([]string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return []string{e.Value}, nil
	}

	got, err := resolveLevel(context.Background(), 2, staticDiscovery(entriesN(8)), child)

	require.NoError(t, err)
	assert.Len(t, got, 8)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestResolveLevel_RunsChildrenConcurrently(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32

	child := func(_ context.Context, e MenuEntry) ([]string, error) {
		if started.Add(1) == 3 {
			close(release)
		}
		select {
		case <-release:
			return []string{e.Value}, nil
		case <-time.After(2 * time.Second):
			return nil, stderrors.New("children ran one at a time")
		}
	}

	got, err := resolveLevel(context.Background(), 0, staticDiscovery(entriesN(3)), child)

	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2"}, got)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, flatten([][]int{{1}, nil, {2, 3}, {}}))
	assert.Equal(t, []int{}, flatten[int](nil))
}
