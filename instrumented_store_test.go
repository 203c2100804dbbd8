package smt

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	return testutil.ToFloat64(g)
}

func TestInstrumentedStoreTracksLiveCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := NewInstrumentedStore[H256Value](NewMapStore[H256Value](), reg)

	require.Equal(t, float64(0), gaugeValue(t, store.branchNodes))
	require.Equal(t, float64(0), gaugeValue(t, store.leafNodes))

	key := h256Of(1)
	require.NoError(t, store.InsertLeaf(key, LeafNode[H256Value]{Key: key, Value: H256Value(h256Of(2))}))
	require.Equal(t, float64(1), gaugeValue(t, store.leafNodes))

	// re-inserting the same key must not double-count
	require.NoError(t, store.InsertLeaf(key, LeafNode[H256Value]{Key: key, Value: H256Value(h256Of(3))}))
	require.Equal(t, float64(1), gaugeValue(t, store.leafNodes))

	require.NoError(t, store.RemoveLeaf(key))
	require.Equal(t, float64(0), gaugeValue(t, store.leafNodes))

	bk := BranchKey{Height: 0, NodeKey: h256Of(5)}
	require.NoError(t, store.InsertBranch(bk, BranchNode{Left: h256Of(1), Right: h256Of(2)}))
	require.Equal(t, float64(1), gaugeValue(t, store.branchNodes))
	require.NoError(t, store.RemoveBranch(bk))
	require.Equal(t, float64(0), gaugeValue(t, store.branchNodes))
}

func TestInstrumentedStoreWrappedByTree(t *testing.T) {
	reg := prometheus.NewRegistry()
	store := NewInstrumentedStore[H256Value](NewMapStore[H256Value](), reg)
	tree := New[H256Value](ZeroH256, store, NewBlake2bHasher, func() H256Value { return ZeroH256Value })

	_, err := tree.Update(h256Of(9), H256Value(h256Of(0x42)))
	require.NoError(t, err)
	require.Greater(t, gaugeValue(t, store.leafNodes), float64(0))
	require.Greater(t, gaugeValue(t, store.branchNodes), float64(0))
}
