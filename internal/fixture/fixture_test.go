package fixture

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	smt "github.com/smtgo/sparsemerkletree"
)

const sampleYAML = `
entries:
  - key: "0000000000000000000000000000000000000000000000000000000000000001"
    value: "00000000000000000000000000000000000000000000000000000000000000ff"
`

func TestParse(t *testing.T) {
	entries, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, byte(0xff), entries[0].Value[31])
}

func TestParseRejectsBadHex(t *testing.T) {
	_, err := Parse([]byte("entries:\n  - key: \"zz\"\n    value: \"00\"\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
}

func TestLoadQuickBrownFoxFixtureFile(t *testing.T) {
	entries, err := Load("testdata/quickbrownfox.yaml")
	require.NoError(t, err)
	require.Equal(t, QuickBrownFox(), entries)
}

func TestQuickBrownFox(t *testing.T) {
	entries := QuickBrownFox()
	require.Len(t, entries, 9)
	for _, e := range entries {
		require.False(t, e.Key.IsZero())
		require.False(t, e.Value.IsZero())
	}
	// deterministic: the fixture is not generated from runtime randomness
	require.Equal(t, entries, QuickBrownFox())
}

func newTestTree() *smt.SparseMerkleTree[smt.H256Value] {
	store := smt.NewMapStore[smt.H256Value]()
	return smt.New[smt.H256Value](smt.ZeroH256, store, smt.NewBlake2bHasher, func() smt.H256Value { return smt.ZeroH256Value })
}

// S6: the quick-brown-fox fixture's root is the same regardless of the
// order its entries are inserted in.
func TestQuickBrownFoxPermutationIndependence(t *testing.T) {
	entries := QuickBrownFox()

	forward := newTestTree()
	for _, e := range entries {
		_, err := forward.Update(e.Key, smt.H256Value(e.Value))
		require.NoError(t, err)
	}

	r := rand.New(rand.NewSource(123))
	shuffled := newTestTree()
	perm := r.Perm(len(entries))
	for _, idx := range perm {
		_, err := shuffled.Update(entries[idx].Key, smt.H256Value(entries[idx].Value))
		require.NoError(t, err)
	}

	require.Equal(t, forward.Root(), shuffled.Root())
	require.False(t, forward.Root().IsZero())
}
