package smt

import "github.com/rs/zerolog"

// SparseMerkleTree is an authenticated key/value map over the 256-bit key
// space, backed by an injected Store and Hasher. It is single-writer: see
// spec §5 for the concurrency model this type assumes.
type SparseMerkleTree[V Value] struct {
	store     Store[V]
	root      H256
	newHasher HasherFactory
	zero      func() V
	log       zerolog.Logger
}

// New builds a tree view over an existing root and store. zero must return
// the canonical deleted value for V (Go has no static trait-method
// equivalent of the reference design's `Value::zero()`, so it is supplied
// as a constructor argument instead — see DESIGN.md).
func New[V Value](root H256, store Store[V], newHasher HasherFactory, zero func() V) *SparseMerkleTree[V] {
	return &SparseMerkleTree[V]{
		store:     store,
		root:      root,
		newHasher: newHasher,
		zero:      zero,
		log:       zerolog.Nop(),
	}
}

// WithLogger attaches a zerolog.Logger for debug/error tracing and returns
// the receiver for chaining. A tree built via New logs nothing.
func (t *SparseMerkleTree[V]) WithLogger(log zerolog.Logger) *SparseMerkleTree[V] {
	t.log = log
	return t
}

// Root returns the current merkle root. The empty tree's root is zero.
func (t *SparseMerkleTree[V]) Root() H256 {
	return t.root
}

// IsEmpty reports whether the tree has no non-zero leaves.
func (t *SparseMerkleTree[V]) IsEmpty() bool {
	return t.root.IsZero()
}

// Store returns the backing store.
func (t *SparseMerkleTree[V]) Store() Store[V] {
	return t.store
}

// Update inserts, overwrites, or deletes key (writing the zero value
// deletes it) and returns the new root. See spec §4.3 for the algorithm.
func (t *SparseMerkleTree[V]) Update(key H256, value V) (H256, error) {
	leafHash := hashLeaf(t.newHasher, key, value.ToH256())

	var action string
	if !leafHash.IsZero() {
		if err := t.store.InsertLeaf(key, LeafNode[V]{Key: key, Value: value}); err != nil {
			return H256{}, t.logStoreErr(err, "insert_leaf")
		}
		action = "upsert"
	} else {
		if err := t.store.RemoveLeaf(key); err != nil {
			return H256{}, t.logStoreErr(err, "remove_leaf")
		}
		action = "delete"
	}

	currentKey := key
	currentNode := leafHash
	for height := 0; height <= 255; height++ {
		h := uint8(height)
		parentKey := currentKey.ParentPath(h)
		branchKey := BranchKey{Height: h, NodeKey: parentKey}

		existing, err := t.store.GetBranch(branchKey)
		if err != nil {
			return H256{}, t.logStoreErr(err, "get_branch")
		}

		var left, right H256
		switch {
		case existing != nil && key.IsRight(h):
			left, right = existing.Left, currentNode
		case existing != nil:
			left, right = currentNode, existing.Right
		case key.IsRight(h):
			left, right = ZeroH256, currentNode
		default:
			left, right = currentNode, ZeroH256
		}

		if !left.IsZero() || !right.IsZero() {
			if err := t.store.InsertBranch(branchKey, BranchNode{Left: left, Right: right}); err != nil {
				return H256{}, t.logStoreErr(err, "insert_branch")
			}
		} else {
			if err := t.store.RemoveBranch(branchKey); err != nil {
				return H256{}, t.logStoreErr(err, "remove_branch")
			}
		}

		currentKey = parentKey
		currentNode = merge(t.newHasher, h, parentKey, left, right)
	}

	t.root = currentNode
	t.log.Debug().Str("key", key.String()).Str("action", action).Str("root", t.root.String()).Msg("update")
	return t.root, nil
}

// Get returns the value stored at key, or the zero value if the tree is
// empty or key is absent.
func (t *SparseMerkleTree[V]) Get(key H256) (V, error) {
	if t.IsEmpty() {
		return t.zero(), nil
	}
	leaf, err := t.store.GetLeaf(key)
	if err != nil {
		return t.zero(), t.logStoreErr(err, "get_leaf")
	}
	if leaf == nil {
		return t.zero(), nil
	}
	return leaf.Value, nil
}

// MerkleProof produces a proof that, combined with the claimed (key,value)
// leaves, reconstructs the root iff the claims are consistent with the
// tree. See spec §4.5 for the canonical-order sibling-collection algorithm.
func (t *SparseMerkleTree[V]) MerkleProof(keys []H256) (*MerkleProof, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeys
	}

	sorted := make([]H256, len(keys))
	copy(sorted, keys)
	SortH256(sorted)

	leavesPath := make([]H256, len(sorted))
	for i, key := range sorted {
		var path H256
		for height := 0; height <= 255; height++ {
			h := uint8(height)
			parentKey := key.ParentPath(h)
			branch, err := t.store.GetBranch(BranchKey{Height: h, NodeKey: parentKey})
			if err != nil {
				return nil, t.logStoreErr(err, "get_branch")
			}
			if branch == nil {
				continue // key absent from the tree: supports non-inclusion proofs
			}
			sibling := branch.Right
			if key.IsRight(h) {
				sibling = branch.Left
			}
			if !sibling.IsZero() {
				path.SetBit(h)
			}
		}
		leavesPath[i] = path
	}

	var proof []H256
	currentKeys := sorted
	for height := 0; height <= 255; height++ {
		h := uint8(height)
		var nextKeys []H256
		idx := 0
		for idx < len(currentKeys) {
			keyA := currentKeys[idx]
			parentA := keyA.ParentPath(h)

			if idx+1 < len(currentKeys) && currentKeys[idx+1].ParentPath(h) == parentA {
				// keyA and keyB are siblings at this height: no sibling
				// material is needed between them, only their merge
				// carries forward.
				nextKeys = append(nextKeys, keyA)
				idx += 2
				continue
			}

			branch, err := t.store.GetBranch(BranchKey{Height: h, NodeKey: parentA})
			if err != nil {
				return nil, t.logStoreErr(err, "get_branch")
			}
			if branch != nil {
				sibling := branch.Right
				if keyA.IsRight(h) {
					sibling = branch.Left
				}
				if !sibling.IsZero() {
					proof = append(proof, sibling)
				}
			}
			nextKeys = append(nextKeys, keyA)
			idx++
		}
		currentKeys = nextKeys
	}

	return &MerkleProof{leavesPath: leavesPath, proof: proof}, nil
}

func (t *SparseMerkleTree[V]) logStoreErr(err error, op string) error {
	wrapped := wrapStoreErr(err, op)
	t.log.Error().Err(wrapped).Str("op", op).Msg("store error")
	return wrapped
}
