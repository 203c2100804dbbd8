package smt

// BranchKey addresses a BranchNode in the store: the height of the branch
// and the canonical prefix of keys routed through it at that height.
type BranchKey struct {
	Height  uint8
	NodeKey H256
}

// BranchNode is an internal tree node: the hashes of its two children.
// A child is ZeroH256 when that side's subtree is empty/default.
type BranchNode struct {
	Left  H256
	Right H256
}

// LeafNode is a tree leaf: the full key and the stored value.
type LeafNode[V Value] struct {
	Key   H256
	Value V
}
