package smt

// hashLeaf computes hash(key || value_digest), or returns zero when the
// value digest is zero. Returning zero here is what lets deletion (writing
// the zero value) fall out of the ordinary default-subtree-elision rule in
// merge, rather than needing its own special case in the tree engine.
func hashLeaf(newHasher HasherFactory, key, valueDigest H256) H256 {
	if valueDigest.IsZero() {
		return ZeroH256
	}
	h := newHasher()
	h.WriteH256(key)
	h.WriteH256(valueDigest)
	return h.Finish()
}

// merge combines a branch's two children into the branch's own hash. It is
// bound to (height, nodeKey) — the position-bound form the specification
// mandates — so that no fabricated proof can replay a precomputed
// intermediate hash at a different position in the tree. Both children
// zero still collapses to zero, subsuming default-subtree elision.
func merge(newHasher HasherFactory, height uint8, nodeKey, left, right H256) H256 {
	if left.IsZero() && right.IsZero() {
		return ZeroH256
	}
	h := newHasher()
	h.WriteByte(height)
	h.WriteH256(nodeKey)
	h.WriteH256(left)
	h.WriteH256(right)
	return h.Finish()
}
