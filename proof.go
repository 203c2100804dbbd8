package smt

import "sort"

// Leaf pairs a claimed key with its claimed value digest, the shape both
// MerkleProof and CompiledMerkleProof reconstruct a root from.
type Leaf struct {
	Key   H256
	Value H256
}

// MerkleProof is the portable proof form: one 256-bit sibling-presence
// bitmap per claimed leaf, plus the sibling hashes that cannot be
// reconstructed from another in-proof leaf.
type MerkleProof struct {
	leavesPath []H256
	proof      []H256
}

// NewMerkleProof builds a MerkleProof from its two components, e.g. when
// decoding the compact wire form of spec §6.
func NewMerkleProof(leavesPath, proof []H256) *MerkleProof {
	return &MerkleProof{leavesPath: leavesPath, proof: proof}
}

// LeavesCount returns the number of leaves this proof was built for.
func (p *MerkleProof) LeavesCount() int {
	return len(p.leavesPath)
}

// LeavesPath returns the per-leaf sibling-presence bitmaps.
func (p *MerkleProof) LeavesPath() []H256 {
	return p.leavesPath
}

// Siblings returns the sibling hash list.
func (p *MerkleProof) Siblings() []H256 {
	return p.proof
}

// Marshal encodes the proof as the compact wire form of spec §6: the
// leavesPath bitmaps followed by the sibling hashes, each a 32-byte entry,
// bit-exact between producer and verifier.
func (p *MerkleProof) Marshal() []byte {
	out := make([]byte, 0, (len(p.leavesPath)+len(p.proof))*32)
	for _, h := range p.leavesPath {
		out = append(out, h[:]...)
	}
	for _, h := range p.proof {
		out = append(out, h[:]...)
	}
	return out
}

// UnmarshalMerkleProof decodes the compact wire form of spec §6, given the
// number of leaves the proof covers (the format does not self-describe
// this split, matching the reference design).
func UnmarshalMerkleProof(data []byte, leavesCount int) (*MerkleProof, error) {
	if len(data)%32 != 0 {
		return nil, ErrCorruptedProof
	}
	entries := len(data) / 32
	if entries < leavesCount {
		return nil, ErrCorruptedProof
	}
	leavesPath := make([]H256, leavesCount)
	for i := 0; i < leavesCount; i++ {
		copy(leavesPath[i][:], data[i*32:i*32+32])
	}
	siblingCount := entries - leavesCount
	var proof []H256
	if siblingCount > 0 {
		proof = make([]H256, siblingCount)
	}
	for i := 0; i < siblingCount; i++ {
		offset := (leavesCount + i) * 32
		copy(proof[i][:], data[offset:offset+32])
	}
	return &MerkleProof{leavesPath: leavesPath, proof: proof}, nil
}

// pathEntry tracks a leaf as it folds upward: which input leaf it
// originated from (for leavesPath lookups), its current key (which
// shrinks to the branch's node_key as height increases), and its current
// node hash.
type pathEntry struct {
	pathIdx int
	key     H256
	node    H256
}

// ComputeRoot reconstructs the root implied by leaves under this proof.
// See spec §4.6.
func (p *MerkleProof) ComputeRoot(newHasher HasherFactory, leaves []Leaf) (H256, error) {
	if len(leaves) == 0 {
		return H256{}, ErrEmptyKeys
	}
	if len(leaves) != p.LeavesCount() {
		return H256{}, errIncorrectNumberOfLeaves(p.LeavesCount(), len(leaves))
	}

	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	SortH256Leaves(sorted)

	current := make([]pathEntry, len(sorted))
	for i, l := range sorted {
		current[i] = pathEntry{pathIdx: i, key: l.Key, node: hashLeaf(newHasher, l.Key, l.Value)}
	}

	proofIdx := 0
	for height := 0; height <= 255; height++ {
		h := uint8(height)
		var next []pathEntry
		idx := 0
		for idx < len(current) {
			a := current[idx]
			parentA := a.key.ParentPath(h)

			if idx+1 < len(current) {
				b := current[idx+1]
				if b.key.ParentPath(h) == parentA {
					parentNode := merge(newHasher, h, parentA, a.node, b.node)
					next = append(next, pathEntry{pathIdx: a.pathIdx, key: parentA, node: parentNode})
					idx += 2
					continue
				}
			}

			path := p.leavesPath[a.pathIdx]
			isRight := a.key.IsRight(h)
			var left, right H256
			if path.GetBit(h) {
				if proofIdx == len(p.proof) {
					return H256{}, ErrCorruptedProof
				}
				sibling := p.proof[proofIdx]
				proofIdx++
				if isRight {
					left, right = sibling, a.node
				} else {
					left, right = a.node, sibling
				}
			} else if isRight {
				left, right = ZeroH256, a.node
			} else {
				left, right = a.node, ZeroH256
			}

			parentNode := merge(newHasher, h, parentA, left, right)
			next = append(next, pathEntry{pathIdx: a.pathIdx, key: parentA, node: parentNode})
			idx++
		}
		current = next
	}

	if proofIdx != len(p.proof) {
		return H256{}, ErrCorruptedProof
	}
	if len(current) != 1 {
		return H256{}, ErrCorruptedProof
	}
	return current[0].node, nil
}

// Verify reports whether leaves reconstruct root under this proof.
func (p *MerkleProof) Verify(newHasher HasherFactory, root H256, leaves []Leaf) (bool, error) {
	got, err := p.ComputeRoot(newHasher, leaves)
	if err != nil {
		return false, err
	}
	return got == root, nil
}

// SortH256Leaves sorts leaves by key, the order ComputeRoot requires.
func SortH256Leaves(leaves []Leaf) {
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Key.Less(leaves[j].Key) })
}
