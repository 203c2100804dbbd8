package smt

// Opcode bytes for the compiled-proof stack machine (spec §4.7).
const (
	opPushLeaf  byte = 0x4C // 'L'
	opProofStep byte = 0x50 // 'P'
	opHash      byte = 0x48 // 'H'
)

// CompiledMerkleProof is the bytecode form of a proof: a program over the
// L/P/H opcodes that a small stack machine executes to reproduce a root,
// given the same ordered leaf list the program was compiled against.
type CompiledMerkleProof []byte

// compileEntry tracks one partially-built program fragment during
// compilation: which leaf it traces back to for leavesPath lookups, the
// leaf key (bits above any consumed height determine future routing), the
// bytecode emitted so far, and the contiguous sorted-leaf-index range it
// covers (for NonMergableRange detection).
type compileEntry struct {
	pathIdx              int
	key                  H256
	code                 []byte
	rangeStart, rangeEnd int
}

// Compile turns this proof into a CompiledMerkleProof, given the leaves it
// will later be verified against. The 'L' opcodes are emitted in key
// order, the same order ComputeRoot sorts the verifier-supplied leaf list
// into. See spec §4.7.
func (p *MerkleProof) Compile(leaves []Leaf) (CompiledMerkleProof, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyKeys
	}
	if len(leaves) != p.LeavesCount() {
		return nil, errIncorrectNumberOfLeaves(p.LeavesCount(), len(leaves))
	}

	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	SortH256Leaves(sorted)

	entries := make([]compileEntry, len(sorted))
	for i, l := range sorted {
		entries[i] = compileEntry{
			pathIdx:    i,
			key:        l.Key,
			code:       []byte{opPushLeaf},
			rangeStart: i,
			rangeEnd:   i,
		}
	}

	proofIdx := 0
	for height := 0; height <= 255; height++ {
		h := uint8(height)
		var next []compileEntry
		idx := 0
		for idx < len(entries) {
			a := entries[idx]
			parentA := a.key.ParentPath(h)

			if idx+1 < len(entries) {
				b := entries[idx+1]
				if b.key.ParentPath(h) == parentA {
					if a.rangeEnd+1 != b.rangeStart {
						return nil, ErrNonMergableRange
					}
					code := concatCode(a.code, b.code, []byte{opHash, h})
					next = append(next, compileEntry{
						pathIdx:    a.pathIdx,
						key:        a.key,
						code:       code,
						rangeStart: a.rangeStart,
						rangeEnd:   b.rangeEnd,
					})
					idx += 2
					continue
				}
			}

			path := p.leavesPath[a.pathIdx]
			if path.GetBit(h) {
				if proofIdx == len(p.proof) {
					return nil, ErrCorruptedProof
				}
				sibling := p.proof[proofIdx]
				proofIdx++
				code := concatCode(a.code, []byte{opProofStep, h}, sibling[:])
				next = append(next, compileEntry{
					pathIdx:    a.pathIdx,
					key:        a.key,
					code:       code,
					rangeStart: a.rangeStart,
					rangeEnd:   a.rangeEnd,
				})
			} else {
				// implicit zero sibling: nothing to emit, the verifier's
				// stack machine bridges this height gap automatically the
				// next time it flushes this entry.
				next = append(next, a)
			}
			idx++
		}
		entries = next
	}

	if proofIdx != len(p.proof) {
		return nil, ErrCorruptedProof
	}
	if len(entries) != 1 {
		return nil, ErrCorruptedProof
	}
	return CompiledMerkleProof(entries[0].code), nil
}

func concatCode(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// runtimeEntry is a stack-machine operand: the leaf key that determines
// routing at any height, the hash valid up through `height-1`, and the
// next height at which it must be merged.
type runtimeEntry struct {
	key    H256
	node   H256
	height int
}

// flushToHeight applies the implicit-zero-sibling merge at every height in
// [from, to), bridging spans the bytecode left unrepresented because the
// sibling there is the default zero subtree.
func flushToHeight(newHasher HasherFactory, key, node H256, from, to int) H256 {
	for h := from; h < to; h++ {
		height := uint8(h)
		var left, right H256
		if key.IsRight(height) {
			left, right = ZeroH256, node
		} else {
			left, right = node, ZeroH256
		}
		node = merge(newHasher, height, key.ParentPath(height), left, right)
	}
	return node
}

// ComputeRoot runs the stack machine to completion and returns the root it
// reproduces. leaves may be given in any order: a sorted copy feeds the 'L'
// opcodes in sequence, matching the key order Compile emitted them in.
func (cp CompiledMerkleProof) ComputeRoot(newHasher HasherFactory, leaves []Leaf) (H256, error) {
	if len(cp) == 0 {
		return H256{}, ErrEmptyProof
	}

	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	SortH256Leaves(sorted)
	leaves = sorted

	var stack []runtimeEntry
	leafIdx := 0
	i := 0
	for i < len(cp) {
		switch cp[i] {
		case opPushLeaf:
			if leafIdx >= len(leaves) {
				return H256{}, ErrCorruptedStack
			}
			l := leaves[leafIdx]
			leafIdx++
			stack = append(stack, runtimeEntry{key: l.Key, node: hashLeaf(newHasher, l.Key, l.Value), height: 0})
			i++

		case opProofStep:
			if i+2+32 > len(cp) {
				return H256{}, ErrCorruptedStack
			}
			height := cp[i+1]
			var sibling H256
			copy(sibling[:], cp[i+2:i+2+32])

			if len(stack) < 1 {
				return H256{}, ErrCorruptedStack
			}
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			node := flushToHeight(newHasher, e.key, e.node, e.height, int(height))
			var left, right H256
			if e.key.IsRight(height) {
				left, right = sibling, node
			} else {
				left, right = node, sibling
			}
			node = merge(newHasher, height, e.key.ParentPath(height), left, right)
			stack = append(stack, runtimeEntry{key: e.key, node: node, height: int(height) + 1})
			i += 2 + 32

		case opHash:
			if i+2 > len(cp) {
				return H256{}, ErrCorruptedStack
			}
			height := cp[i+1]

			if len(stack) < 2 {
				return H256{}, ErrCorruptedStack
			}
			eb := stack[len(stack)-1]
			ea := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			if ea.key.ParentPath(height) != eb.key.ParentPath(height) || ea.key.IsRight(height) == eb.key.IsRight(height) {
				return H256{}, ErrNonSiblings
			}

			na := flushToHeight(newHasher, ea.key, ea.node, ea.height, int(height))
			nb := flushToHeight(newHasher, eb.key, eb.node, eb.height, int(height))
			var left, right H256
			if ea.key.IsRight(height) {
				left, right = nb, na
			} else {
				left, right = na, nb
			}
			node := merge(newHasher, height, ea.key.ParentPath(height), left, right)
			stack = append(stack, runtimeEntry{key: ea.key, node: node, height: int(height) + 1})
			i += 2

		default:
			return H256{}, errInvalidCode(cp[i])
		}
	}

	if leafIdx != len(leaves) {
		return H256{}, ErrCorruptedStack
	}
	if len(stack) != 1 {
		return H256{}, ErrCorruptedStack
	}

	final := stack[0]
	return flushToHeight(newHasher, final.key, final.node, final.height, 256), nil
}

// Verify reports whether leaves reconstruct root under this compiled proof.
func (cp CompiledMerkleProof) Verify(newHasher HasherFactory, root H256, leaves []Leaf) (bool, error) {
	got, err := cp.ComputeRoot(newHasher, leaves)
	if err != nil {
		return false, err
	}
	return got == root, nil
}

// Bytes returns the raw opcode stream, e.g. for transmission.
func (cp CompiledMerkleProof) Bytes() []byte {
	return []byte(cp)
}
