package smt

import (
	"bytes"
	"encoding/hex"
	"sort"
)

// H256 is a 256-bit opaque value used as key, node hash, and proof bitmap.
// Bit 0 is the lowest bit; bit 255 corresponds to the tree's top height.
type H256 [32]byte

// ZeroH256 is the all-zero value: the empty tree's root, a deleted leaf's
// digest, and the default hash of any subtree with no non-zero leaves.
var ZeroH256 = H256{}

// IsZero reports whether h is the all-zero value.
func (h H256) IsZero() bool {
	return h == ZeroH256
}

// GetBit returns the value of bit i (0 = lowest, 255 = highest). Bit 255
// lives in the MSB of byte 0 so that Cmp's plain bytes.Compare agrees with
// height order: the topmost height a MerkleProof routes on (255, the last
// one its bottom-up loop reaches) is also the first byte two keys are
// compared by.
func (h H256) GetBit(i uint8) bool {
	bytePos := 31 - i/8
	bitPos := i % 8
	return h[bytePos]>>bitPos&1 != 0
}

// SetBit sets bit i to 1.
func (h *H256) SetBit(i uint8) {
	bytePos := 31 - i/8
	bitPos := i % 8
	h[bytePos] |= 1 << bitPos
}

// ClearBit sets bit i to 0.
func (h *H256) ClearBit(i uint8) {
	bytePos := 31 - i/8
	bitPos := i % 8
	h[bytePos] &^= 1 << bitPos
}

// IsRight reports whether key routes to the right child at the given height,
// i.e. whether bit `height` is set.
func (h H256) IsRight(height uint8) bool {
	return h.GetBit(height)
}

// ForkHeight returns the highest bit index at which h and other differ.
// Callers must not invoke this on equal keys: update and get never do, and
// the result for identical inputs (0) is a precondition violation, not a
// meaningful height (see DESIGN.md, "fork_height" open question).
func (h H256) ForkHeight(other H256) uint8 {
	for height := 255; height >= 0; height-- {
		if h.GetBit(uint8(height)) != other.GetBit(uint8(height)) {
			return uint8(height)
		}
	}
	return 0
}

// ParentPath zeroes bits 0..=h, producing the canonical identifier of the
// subtree that contains h at height h+1.
func (h H256) ParentPath(height uint8) H256 {
	out := h
	// height == 255 clears every bit below it too; the loop below handles
	// the case height == 255 by clearing bits 0..255 inclusive.
	for i := 0; i <= int(height); i++ {
		out.ClearBit(uint8(i))
	}
	return out
}

// CopyBits returns a value with only the bits in [start, end) preserved;
// all other bits are zero. end is exclusive, matching a half-open range.
func (h H256) CopyBits(start, end int) H256 {
	if end < start {
		panic("smt: CopyBits end before start")
	}
	var out H256
	if end > 256 {
		end = 256
	}
	for i := start; i < end; i++ {
		if h.GetBit(uint8(i)) {
			out.SetBit(uint8(i))
		}
	}
	return out
}

// Cmp orders two H256 values by comparing bits from highest (255) to
// lowest (0) — equivalently, big-endian byte order. This matches the order
// required so sibling leaves cluster when a key set is sorted.
func (h H256) Cmp(other H256) int {
	return bytes.Compare(h[:], other[:])
}

// Less reports whether h sorts before other under Cmp.
func (h H256) Less(other H256) bool {
	return h.Cmp(other) < 0
}

// Equal reports bytewise equality.
func (h H256) Equal(other H256) bool {
	return h == other
}

// Bytes returns the value's big-endian byte representation.
func (h H256) Bytes() []byte {
	return h[:]
}

// String renders h as lowercase hex, matching the wire/fixture format used
// by fixture.Load.
func (h H256) String() string {
	return hex.EncodeToString(h[:])
}

// H256FromBytes copies up to 32 bytes from b into a new H256, zero-padding
// on the left if b is shorter.
func H256FromBytes(b []byte) H256 {
	var out H256
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}

// H256FromHex decodes a hex string (with or without a 0-padding to 64
// characters) into an H256.
func H256FromHex(s string) (H256, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return H256{}, err
	}
	return H256FromBytes(b), nil
}

// SortH256 sorts a slice of H256 values in place by Cmp order.
func SortH256(keys []H256) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
