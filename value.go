package smt

// Value is the contract for anything storable at a leaf. ToH256 produces
// the digest absorbed into leaf hashing; implementations must guarantee
// that the zero value's ToH256 is itself the zero H256, so that writing it
// is indistinguishable from deletion (spec invariant 2).
type Value interface {
	ToH256() H256
}

// H256Value lets an H256 itself be stored as a leaf value, mirroring the
// reference implementation's Value impl for its own hash type.
type H256Value H256

// ToH256 returns v unchanged.
func (v H256Value) ToH256() H256 {
	return H256(v)
}

// ZeroH256Value is the canonical deleted value for H256Value-valued trees.
var ZeroH256Value = H256Value(ZeroH256)
