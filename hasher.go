package smt

import "golang.org/x/crypto/blake2b"

// Hasher is the injected hash-primitive contract. An implementation absorbs
// a sequence of bytes/H256 values and yields one 32-byte digest; instances
// are one-shot — Finish must not be called twice, nor any Write* after it.
type Hasher interface {
	WriteH256(h H256)
	WriteByte(b byte)
	Finish() H256
}

// HasherFactory constructs a fresh one-shot Hasher. The tree and proof
// engines take one of these rather than a bare Hasher so each merge/leaf
// hash gets an independent instance, matching the reference design's
// `H: Hasher + Default` bound.
type HasherFactory func() Hasher

// Blake2bPersonalization matches the reference implementation's BLAKE2b
// personalization tag ("SMT", set via blake2b_rs::Blake2bBuilder::personal
// in the original). golang.org/x/crypto/blake2b's public API has no
// personalization parameter, so the tag is mixed in as a leading
// domain-separation byte string instead, so that every digest
// this tree produces is bound to the "SMT" domain and cannot collide with
// a BLAKE2b-256 digest computed for an unrelated purpose.
const Blake2bPersonalization = "SMT"

// NewBlake2bHasher constructs the default Hasher: BLAKE2b-256, unkeyed,
// personalized as above.
func NewBlake2bHasher() Hasher {
	return &blake2bHasher{buf: make([]byte, 0, 32*4)}
}

type blake2bHasher struct {
	buf []byte
}

func (b *blake2bHasher) WriteH256(h H256) {
	b.buf = append(b.buf, h[:]...)
}

func (b *blake2bHasher) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

func (b *blake2bHasher) Finish() H256 {
	sum := blake2b.Sum256(append([]byte(Blake2bPersonalization), b.buf...))
	return H256(sum)
}
