package smt

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrKind identifies which of spec §7's error conditions occurred.
//
// spec §7 also lists MissingBranch/MissingLeaf ("store returned None
// where a node was required"); this package has no such kind. Every
// Store method here is addressed by (height, node_key) or by the full
// leaf key, so a nil result is never a fault to report — it is the
// ordinary encoding of "this subtree/leaf is the default/absent,"
// handled by treating it as a zero sibling (see tree.go). The
// condition spec §7 describes is unreachable for this Store shape, so
// the kind is intentionally not modeled.
type ErrKind int

const (
	ErrKindEmptyKeys ErrKind = iota
	ErrKindEmptyProof
	ErrKindIncorrectNumberOfLeaves
	ErrKindCorruptedProof
	ErrKindCorruptedStack
	ErrKindNonSiblings
	ErrKindInvalidCode
	ErrKindNonMergableRange
	ErrKindStore
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindEmptyKeys:
		return "EmptyKeys"
	case ErrKindEmptyProof:
		return "EmptyProof"
	case ErrKindIncorrectNumberOfLeaves:
		return "IncorrectNumberOfLeaves"
	case ErrKindCorruptedProof:
		return "CorruptedProof"
	case ErrKindCorruptedStack:
		return "CorruptedStack"
	case ErrKindNonSiblings:
		return "NonSiblings"
	case ErrKindInvalidCode:
		return "InvalidCode"
	case ErrKindNonMergableRange:
		return "NonMergableRange"
	case ErrKindStore:
		return "Store"
	default:
		return "Unknown"
	}
}

// TreeError is the single error type the core returns. Callers that need
// to branch on the failure mode should use errors.As to recover one, then
// switch on Kind; callers that just want a message can treat it as a plain
// error.
type TreeError struct {
	Kind ErrKind
	// Expected/Actual populate IncorrectNumberOfLeaves.
	Expected, Actual int
	// Code populates InvalidCode.
	Code byte
	// cause wraps an underlying Store error (see errors.Unwrap).
	cause error
}

func (e *TreeError) Error() string {
	switch e.Kind {
	case ErrKindIncorrectNumberOfLeaves:
		return fmt.Sprintf("smt: incorrect number of leaves: expected %d, actual %d", e.Expected, e.Actual)
	case ErrKindInvalidCode:
		return fmt.Sprintf("smt: invalid opcode 0x%02x", e.Code)
	case ErrKindStore:
		return fmt.Sprintf("smt: store error: %s", e.cause)
	default:
		return "smt: " + e.Kind.String()
	}
}

// Unwrap exposes the wrapped backend error of a Store-kind error (set by
// wrapStoreErr) for errors.Is/errors.As; it is nil for every other kind.
func (e *TreeError) Unwrap() error {
	return e.cause
}

func newErr(kind ErrKind) error {
	return &TreeError{Kind: kind}
}

// ErrEmptyKeys is returned by MerkleProof when called with no keys.
var ErrEmptyKeys = newErr(ErrKindEmptyKeys)

// ErrEmptyProof is returned when verifying against an empty proof structure.
var ErrEmptyProof = newErr(ErrKindEmptyProof)

// ErrCorruptedProof is returned when proof material is exhausted early,
// left over, or disagrees with the leaves_path bitmap.
var ErrCorruptedProof = newErr(ErrKindCorruptedProof)

// ErrCorruptedStack is returned when a compiled proof's stack machine ends
// with anything other than exactly one entry.
var ErrCorruptedStack = newErr(ErrKindCorruptedStack)

// ErrNonSiblings is returned when an H opcode's two popped entries are not
// actually siblings at the claimed height.
var ErrNonSiblings = newErr(ErrKindNonSiblings)

// ErrNonMergableRange signals a compiled-proof program merging leaf index
// ranges that are not contiguous — a bug in proof generation, not caller
// input.
var ErrNonMergableRange = newErr(ErrKindNonMergableRange)

func errIncorrectNumberOfLeaves(expected, actual int) error {
	return &TreeError{Kind: ErrKindIncorrectNumberOfLeaves, Expected: expected, Actual: actual}
}

func errInvalidCode(code byte) error {
	return &TreeError{Kind: ErrKindInvalidCode, Code: code}
}

// wrapStoreErr folds a backend failure into a Store-kind TreeError, keeping
// the original error inspectable via errors.Unwrap and adding the failing
// operation's name to the message via github.com/pkg/errors.
func wrapStoreErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return &TreeError{Kind: ErrKindStore, cause: errors.Wrapf(err, "store: %s", op)}
}
