package store

import (
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// marshalBase splits a base state into its two columns.
func marshalBase(s ir.PageState) (atCommit bool, commit string) {
	if s.IsEmpty() {
		return false, ""
	}
	return true, string(s.Commit)
}

// unmarshalBase rebuilds a base state from its columns.
func unmarshalBase(atCommit bool, commit string) ir.PageState {
	if !atCommit {
		return ir.EmptyPage
	}
	return ir.At(ir.CommitID(commit))
}

// marshalOp converts an operation to its stored text form.
func marshalOp(op ir.Operation) (string, error) {
	switch op {
	case ir.Insertion, ir.Deletion:
		return op.String(), nil
	default:
		return "", fmt.Errorf("marshal op: invalid operation %d", int(op))
	}
}

// unmarshalOp parses the stored text form of an operation.
func unmarshalOp(s string) (ir.Operation, error) {
	op, ok := ir.ParseOperation(s)
	if !ok {
		return 0, fmt.Errorf("unmarshal op: unknown operation %q", s)
	}
	return op, nil
}

// nonNil returns b, or an empty slice when b is nil. BLOB NOT NULL columns
// reject nil byte slices.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
