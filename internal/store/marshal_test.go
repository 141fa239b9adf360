package store

import (
	"testing"

	"github.com/roach88/pagecloud/internal/ir"
)

func TestMarshalBase_RoundTrip(t *testing.T) {
	for _, s := range []ir.PageState{ir.EmptyPage, ir.At("C1"), ir.At("")} {
		atCommit, commit := marshalBase(s)
		if got := unmarshalBase(atCommit, commit); got != s {
			t.Errorf("unmarshalBase(marshalBase(%v)) = %v", s, got)
		}
	}
}

func TestMarshalOp(t *testing.T) {
	for _, op := range []ir.Operation{ir.Insertion, ir.Deletion} {
		text, err := marshalOp(op)
		if err != nil {
			t.Fatalf("marshalOp(%v) failed: %v", op, err)
		}
		got, err := unmarshalOp(text)
		if err != nil {
			t.Fatalf("unmarshalOp(%q) failed: %v", text, err)
		}
		if got != op {
			t.Errorf("round trip of %v = %v", op, got)
		}
	}

	if _, err := marshalOp(ir.Operation(0)); err == nil {
		t.Error("expected error for zero operation")
	}
	if _, err := unmarshalOp("upsert"); err == nil {
		t.Error("expected error for unknown operation text")
	}
}
