package ir

import "bytes"

// CommitID identifies a commit within a page.
type CommitID string

// ObjectID identifies an object blob within a page.
type ObjectID string

// PageID identifies a page. Use NormalizePageID at input boundaries.
type PageID string

// Fingerprint identifies a device registered with the cloud.
// Use NormalizeFingerprint at input boundaries.
type Fingerprint string

// Token is a cursor into a page's commit log: the number of commits the
// holder has already observed.
type Token int

// PageState is either the empty page (zero value) or the page as of a commit.
// It is comparable and may be used as a map key.
type PageState struct {
	AtCommit bool     `json:"at_commit"`
	Commit   CommitID `json:"commit,omitempty"`
}

// EmptyPage is the state before any commit.
var EmptyPage = PageState{}

// At returns the state of the page as of commit id.
func At(id CommitID) PageState {
	return PageState{AtCommit: true, Commit: id}
}

// IsEmpty reports whether s is EmptyPage.
func (s PageState) IsEmpty() bool {
	return !s.AtCommit
}

// String renders the state for logs and error messages.
func (s PageState) String() string {
	if !s.AtCommit {
		return "<empty>"
	}
	return string(s.Commit)
}

// Operation is the kind of change a DiffEntry applies.
type Operation int

const (
	// Insertion adds the entry.
	Insertion Operation = iota + 1
	// Deletion removes the entry.
	Deletion
)

// Inverse returns the opposite operation.
func (op Operation) Inverse() Operation {
	if op == Insertion {
		return Deletion
	}
	return Insertion
}

func (op Operation) String() string {
	switch op {
	case Insertion:
		return "insert"
	case Deletion:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseOperation parses "insert" or "delete".
func ParseOperation(s string) (Operation, bool) {
	switch s {
	case "insert":
		return Insertion, true
	case "delete":
		return Deletion, true
	}
	return 0, false
}

// DiffEntry is one keyed change.
type DiffEntry struct {
	EntryID   []byte    `json:"entry_id"`
	Data      []byte    `json:"data"`
	Operation Operation `json:"operation"`
}

// Invert returns a copy of e with the operation flipped.
func (e DiffEntry) Invert() DiffEntry {
	e.Operation = e.Operation.Inverse()
	return e
}

// Clone returns a deep copy.
func (e DiffEntry) Clone() DiffEntry {
	return DiffEntry{
		EntryID:   bytes.Clone(e.EntryID),
		Data:      bytes.Clone(e.Data),
		Operation: e.Operation,
	}
}

// CloneEntries deep-copies every entry of changes.
func CloneEntries(changes []DiffEntry) []DiffEntry {
	if changes == nil {
		return nil
	}
	out := make([]DiffEntry, len(changes))
	for i, e := range changes {
		out[i] = e.Clone()
	}
	return out
}

// Equal reports structural equality.
func (e DiffEntry) Equal(o DiffEntry) bool {
	return e.Operation == o.Operation &&
		bytes.Equal(e.EntryID, o.EntryID) &&
		bytes.Equal(e.Data, o.Data)
}

// Diff transforms BaseState into some implicit target state.
// Changes has set semantics; order is irrelevant.
type Diff struct {
	BaseState PageState   `json:"base_state"`
	Changes   []DiffEntry `json:"changes"`
}

// Commit is an opaque payload plus identity. Immutable once stored: callers
// receiving a Commit from the engine get their own copy.
type Commit struct {
	ID   CommitID `json:"id"`
	Data []byte   `json:"data"`
}

// Clone returns a deep copy.
func (c Commit) Clone() Commit {
	return Commit{ID: c.ID, Data: bytes.Clone(c.Data)}
}

// CommitUpload pairs an uploaded commit with its optional diff.
type CommitUpload struct {
	Commit Commit `json:"commit"`
	Diff   *Diff  `json:"diff,omitempty"`
}

// Object is an opaque content blob.
type Object struct {
	Data []byte `json:"data"`
}

// Clone returns a deep copy.
func (o Object) Clone() Object {
	return Object{Data: bytes.Clone(o.Data)}
}

// NamedObject pairs an object with its id.
type NamedObject struct {
	ID     ObjectID `json:"id"`
	Object Object   `json:"object"`
}

// Batch is a decoded upload for one page: commits in upload order plus
// objects.
type Batch struct {
	Page    PageID         `json:"page"`
	Commits []CommitUpload `json:"commits"`
	Objects []NamedObject  `json:"objects,omitempty"`
}
