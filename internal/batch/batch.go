package batch

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pagecloud/internal/ir"
)

const schemaFilename = "schema.cue"

//go:embed schema.cue
var schemaCUE string

// CompileError is a batch that does not satisfy the schema or carries an
// inconsistent diff.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Decoded shapes, in the field names of schema.cue.
type rawChange struct {
	ID   string `json:"id"`
	Data string `json:"data"`
	Op   string `json:"op"`
}

type rawDiff struct {
	Base    string      `json:"base"`
	Changes []rawChange `json:"changes"`
}

type rawCommit struct {
	ID   string   `json:"id"`
	Data string   `json:"data"`
	Diff *rawDiff `json:"diff"`
}

type rawObject struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}

type rawBatch struct {
	Page    string      `json:"page"`
	Commits []rawCommit `json:"commits"`
	Objects []rawObject `json:"objects"`
}

// Compile checks v against the #Batch schema and converts it to an
// ir.Batch.
//
// Commit and object ids default to the content address of their data.
// The page id is NFC normalized. A diff that names the same entry twice
// with the same operation is rejected.
func Compile(v cue.Value) (*ir.Batch, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename(schemaFilename))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("batch schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Batch")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var raw rawBatch
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	b := &ir.Batch{
		Page:    ir.NormalizePageID(raw.Page),
		Commits: make([]ir.CommitUpload, 0, len(raw.Commits)),
	}

	for i, rc := range raw.Commits {
		field := fmt.Sprintf("commits[%d]", i)
		pos := unified.LookupPath(cue.ParsePath(field)).Pos()

		u, err := compileCommit(rc, field, pos)
		if err != nil {
			return nil, err
		}
		b.Commits = append(b.Commits, u)
	}

	for _, ro := range raw.Objects {
		data := []byte(ro.Data)
		id := ir.ObjectID(ro.ID)
		if id == "" {
			id = ir.ObjectIDFor(data)
		}
		b.Objects = append(b.Objects, ir.NamedObject{ID: id, Object: ir.Object{Data: data}})
	}

	return b, nil
}

func compileCommit(rc rawCommit, field string, pos token.Pos) (ir.CommitUpload, error) {
	data := []byte(rc.Data)
	id := ir.CommitID(rc.ID)
	if id == "" {
		id = ir.CommitIDFor(data)
	}
	u := ir.CommitUpload{Commit: ir.Commit{ID: id, Data: data}}

	if rc.Diff == nil {
		return u, nil
	}

	d := &ir.Diff{BaseState: ir.EmptyPage, Changes: make([]ir.DiffEntry, 0, len(rc.Diff.Changes))}
	if rc.Diff.Base != "" {
		d.BaseState = ir.At(ir.CommitID(rc.Diff.Base))
	}

	type entryKey struct {
		id string
		op ir.Operation
	}
	seen := make(map[entryKey]bool, len(rc.Diff.Changes))

	for j, ch := range rc.Diff.Changes {
		// The schema admits only "insert" and "delete"
		op, _ := ir.ParseOperation(ch.Op)
		key := entryKey{id: ch.ID, op: op}
		if seen[key] {
			return ir.CommitUpload{}, &CompileError{
				Field:   fmt.Sprintf("%s.diff.changes[%d]", field, j),
				Message: fmt.Sprintf("entry %q appears twice with operation %s", ch.ID, op),
				Pos:     pos,
			}
		}
		seen[key] = true

		d.Changes = append(d.Changes, ir.DiffEntry{
			EntryID:   []byte(ch.ID),
			Data:      []byte(ch.Data),
			Operation: op,
		})
	}

	u.Diff = d
	return u, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "batch"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}

	// Prefer a position in the user's file over one in the schema
	var pos token.Pos
	for _, p := range errors.Positions(first) {
		if !pos.IsValid() {
			pos = p
		}
		if p.Filename() != schemaFilename {
			pos = p
			break
		}
	}

	format, args := first.Msg()
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
