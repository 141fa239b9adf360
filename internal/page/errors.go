package page

import (
	"errors"
	"fmt"

	"github.com/roach88/pagecloud/internal/ir"
)

// Error is a user-facing error returned by page operations.
//
// Errors include:
//   - Unknown commit: a diff was requested for a commit the page never saw
//   - Unknown base: an uploaded diff is based on a commit the page never saw
//   - Unknown object: a requested object is missing
//   - Duplicate commit: the same new commit appears twice in one upload
//
// Internal invariant violations (a corrupt diff tree) are never reported
// through Error; they panic.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// CommitID identifies the offending commit, if any.
	CommitID ir.CommitID
}

// ErrorCode categorizes page errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a missing commit, base commit or object.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeArgument indicates a malformed request, such as a commit pushed
	// twice in one upload.
	ErrCodeArgument ErrorCode = "ARGUMENT_ERROR"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.CommitID != "" {
		return fmt.Sprintf("%s: %s (commit=%s)", e.Code, e.Message, e.CommitID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound returns true if err is a NOT_FOUND page error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeNotFound
	}
	return false
}

// IsArgumentError returns true if err is an ARGUMENT_ERROR page error.
// Uses errors.As to handle wrapped errors.
func IsArgumentError(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeArgument
	}
	return false
}

// CodeOf returns the code of a page error, or "" for other errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// NewUnknownCommitError creates an Error for a diff requested on an unknown
// commit.
func NewUnknownCommitError(id ir.CommitID) *Error {
	return &Error{
		Code:     ErrCodeNotFound,
		Message:  "commit is unknown",
		CommitID: id,
	}
}

// NewUnknownBaseError creates an Error for an uploaded diff whose base commit
// is unknown.
func NewUnknownBaseError(id, base ir.CommitID) *Error {
	return &Error{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("diff based on commit %s but %s is unknown", base, base),
		CommitID: id,
	}
}

// NewUnknownObjectError creates an Error for a missing object.
func NewUnknownObjectError(id ir.ObjectID) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("object %s is unknown", id),
	}
}

// NewDuplicateCommitError creates an Error for a commit pushed twice in one
// upload.
func NewDuplicateCommitError(id ir.CommitID) *Error {
	return &Error{
		Code:     ErrCodeArgument,
		Message:  "commit pushed twice in a pack",
		CommitID: id,
	}
}
