// Package ir provides the data model shared by every pagecloud package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - PageState zero value is the empty page; states are comparable
//   - Diff changes have set semantics, never rely on their order
//   - Commits and objects handed out by the engine are copies
//   - Content-addressed ids use SHA-256 with domain separation (hash.go)
//   - All JSON tags use snake_case
package ir
