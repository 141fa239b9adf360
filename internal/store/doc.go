// Package store provides the SQLite write-ahead journal of a pagecloud.
//
// The journal is append-only for commits:
//   - Commits: per-page commit log, ordered by seq
//   - Diffs: the diff each commit was uploaded with, plus a digest
//   - Diff entries: the diff's changes, in upload order
//   - Objects: per-page blobs, last write wins
//   - Fingerprints: the device set, cleared by erasure
//
// # Write-ahead discipline
//
// The cloud journals a mutation before applying it in memory, so a crash
// never leaves the journal behind the served state. Store implements
// cloud.Journal for writing and cloud.Snapshot for reading back.
//
// # Ordering
//
//   - Commit order uses the seq column, never timestamps
//   - Every read has an explicit ORDER BY, so replays are deterministic
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Diff digests are computed by ir.DiffDigest over the canonical encoding.
package store
