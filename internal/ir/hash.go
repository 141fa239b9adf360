package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCommit = "pagecloud/commit/v1"
	DomainObject = "pagecloud/object/v1"
	DomainDiff   = "pagecloud/diff/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CommitIDFor computes the content-addressed id of a commit payload.
func CommitIDFor(data []byte) CommitID {
	return CommitID(hashWithDomain(DomainCommit, data))
}

// ObjectIDFor computes the content-addressed id of an object blob.
func ObjectIDFor(data []byte) ObjectID {
	return ObjectID(hashWithDomain(DomainObject, data))
}

// DiffDigest hashes the canonical encoding of a diff. Two diffs with the
// same base and the same set of changes have the same digest regardless of
// change order.
func DiffDigest(d Diff) (string, error) {
	canonical, err := MarshalCanonical(d)
	if err != nil {
		return "", fmt.Errorf("DiffDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDiff, canonical), nil
}

// MustDiffDigest is like DiffDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDiffDigest(d Diff) string {
	digest, err := DiffDigest(d)
	if err != nil {
		panic(err)
	}
	return digest
}
