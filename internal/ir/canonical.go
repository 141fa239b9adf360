package ir

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for hashing and golden traces.
//
// Differences from json.Marshal:
//  1. Object keys are sorted
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. Byte slices are standard base64
//  5. Diff changes are emitted sorted by (entry id, operation, data), so a
//     diff's encoding does not depend on the order of its change set
//  6. No floats, no null
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case []byte:
		return writeCanonicalString(buf, base64.StdEncoding.EncodeToString(val))
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case CommitID:
		return writeCanonicalString(buf, string(val))
	case ObjectID:
		return writeCanonicalString(buf, string(val))
	case PageID:
		return writeCanonicalString(buf, string(val))
	case Fingerprint:
		return writeCanonicalString(buf, string(val))
	case Token:
		fmt.Fprintf(buf, "%d", int(val))
	case Operation:
		return writeCanonicalString(buf, val.String())
	case PageState:
		return writeCanonical(buf, pageStateMap(val))
	case DiffEntry:
		return writeCanonical(buf, diffEntryMap(val))
	case []DiffEntry:
		return writeCanonicalArray(buf, changesList(val))
	case Diff:
		return writeCanonical(buf, map[string]any{
			"base_state": pageStateMap(val.BaseState),
			"changes":    changesList(val.Changes),
		})
	case Commit:
		return writeCanonical(buf, map[string]any{
			"id":   string(val.ID),
			"data": val.Data,
		})
	case []Commit:
		list := make([]any, len(val))
		for i, c := range val {
			list[i] = c
		}
		return writeCanonicalArray(buf, list)
	case []string:
		list := make([]any, len(val))
		for i, s := range val {
			list[i] = s
		}
		return writeCanonicalArray(buf, list)
	case []any:
		return writeCanonicalArray(buf, val)
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case float32, float64:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func pageStateMap(s PageState) map[string]any {
	if !s.AtCommit {
		return map[string]any{"at_commit": false}
	}
	return map[string]any{"at_commit": true, "commit": string(s.Commit)}
}

func diffEntryMap(e DiffEntry) map[string]any {
	return map[string]any{
		"entry_id":  e.EntryID,
		"data":      e.Data,
		"operation": e.Operation.String(),
	}
}

// changesList returns the changes in canonical order as a list of maps.
func changesList(changes []DiffEntry) []any {
	sorted := slices.Clone(changes)
	SortEntries(sorted)
	list := make([]any, len(sorted))
	for i, e := range sorted {
		list[i] = diffEntryMap(e)
	}
	return list
}

// SortEntries orders entries by (entry id, operation, data) in place.
func SortEntries(entries []DiffEntry) {
	slices.SortFunc(entries, func(a, b DiffEntry) int {
		if c := bytes.Compare(a.EntryID, b.EntryID); c != 0 {
			return c
		}
		if a.Operation != b.Operation {
			return int(a.Operation) - int(b.Operation)
		}
		return bytes.Compare(a.Data, b.Data)
	})
}

// writeCanonicalString writes s NFC normalized, without HTML escaping.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'}))
	return nil
}

func writeCanonicalArray(buf *bytes.Buffer, arr []any) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
