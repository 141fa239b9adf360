// Package batch compiles upload batch files into ir.Batch values.
//
// A batch names one page and lists commits in upload order, each with an
// optional diff, plus optional objects. Files are CUE or JSON and are
// checked against the embedded schema (schema.cue) using the CUE Go API:
//
//	page: "notes"
//	commits: [
//		{id: "c1", data: "first", diff: {changes: [{id: "title", data: "Hello", op: "insert"}]}},
//		{id: "c2", data: "second", diff: {base: "c1", changes: [{id: "title", data: "Hello", op: "delete"}]}},
//	]
//
// Compile does not check that diff bases exist; that is the page's job at
// upload time.
package batch
