// Package harness runs scripted page cloud scenarios.
//
// A scenario is a YAML file listing operations and what each should
// return. Steps run against a fresh cloud whose journal is an in-memory
// SQLite store, and after the last step the journal is restored into a
// second cloud that must agree with the first.
//
// # Scenario Format
//
//	name: shortest_diff
//	description: "A known base close to the target gives a short diff"
//	page: doc
//	steps:
//	  - op: add_commits
//	    commits:
//	      - id: C1
//	        diff: { changes: [{ id: a, data: "1", op: insert }] }
//	      - id: C2
//	        diff: { base: C1, changes: [{ id: b, data: "2", op: insert }] }
//	    expect_accepted: 2
//	  - op: get_diff
//	    commit: C2
//	    bases: [C1]
//	    expect_base: C1
//	    expect_changes: [{ id: b, data: "2", op: insert }]
//
// Operations are add_commits, get_commits, get_diff, add_object,
// get_object (page operations) and set_fingerprint, check_fingerprint,
// erase (device operations). A step without expect_error must succeed.
//
// # Golden Traces
//
// Every step leaves a TraceEvent. RunWithGolden compares the canonical JSON
// of the trace with testdata/golden/<name>.golden using goldie.
package harness
