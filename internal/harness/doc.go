// Package harness runs YAML query scenarios against a fresh in-memory store.
//
// A scenario lists setup queries, then steps whose resulting changes (or
// error code) are checked, then assertions over the final store:
//
//	name: update
//	description: rewire an existing doublet
//	query_ids: [setup-1, step-1]
//	setup:
//	  - "(() ((1 2)))"
//	steps:
//	  - query: "(((1: 1 2)) ((1: 2 1)))"
//	    expect:
//	      changes:
//	        - "((1: 1 2)) ((1: 2 1))"
//	assertions:
//	  - type: links_equal
//	    links: ["(1: 2 1)"]
//
// Changes and links are written in the display format of store.FormatChange
// and store.FormatDoublet, so expectations read the way the CLI prints.
//
// Query ids come from query_ids in order, then from a "query-<n>" sequence,
// which keeps traces byte-identical between runs. RunWithGolden compares
// the JSON trace against testdata/golden/<name>.golden; regenerate with
//
//	go test ./internal/harness -update
package harness
