// Package harness runs YAML conformance scenarios against the social service.
//
// Each scenario executes in a fresh database with a frozen clock and
// deterministic wallets, so its trace is reproducible and can be compared
// against a golden file.
//
// # Scenario Format
//
//	name: like_counts
//	description: "A like bumps the target counter"
//	wallets: [alice, bob]
//	steps:
//	  - op: create
//	    kind: post
//	    as: alice
//	    save: p1
//	    payload: { version: "1", authorName: alice, authorAvatar: a.png, body: hi }
//	  - op: advance
//	    advance: 1m
//	  - op: create
//	    kind: like
//	    as: bob
//	    payload: { version: "1", refType: post, refHash: $p1 }
//	    expect: { code: "" }
//	assertions:
//	  - type: final_state
//	    kind: post
//	    by: hash
//	    params: { hash: $p1 }
//	    expect: { statisticLike: 1 }
//
// Payload strings of the form $name resolve to the content hash saved by an
// earlier step; @alias resolves to the address of a scenario wallet. The
// signing wallet's address is written to "wallet" unless the payload sets it,
// and delete steps carry the delete-request marker unless they set "deleted".
//
// # Step Operations
//
//   - create, update, delete: signed mutations, signed by sign_as or as
//   - stat: counter adjustment of counter on hash by delta (default +1)
//   - get, list: finder queries
//   - advance: moves the clock by a Go duration
//
// # Assertion Types
//
//   - trace_count: number of steps with the given op and outcome
//   - final_state: a get query whose result must contain expect
package harness
