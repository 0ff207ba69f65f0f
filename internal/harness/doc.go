// Package harness runs vault query scenarios: a seeded vault, a list of
// query documents and the outcome each must have.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: unconsumed_cash
//	description: "Owner filter only sees unconsumed cash"
//	schemas: [cash.v2]
//	epoch: 2024-03-01T00:00:00Z
//	states:
//	  - ref: "tx1:0"
//	    type: Cash.State
//	    notary: Notary Service
//	    fungible: { owner: Alice Corp, amount: "12.50", issuer: Bank }
//	    custom:
//	      - table: cash_states_v2
//	        values: { ccy_code: USD, quantity: 1250 }
//	  - ref: "tx0:0"
//	    type: Cash.State
//	    consumed: true
//	queries:
//	  - name: alice
//	    query:
//	      criteria:
//	        fungible: { owners: [Alice Corp] }
//	    expect:
//	      refs: ["tx1:0"]
//	      total: 1
//	  - name: past_the_end
//	    query:
//	      criteria: { vault: {} }
//	      page: { number: 5, size: 10 }
//	    expect:
//	      error: PAGINATION_BOUNDS
//
// The states block is the fixture format also accepted by `vaultq seed`.
// Fungible amounts are decimal strings stored as integer minor units
// (two digits unless scale says otherwise).
//
// # Deterministic Runs
//
// Each scenario runs in its own in-memory SQLite vault. States without a
// recorded time, consumptions and soft locks take successive ticks of a
// testutil.DeterministicClock started at the fixture epoch, so a
// scenario always produces the same pages and the same golden snapshot.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/unconsumed_cash.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
