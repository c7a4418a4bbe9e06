// Package harness runs calculation scenarios against compiled dictionaries.
//
// A scenario names one dictionary and a list of cases. Each case feeds raw
// inputs to a fresh Calculate call and checks the outcome against its
// expect clause. Scenarios double as executable documentation of a rule set
// and as regression fixtures for golden snapshot comparison.
//
// # Scenario Format
//
//	name: tax_brackets
//	description: "Income tax brackets and surcharges"
//	dictionary: ../dictionaries/tax.yaml
//	cases:
//	  - name: high_income
//	    inputs: { income: 1000000, age: 40 }
//	    expect:
//	      ok: true
//	      outputs: { tax: "300000.00", bracket: high }
//	  - name: missing_inputs
//	    inputs: {}
//	    expect:
//	      ok: false
//	      errors:
//	        - { name: age, message: "Age must be a whole number between 0 and 150" }
//
// The dictionary path is resolved relative to the scenario file. Input and
// output values are scalars taken as written, so "300000.00" and 300000.00
// are the same expectation; null or an empty value is a blank input.
//
// # Matching
//
//   - ok must always be stated and must equal the run's outcome
//   - outputs is a subset match on the rendered outputs
//   - errors, when given, must equal the logged errors in order
//
// # Deterministic Testing
//
// Every scenario runs with a fixed clock (testutil.DefaultTime) and a fixed
// run ID, so date windows and snapshots are identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/tax_brackets.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err) // the dictionary did not load or compile
//	}
//	for _, c := range result.Cases {
//	    for _, m := range c.Mismatches {
//	        log.Println(m)
//	    }
//	}
package harness
