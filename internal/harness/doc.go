// Package harness executes declarative link-resolution scenarios.
//
// A scenario is a YAML file that names the route manifests to compile, the
// grants to load, the incoming request, and the response payload the handler
// produced. The harness compiles the manifests, builds the route graph and
// an in-memory grant set, runs the resolution pipeline, and returns the
// attached links together with the per-candidate decision trace.
//
// Scenarios drive two kinds of tests:
//
//   - golden tests: the full result is serialized to canonical JSON and
//     compared against a checked-in golden file (go test -update regenerates)
//   - assertion tests: ordinary Go tests inspect Result fields directly
//
// Determinism: scenario runs use a fixed request ID derived from the
// scenario name, so the same scenario always produces byte-identical
// canonical output.
package harness
