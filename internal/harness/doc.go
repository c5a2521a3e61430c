// Package harness runs conformance scenarios against the full command
// surface.
//
// A scenario is a YAML file naming a rule-set document, a sequence of
// protocol commands with expected outcomes, and assertions over the
// final state. The harness drives a real service loop with sequential
// request IDs, so a scenario exercises exactly the path a websocket
// client does, and the resulting transcript is deterministic enough for
// golden comparison.
//
// Scenario outcomes are real: the engine computes reachability, grants
// events, and rejects invalid commands on its own, and assertions read
// the final snapshot it produced. Nothing in the harness manufactures
// expected state.
package harness
