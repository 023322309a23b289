// Package swimcore implements the per-node membership state machine of an
// all-to-all gossip (SWIM-family) protocol: ordered integration of
// heartbeat observations into a shared membership table, two-phase
// timeout-based failure detection (suspected, then removed), and a
// cooperative, tick-driven scheduling contract.
//
// A Node owns no threads of its own. An external driver — a real process
// loop over [transport/udp], or a test harness over [transport/sim] — calls
// Tick once per time step and is responsible for delivering inbound bytes
// between calls. See the transport, wire, and audit subpackages for the
// collaborators a Node needs to actually run.
package swimcore
