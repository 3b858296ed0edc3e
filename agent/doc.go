// Package agent implements the core conversation loop of the coding
// assistant.
//
// Each client connection owns one Session. The session appends inbound user
// messages to its transcript, requests a streamed completion restricted to
// the mode's allowed tools, reassembles the stream into text and tool calls,
// executes the calls sequentially while reporting progress events, and loops
// until the model stops requesting tools or the round budget runs out.
//
// The package deliberately separates three concerns:
//
//   - Session: the per-connection state machine and turn loop
//   - aggregate: reassembly of index-keyed stream fragments into complete
//     tool calls
//   - toolHandler: per-tool event shaping around execution
//
// Tool-level failures never abort a turn; they are folded into result text
// and fed back to the model, which is the error handler for everything
// below the transport.
package agent
