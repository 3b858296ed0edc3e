package agent

import (
	"strings"

	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/session"
)

// partialCall accumulates one in-progress tool call keyed by its stream
// index.
type partialCall struct {
	id   string
	name string
	args strings.Builder
}

// aggregate consumes a completion stream in a single pass and reassembles it
// into the final text and the ordered list of completed tool calls.
//
// Tool-call fragments carry a stable integer index identifying which call
// they belong to; arrival order is not otherwise reliable. A call's id and
// name are taken from the first fragment that carries them and never cleared
// by a later empty fragment; argument text is concatenated across all
// fragments for the index. onText, when non-nil, receives the cumulative
// text after every text fragment.
func aggregate(stream llm.Stream, onText func(cumulative string)) (string, []session.ToolCall, error) {
	defer stream.Close()

	var text strings.Builder
	var calls []*partialCall

	for stream.Next() {
		chunk := stream.Current()

		if chunk.TextDelta != "" {
			text.WriteString(chunk.TextDelta)
			if onText != nil {
				onText(text.String())
			}
		}

		for _, tc := range chunk.ToolCalls {
			for len(calls) <= tc.Index {
				calls = append(calls, &partialCall{})
			}
			call := calls[tc.Index]
			if tc.ID != "" {
				call.id = tc.ID
			}
			if tc.Name != "" {
				call.name = tc.Name
			}
			call.args.WriteString(tc.Arguments)
		}
	}
	if err := stream.Err(); err != nil {
		return "", nil, err
	}

	var completed []session.ToolCall
	for _, call := range calls {
		// Sparse indices leave gaps that never received a fragment; a slot
		// with neither id nor name is such a gap, not a call.
		if call.id == "" && call.name == "" {
			continue
		}
		completed = append(completed, session.ToolCall{
			ID:        call.id,
			Name:      call.name,
			Arguments: call.args.String(),
		})
	}
	return text.String(), completed, nil
}
