package agent

import (
	"reflect"
	"testing"

	"github.com/nbrandt/codewright/llm"
	"github.com/nbrandt/codewright/session"
)

func TestAggregateTextAndCalls(t *testing.T) {
	stream := llm.NewChunkStream(
		llm.Chunk{TextDelta: "Let me "},
		llm.Chunk{TextDelta: "check."},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{
			{Index: 0, ID: "call_1", Name: "read_file", Arguments: `{"path":`},
		}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{
			{Index: 0, Arguments: `"README.md"}`},
		}},
	)

	var snapshots []string
	text, calls, err := aggregate(stream, func(cumulative string) {
		snapshots = append(snapshots, cumulative)
	})
	if err != nil {
		t.Fatalf("aggregate returned error: %v", err)
	}
	if text != "Let me check." {
		t.Errorf("text = %q, want %q", text, "Let me check.")
	}
	wantSnapshots := []string{"Let me ", "Let me check."}
	if !reflect.DeepEqual(snapshots, wantSnapshots) {
		t.Errorf("cumulative snapshots = %v, want %v", snapshots, wantSnapshots)
	}
	wantCalls := []session.ToolCall{
		{ID: "call_1", Name: "read_file", Arguments: `{"path":"README.md"}`},
	}
	if !reflect.DeepEqual(calls, wantCalls) {
		t.Errorf("calls = %+v, want %+v", calls, wantCalls)
	}
}

// Splitting a stream at arbitrary boundaries, down to one argument
// character per chunk, must reconstruct the same calls as the unsplit
// stream.
func TestAggregateSplitInvariance(t *testing.T) {
	unsplit := llm.NewChunkStream(
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{
			{Index: 0, ID: "call_a", Name: "write_file", Arguments: `{"path":"a/b/c.txt","content":"X"}`},
			{Index: 1, ID: "call_b", Name: "run_terminal_command", Arguments: `{"command":"ls"}`},
		}},
	)
	_, want, err := aggregate(unsplit, nil)
	if err != nil {
		t.Fatalf("aggregate(unsplit) returned error: %v", err)
	}

	// Rebuild the same two calls as interleaved single-character fragments.
	var chunks []llm.Chunk
	chunks = append(chunks,
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_a", Name: "write_file"}}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 1, ID: "call_b", Name: "run_terminal_command"}}},
	)
	argsA := `{"path":"a/b/c.txt","content":"X"}`
	argsB := `{"command":"ls"}`
	for i := 0; i < len(argsA) || i < len(argsB); i++ {
		var deltas []llm.ToolCallDelta
		if i < len(argsA) {
			deltas = append(deltas, llm.ToolCallDelta{Index: 0, Arguments: string(argsA[i])})
		}
		if i < len(argsB) {
			deltas = append(deltas, llm.ToolCallDelta{Index: 1, Arguments: string(argsB[i])})
		}
		chunks = append(chunks, llm.Chunk{ToolCalls: deltas})
	}

	_, got, err := aggregate(llm.NewChunkStream(chunks...), nil)
	if err != nil {
		t.Fatalf("aggregate(split) returned error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("split stream produced %+v, want %+v", got, want)
	}
}

func TestAggregateKeepsIDAndNameOverEmptyFragments(t *testing.T) {
	stream := llm.NewChunkStream(
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_1", Name: "web_search"}}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 0, Arguments: `{"query":`}}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 0, Arguments: `"go"}`}}},
	)

	_, calls, err := aggregate(stream, nil)
	if err != nil {
		t.Fatalf("aggregate returned error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("got %d calls, want 1", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "web_search" {
		t.Errorf("id/name = %q/%q, want call_1/web_search", calls[0].ID, calls[0].Name)
	}
	if calls[0].Arguments != `{"query":"go"}` {
		t.Errorf("arguments = %q", calls[0].Arguments)
	}
}

// A stream whose fragments all target a high index must not materialize
// calls for the lower indices that never received a fragment.
func TestAggregateSkipsIndexGaps(t *testing.T) {
	stream := llm.NewChunkStream(
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 1, ID: "call_b", Name: "read_file"}}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 1, Arguments: `{"path":"b"}`}}},
	)

	_, calls, err := aggregate(stream, nil)
	if err != nil {
		t.Fatalf("aggregate returned error: %v", err)
	}
	want := []session.ToolCall{
		{ID: "call_b", Name: "read_file", Arguments: `{"path":"b"}`},
	}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %+v, want %+v", calls, want)
	}
}

func TestAggregateOrdersByIndexNotArrival(t *testing.T) {
	// Index 1 finishes streaming before index 0 even starts; output order
	// must still follow the index.
	stream := llm.NewChunkStream(
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 1, ID: "call_b", Name: "read_file", Arguments: `{"path":"b"}`}}},
		llm.Chunk{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_a", Name: "read_file", Arguments: `{"path":"a"}`}}},
	)

	_, calls, err := aggregate(stream, nil)
	if err != nil {
		t.Fatalf("aggregate returned error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].ID != "call_a" || calls[1].ID != "call_b" {
		t.Errorf("order = [%s %s], want [call_a call_b]", calls[0].ID, calls[1].ID)
	}
}
