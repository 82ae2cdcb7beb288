// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with an
// Ollama-compatible model host.
package ollama

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func TestStreamReader_Process(t *testing.T) {
	input := `{"message":{"role":"assistant","content":"Hello"},"done":false}
{"message":{"role":"assistant","content":" world"},"done":false}
{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop"}
`
	reader := NewStreamReader(strings.NewReader(input))

	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Content != "Hello" || chunks[1].Content != " world" {
		t.Errorf("contents = %q, %q", chunks[0].Content, chunks[1].Content)
	}
	if !chunks[2].Done {
		t.Error("final chunk not marked done")
	}
	if chunks[2].DoneReason != "stop" {
		t.Errorf("DoneReason = %q, want stop", chunks[2].DoneReason)
	}
}

func TestStreamReader_SkipsMalformedAndBlankLines(t *testing.T) {
	input := `{"message":{"content":"a"},"done":false}
not json at all

{"message":{"content":"b"},"done":true}
`
	reader := NewStreamReader(strings.NewReader(input))

	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (malformed and blank lines skipped)", len(chunks))
	}
	if chunks[0].Content != "a" || chunks[1].Content != "b" {
		t.Errorf("contents = %q, %q, want a, b", chunks[0].Content, chunks[1].Content)
	}
}

func TestStreamReader_LastLineWithoutNewline(t *testing.T) {
	input := `{"message":{"content":"only"},"done":true}`
	reader := NewStreamReader(strings.NewReader(input))

	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "only" {
		t.Errorf("chunks = %v, want one chunk with content only", chunks)
	}
}

func TestStreamReader_ContextCancellation(t *testing.T) {
	input := `{"message":{"content":"a"},"done":false}
{"message":{"content":"b"},"done":false}
`
	reader := NewStreamReader(strings.NewReader(input))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := reader.Process(ctx, func(chunk StreamChunk) {
		t.Error("callback fired after cancellation")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
}

func TestStreamReader_BareObjectFragmentThroughAccumulator(t *testing.T) {
	// A bare record carries no content but is still a fragment: it reaches
	// the accumulator and still reports a snapshot.
	input := `{"message":{"content":"Hel"}}
{"message":{"content":"lo"}}
{}
`
	reader := NewStreamReader(strings.NewReader(input))

	var snapshots []string
	acc := NewStreamAccumulator(func(snapshot string) {
		snapshots = append(snapshots, snapshot)
	})

	if err := reader.Process(context.Background(), acc.Add); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	acc.Finish()

	if acc.Text() != "Hello" {
		t.Errorf("Text() = %q, want Hello", acc.Text())
	}
	want := []string{"Hel", "Hello", "Hello"}
	if len(snapshots) != len(want) {
		t.Fatalf("got %d snapshots %v, want %d; the bare fragment still reports", len(snapshots), snapshots, len(want))
	}
	for i := range want {
		if snapshots[i] != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, snapshots[i], want[i])
		}
	}
	if !acc.IsDone() {
		t.Error("accumulator not done after stream exhaustion")
	}
}

// =============================================================================
// ACCUMULATOR TESTS
// =============================================================================

func TestStreamAccumulator_SnapshotPerFragment(t *testing.T) {
	var snapshots []string
	acc := NewStreamAccumulator(func(snapshot string) {
		snapshots = append(snapshots, snapshot)
	})

	acc.Add(StreamChunk{Content: "Hel"})
	acc.Add(StreamChunk{Content: "lo"})
	acc.Add(StreamChunk{Content: "", Done: true})

	if acc.Text() != "Hello" {
		t.Errorf("Text() = %q, want Hello", acc.Text())
	}
	want := []string{"Hel", "Hello", "Hello"}
	if len(snapshots) != len(want) {
		t.Fatalf("got %d snapshots, want %d; the contentless fragment still reports", len(snapshots), len(want))
	}
	for i := range want {
		if snapshots[i] != want[i] {
			t.Errorf("snapshot[%d] = %q, want %q", i, snapshots[i], want[i])
		}
	}
}

func TestStreamAccumulator_StateTransitions(t *testing.T) {
	acc := NewStreamAccumulator(nil)

	if acc.State() != StateAwaitingFirstFragment {
		t.Errorf("initial state = %v, want awaiting first fragment", acc.State())
	}

	acc.Add(StreamChunk{Content: "x"})
	if acc.State() != StateAccumulating {
		t.Errorf("state after first fragment = %v, want accumulating", acc.State())
	}

	acc.Add(StreamChunk{Content: "y", Done: true})
	if !acc.IsDone() {
		t.Error("not done after terminal fragment")
	}

	// No transition back out of done
	acc.Add(StreamChunk{Content: "z"})
	if acc.Text() != "xy" {
		t.Errorf("Text() = %q after post-done fragment, want xy", acc.Text())
	}
	if acc.State() != StateDone {
		t.Errorf("state = %v after post-done fragment, want done", acc.State())
	}
}

func TestStreamAccumulator_EmptyCompletionIsNotAnError(t *testing.T) {
	acc := NewStreamAccumulator(nil)
	acc.Add(StreamChunk{Done: true})

	if !acc.IsDone() {
		t.Error("not done")
	}
	if acc.Err() != nil {
		t.Errorf("Err() = %v, want nil for empty completion", acc.Err())
	}
	if acc.Text() != "" {
		t.Errorf("Text() = %q, want empty", acc.Text())
	}
}

func TestStreamAccumulator_ErrorFragmentTerminates(t *testing.T) {
	streamErr := errors.New("connection reset")

	var updates int
	acc := NewStreamAccumulator(func(string) { updates++ })

	acc.Add(StreamChunk{Content: "partial"})
	acc.Add(StreamChunk{Error: streamErr})

	if !acc.IsDone() {
		t.Error("not done after error fragment")
	}
	if !errors.Is(acc.Err(), streamErr) {
		t.Errorf("Err() = %v, want %v", acc.Err(), streamErr)
	}
	if acc.Text() != "partial" {
		t.Errorf("Text() = %q, partial content should survive", acc.Text())
	}
	if updates != 1 {
		t.Errorf("updates = %d, want 1; error fragments do not report a snapshot", updates)
	}
}

func TestStreamAccumulator_NilCallback(t *testing.T) {
	acc := NewStreamAccumulator(nil)
	acc.Add(StreamChunk{Content: "no panic"})
	acc.Finish()

	if !acc.IsDone() {
		t.Error("Finish() should mark the accumulator done")
	}
}

func TestAccumulatorState_String(t *testing.T) {
	tests := []struct {
		state AccumulatorState
		want  string
	}{
		{StateAwaitingFirstFragment, "awaiting-first-fragment"},
		{StateAccumulating, "accumulating"},
		{StateDone, "done"},
		{AccumulatorState(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("String(%d) = %q, want %q", tc.state, got, tc.want)
		}
	}
}
