// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with an
// Ollama-compatible model host.
package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of streaming responses.
//
// Extraction is tolerant: a fragment may be a structured object with nested
// message content or a bare record carrying no content at all. Unextractable
// content contributes an empty string; a line that is not valid JSON is
// skipped entirely and never surfaces as an error.
type StreamReader struct {
	reader *bufio.Reader
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads the stream and calls the callback for each fragment.
// Blocks until the stream is complete or the context is cancelled;
// cancellation is checked between fragments.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}

			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// readChunk reads and parses a single line from the stream.
// Returns (nil, nil) for lines that should be skipped.
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return nil, io.EOF
		}
		// Process the last line even on EOF
		if len(line) == 0 {
			return nil, err
		}
	}

	if len(strings.TrimSpace(string(line))) == 0 {
		return nil, nil
	}

	// The fragment may be the structured chat form ({message:{content}}) or
	// a bare record; both decode here, with absent fields left empty.
	var response struct {
		Model   string `json:"model"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Done       bool   `json:"done"`
		DoneReason string `json:"done_reason,omitempty"`
	}
	if err := json.Unmarshal(line, &response); err != nil {
		// Skip malformed lines
		return nil, nil
	}

	return &StreamChunk{
		Content:    response.Message.Content,
		Done:       response.Done,
		DoneReason: response.DoneReason,
		Model:      response.Model,
	}, nil
}

// =============================================================================
// ACCUMULATOR STATE
// =============================================================================

// AccumulatorState tracks stream consumption progress.
// Transitions run forward only: awaiting first fragment, accumulating,
// done. There is no transition back from done.
type AccumulatorState int

const (
	StateAwaitingFirstFragment AccumulatorState = iota
	StateAccumulating
	StateDone
)

// String returns the state name for display.
func (s AccumulatorState) String() string {
	switch s {
	case StateAwaitingFirstFragment:
		return "awaiting-first-fragment"
	case StateAccumulating:
		return "accumulating"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// UpdateFunc receives the full accumulated snapshot after every fragment
// so a live view can be progressively refreshed.
type UpdateFunc func(snapshot string)

// StreamAccumulator merges streamed fragments into a single running text
// and reports progress after every fragment, including contentless ones.
// Completion with empty accumulated content is not an error.
type StreamAccumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content  strings.Builder
	state    AccumulatorState
	onUpdate UpdateFunc
	err      error
}

// NewStreamAccumulator creates a new accumulator. The onUpdate callback may
// be nil when no live view needs refreshing.
func NewStreamAccumulator(onUpdate UpdateFunc) *StreamAccumulator {
	return &StreamAccumulator{
		state:    StateAwaitingFirstFragment,
		onUpdate: onUpdate,
	}
}

// Add processes a new fragment. Fragments arriving after completion are
// ignored; the state machine never leaves done.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if a.state == StateDone {
		return
	}

	if chunk.Error != nil {
		a.err = chunk.Error
		a.state = StateDone
		return
	}

	if a.state == StateAwaitingFirstFragment {
		a.state = StateAccumulating
	}

	a.content.WriteString(chunk.Content)

	if a.onUpdate != nil {
		a.onUpdate(a.content.String())
	}

	if chunk.Done {
		a.state = StateDone
	}
}

// Finish marks the stream as exhausted. Called when the transport closes
// the sequence without a terminal fragment.
func (a *StreamAccumulator) Finish() {
	a.state = StateDone
}

// Text returns the accumulated content so far.
func (a *StreamAccumulator) Text() string {
	return a.content.String()
}

// State returns the current consumption state.
func (a *StreamAccumulator) State() AccumulatorState {
	return a.state
}

// IsDone reports whether consumption has completed.
func (a *StreamAccumulator) IsDone() bool {
	return a.state == StateDone
}

// Err returns any error delivered through the fragment sequence.
func (a *StreamAccumulator) Err() error {
	return a.err
}
