// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/jeranaias/fitplan-tui/internal/config"
	"github.com/jeranaias/fitplan-tui/internal/ollama"
	"github.com/jeranaias/fitplan-tui/internal/plan"
	"github.com/jeranaias/fitplan-tui/internal/session"
)

func newTestModel() Model {
	cfg := config.Default()
	sess := session.New(ollama.NewClient(), cfg)
	return New(sess, cfg)
}

func TestCollectInput(t *testing.T) {
	m := newTestModel()
	m.inputs[fieldAge].SetValue("42")
	m.inputs[fieldProblems].SetValue("asthma")
	m.inputs[fieldMinutes].SetValue("60")
	m.goalIdx = 1

	input, err := m.collectInput()
	if err != nil {
		t.Fatalf("collectInput() error = %v", err)
	}
	if input.Age != 42 || input.MinutesPerSession != 60 {
		t.Errorf("input = %+v", input)
	}
	if input.Goal != plan.GoalGainMuscle {
		t.Errorf("Goal = %q", input.Goal)
	}
}

func TestCollectInput_RejectsNonNumeric(t *testing.T) {
	m := newTestModel()
	m.inputs[fieldAge].SetValue("")
	m.inputs[fieldMinutes].SetValue("45")

	if _, err := m.collectInput(); err == nil {
		t.Error("collectInput() accepted blank age")
	}
}

func TestCollectInput_ValidatesBounds(t *testing.T) {
	m := newTestModel()
	m.inputs[fieldAge].SetValue("200")
	m.inputs[fieldMinutes].SetValue("45")

	if _, err := m.collectInput(); err == nil {
		t.Error("collectInput() accepted age 200")
	}
}

func TestDescribeError_Classification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"busy", session.ErrBusy, "Busy"},
		{
			"unreachable gate",
			&session.ErrUnreachableHost{Diagnostic: "Connection refused"},
			"Host not reachable",
		},
		{
			"resource",
			&ollama.ClientError{Kind: ollama.ErrKindResource, Message: "insufficient memory"},
			"Out of memory",
		},
		{
			"timeout",
			&ollama.ClientError{Kind: ollama.ErrKindTimeout, Message: "request timed out"},
			"Timed out",
		},
		{
			"transport",
			&ollama.ClientError{Kind: ollama.ErrKindUnreachable, Message: "host unreachable"},
			"Connection failed",
		},
		{
			"generic keeps verbatim text",
			&ollama.ClientError{Kind: ollama.ErrKindRequest, Message: "model 'x' not found"},
			"Generation failed",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel()
			m.describeError(tc.err)
			if m.errTitle != tc.wantTitle {
				t.Errorf("errTitle = %q, want %q", m.errTitle, tc.wantTitle)
			}
			if m.errMessage == "" {
				t.Error("errMessage empty")
			}
		})
	}
}

func TestDescribeError_GenericCarriesHostDiagnostic(t *testing.T) {
	m := newTestModel()
	m.describeError(&ollama.ClientError{Kind: ollama.ErrKindRequest, Message: "model 'nope' not found"})

	if !strings.Contains(m.errMessage, "model 'nope' not found") {
		t.Errorf("errMessage = %q, want verbatim host text", m.errMessage)
	}
}

func TestRenderMarkdown_FallsBackToRawText(t *testing.T) {
	out := renderMarkdown("- day 1: rest", 0)
	if out == "" {
		t.Error("renderMarkdown() returned empty output")
	}
}

func TestViewRendersEachPage(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	for _, p := range []page{pageForm, pageGenerating, pagePlan} {
		m.page = p
		if out := m.View(); out == "" {
			t.Errorf("View() empty on page %d", p)
		}
	}
}

func TestHandleGenerationDone_ErrorReturnsToForm(t *testing.T) {
	m := newTestModel()
	m.page = pageGenerating

	next, _ := m.handleGenerationDone(generationDoneMsg{Err: errors.New("boom")})
	got := next.(Model)
	if got.page != pageForm {
		t.Errorf("page = %d, want form after failure", got.page)
	}
	if got.errTitle == "" {
		t.Error("error banner not set")
	}
}

func TestHandleGenerationDone_SuccessShowsPlan(t *testing.T) {
	m := newTestModel()
	m.page = pageGenerating

	next, _ := m.handleGenerationDone(generationDoneMsg{Text: "# Plan\n- walk"})
	got := next.(Model)
	if got.page != pagePlan {
		t.Errorf("page = %d, want plan", got.page)
	}
	if got.planText != "# Plan\n- walk" {
		t.Errorf("planText = %q", got.planText)
	}
}
