// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fitplan-tui/internal/export"
	"github.com/jeranaias/fitplan-tui/internal/ollama"
	"github.com/jeranaias/fitplan-tui/internal/plan"
	"github.com/jeranaias/fitplan-tui/internal/session"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.vp.Width = msg.Width - 4
		m.vp.Height = msg.Height - 8
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case probeMsg:
		m.hostOK = msg.OK
		m.hostDiag = msg.Diagnostic
		return m, nil

	case modelsMsg:
		m.modelName = msg.Selected
		if msg.Count == 0 {
			m.notice = "no models reported; using " + msg.Selected
		} else {
			m.notice = ""
		}
		return m, nil

	case snapshotMsg:
		m.partial = msg.Text
		m.vp.SetContent(msg.Text)
		m.vp.GotoBottom()
		return m, m.waitForStream()

	case generationDoneMsg:
		return m.handleGenerationDone(msg)

	case savedMsg:
		if msg.Err != nil {
			m.setError("Save failed", msg.Err.Error(), "check that the directory is writable")
		} else {
			m.notice = "saved to " + msg.Path
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// handleKey routes key presses by page.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		if m.cancelGen != nil {
			m.cancelGen()
		}
		return m, tea.Quit
	}

	switch m.page {
	case pageForm:
		return m.handleFormKey(msg)
	case pageGenerating:
		return m.handleGeneratingKey(msg)
	case pagePlan:
		return m.handlePlanKey(msg)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Generate):
		return m.submitForm()

	case key.Matches(msg, m.keys.NextField):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil

	case key.Matches(msg, m.keys.ToggleGoal):
		m.goalIdx = (m.goalIdx + 1) % len(plan.Goals())
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.probeHost(), m.refreshModels())

	case key.Matches(msg, m.keys.CycleModel):
		m.modelName = m.sess.CycleModel()
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleGeneratingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		if m.cancelGen != nil {
			m.cancelGen()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) handlePlanKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		return m, m.savePlan()

	case key.Matches(msg, m.keys.NewPlan):
		m.page = pageForm
		m.clearError()
		m.notice = ""
		m.partial = ""
		m.planText = ""
		m.rendered = ""
		if err := m.sess.Reset(); err != nil {
			m.setError("Cannot reset", err.Error(), "wait for the current generation to finish")
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.probeHost(), m.refreshModels())
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// updateFocused forwards a message to the focused form input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.page != pageForm {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(idx int) {
	m.inputs[m.focus].Blur()
	m.focus = idx
	m.inputs[m.focus].Focus()
}

// =============================================================================
// FORM SUBMISSION
// =============================================================================

// submitForm validates the profile and starts a generation.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	input, err := m.collectInput()
	if err != nil {
		m.formErr = err.Error()
		return m, nil
	}
	m.formErr = ""
	m.clearError()
	m.notice = ""
	m.partial = ""
	m.page = pageGenerating
	m.vp.SetContent("")

	return m, tea.Batch(m.startGeneration(input), m.spin.Tick)
}

// collectInput parses the form fields into a profile.
func (m Model) collectInput() (plan.Input, error) {
	age, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldAge].Value()))
	if err != nil {
		return plan.Input{}, errors.New("age must be a number")
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(m.inputs[fieldMinutes].Value()))
	if err != nil {
		return plan.Input{}, errors.New("minutes per session must be a number")
	}

	input := plan.Input{
		Age:               age,
		HealthProblems:    m.inputs[fieldProblems].Value(),
		MinutesPerSession: minutes,
		Goal:              plan.Goals()[m.goalIdx],
	}
	return input, input.Validate()
}

// =============================================================================
// GENERATION COMPLETION
// =============================================================================

func (m Model) handleGenerationDone(msg generationDoneMsg) (tea.Model, tea.Cmd) {
	m.cancelGen = nil

	if msg.Err != nil {
		m.page = pageForm
		m.describeError(msg.Err)
		return m, nil
	}

	m.planText = msg.Text
	m.rendered = renderMarkdown(msg.Text, m.vp.Width)
	m.vp.SetContent(m.rendered)
	m.vp.GotoTop()
	m.page = pagePlan
	return m, nil
}

// describeError maps a generation error to the banner title, message, and
// remediation suggestion.
func (m *Model) describeError(err error) {
	var unreachable *session.ErrUnreachableHost

	switch {
	case errors.Is(err, session.ErrBusy):
		m.setError("Busy", "a generation is already in progress", "wait for it to finish")

	case errors.As(err, &unreachable):
		m.setError("Host not reachable", unreachable.Diagnostic, "start the host, then press ctrl+r to retry")

	case ollama.IsResource(err):
		m.setError("Out of memory", err.Error(), "try a smaller model (ctrl+o to switch) or free up system memory")

	case ollama.IsTimeout(err):
		m.setError("Timed out", err.Error(), "check the host and network, then try again")

	case ollama.IsUnreachable(err):
		m.setError("Connection failed", err.Error(), "is Ollama running? Try `ollama serve`")

	default:
		// Generic failures carry the host's own diagnostic verbatim
		m.setError("Generation failed", err.Error(), "press enter to try again")
	}
}

func (m *Model) setError(title, message, suggestion string) {
	m.errTitle = title
	m.errMessage = message
	m.errSuggestion = suggestion
}

func (m *Model) clearError() {
	m.errTitle = ""
	m.errMessage = ""
	m.errSuggestion = ""
}

// saveToDisk is a seam for the export package.
func saveToDisk(outputDir, text string) (string, error) {
	return export.SavePlan(outputDir, text)
}
