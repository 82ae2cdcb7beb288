// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fitplan-tui/internal/plan"
	"github.com/jeranaias/fitplan-tui/internal/util"
)

// View renders the current page.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Header.Render("fitplan — weekly exercise planner"))
	b.WriteString("\n\n")

	switch m.page {
	case pageForm:
		b.WriteString(m.viewForm())
	case pageGenerating:
		b.WriteString(m.viewGenerating())
	case pagePlan:
		b.WriteString(m.viewPlan())
	}

	if m.errTitle != "" {
		b.WriteString("\n")
		b.WriteString(m.viewError())
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.Notice.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())

	return m.theme.Container.Render(b.String())
}

// =============================================================================
// FORM PAGE
// =============================================================================

func (m Model) viewForm() string {
	var b strings.Builder

	labels := [fieldCount]string{"Age", "Health problems", "Minutes per session"}
	hints := [fieldCount]string{
		fmt.Sprintf("%d-%d", plan.MinAge, plan.MaxAge),
		"optional",
		fmt.Sprintf("%d-%d", plan.MinMinutes, plan.MaxMinutes),
	}

	for i := 0; i < fieldCount; i++ {
		label := m.theme.FormLabel
		if i == m.focus {
			label = m.theme.FormLabelFocused
		}
		b.WriteString(label.Render(util.PadRight(labels[i], 22)))
		b.WriteString(m.inputs[i].View())
		b.WriteString("  ")
		b.WriteString(m.theme.FormHint.Render(hints[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.FormLabel.Render(util.PadRight("Goal", 22)))
	for i, goal := range plan.Goals() {
		style := m.theme.GoalOption
		marker := "( ) "
		if i == m.goalIdx {
			style = m.theme.GoalSelected
			marker = "(•) "
		}
		b.WriteString(style.Render(marker + goal))
	}
	b.WriteString("\n")

	if m.formErr != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.FormError.Render("✗ " + m.formErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.shortcuts(
		"enter", "generate",
		"tab", "next field",
		"ctrl+g", "goal",
		"ctrl+r", "refresh host",
		"ctrl+o", "model",
		"ctrl+c", "quit",
	))

	return b.String()
}

// =============================================================================
// GENERATING PAGE
// =============================================================================

func (m Model) viewGenerating() string {
	var b strings.Builder

	b.WriteString(m.spin.View())
	b.WriteString(m.theme.ThinkingText.Render(" generating your weekly plan with " + m.modelName + "..."))
	b.WriteString("\n\n")

	if m.partial != "" {
		b.WriteString(m.theme.PlanPartial.Render(m.vp.View()))
	}

	b.WriteString("\n")
	b.WriteString(m.shortcuts("esc", "cancel", "ctrl+c", "quit"))
	return b.String()
}

// =============================================================================
// PLAN PAGE
// =============================================================================

func (m Model) viewPlan() string {
	var b strings.Builder

	b.WriteString(m.theme.PlanView.Render(m.vp.View()))
	b.WriteString("\n")
	b.WriteString(m.shortcuts(
		"ctrl+s", "save plan",
		"ctrl+n", "new plan",
		"↑/↓", "scroll",
		"ctrl+c", "quit",
	))
	return b.String()
}

// =============================================================================
// SHARED CHROME
// =============================================================================

func (m Model) viewError() string {
	body := m.theme.ErrorTitle.Render(m.errTitle) + "\n" +
		m.theme.ErrorMessage.Render(m.errMessage)
	if m.errSuggestion != "" {
		body += "\n" + m.theme.ErrorSuggestion.Render("→ " + m.errSuggestion)
	}
	return m.theme.ErrorBox.Render(body)
}

func (m Model) viewStatusBar() string {
	host := m.theme.StatusBad.Render("● host down")
	if m.hostOK {
		host = m.theme.StatusOK.Render("● host up")
	}

	parts := []string{
		host,
		m.theme.ShortcutDesc.Render("model: ") + m.theme.ShortcutKey.Render(m.modelName),
	}
	if !m.hostOK && m.hostDiag != "" {
		parts = append(parts, m.theme.ShortcutDesc.Render(util.TruncateWidth(m.hostDiag, 60)))
	}

	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}

// shortcuts renders key/description pairs for the footer.
func (m Model) shortcuts(pairs ...string) string {
	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts,
			m.theme.ShortcutKey.Render(pairs[i])+" "+m.theme.ShortcutDesc.Render(pairs[i+1]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "   "))
}

// renderMarkdown renders the finished plan through glamour, falling back to
// the raw text when rendering fails.
func renderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}
