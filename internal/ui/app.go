// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fitplan-tui/internal/config"
	"github.com/jeranaias/fitplan-tui/internal/plan"
	"github.com/jeranaias/fitplan-tui/internal/session"
	"github.com/jeranaias/fitplan-tui/internal/ui/styles"
)

// page identifies which screen is showing.
type page int

const (
	pageForm page = iota
	pageGenerating
	pagePlan
)

// Form field indexes.
const (
	fieldAge = iota
	fieldProblems
	fieldMinutes
	fieldCount
)

// Model is the root Bubble Tea model for the application.
type Model struct {
	theme *styles.Theme
	keys  keyMap

	sess *session.Session
	cfg  *config.Config

	page   page
	width  int
	height int

	// Form state
	inputs  [fieldCount]textinput.Model
	focus   int
	goalIdx int
	formErr string

	// Generation state
	spin     spinner.Model
	vp       viewport.Model
	partial  string
	planText string
	rendered string

	// Host state
	hostOK    bool
	hostDiag  string
	modelName string

	// Error banner state
	errTitle      string
	errMessage    string
	errSuggestion string

	notice string

	// Stream plumbing: the generation goroutine feeds these channels and
	// waitForStream turns them back into Bubble Tea messages.
	updates chan string
	done    chan generationDoneMsg

	cancelGen context.CancelFunc
}

// New creates the root model.
func New(sess *session.Session, cfg *config.Config) Model {
	theme := styles.NewTheme()

	m := Model{
		theme:     theme,
		keys:      defaultKeyMap(),
		sess:      sess,
		cfg:       cfg,
		page:      pageForm,
		modelName: sess.SelectedModel(),
	}

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot
	m.spin.Style = theme.Spinner

	age := textinput.New()
	age.Placeholder = "30"
	age.Prompt = ""
	age.CharLimit = 3
	age.Validate = digitsOnly
	age.Focus()
	m.inputs[fieldAge] = age

	problems := textinput.New()
	problems.Placeholder = "e.g. knee pain, asthma (leave blank for none)"
	problems.Prompt = ""
	problems.CharLimit = 200
	m.inputs[fieldProblems] = problems

	minutes := textinput.New()
	minutes.Placeholder = "45"
	minutes.Prompt = ""
	minutes.CharLimit = 3
	minutes.Validate = digitsOnly
	m.inputs[fieldMinutes] = minutes

	m.vp = viewport.New(80, 20)

	return m
}

func digitsOnly(s string) error {
	if s == "" {
		return nil
	}
	_, err := strconv.Atoi(s)
	return err
}

// Init kicks off the initial host probe and catalog refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.probeHost(), m.refreshModels(), m.spin.Tick)
}

// =============================================================================
// COMMANDS
// =============================================================================

// probeHost checks host reachability in the background.
func (m Model) probeHost() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		result := sess.Probe(context.Background())
		return probeMsg{OK: result.OK, Diagnostic: result.Diagnostic}
	}
}

// refreshModels re-queries the host catalog.
func (m Model) refreshModels() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		sess.RefreshCatalog(context.Background())
		return modelsMsg{
			Selected: sess.SelectedModel(),
			Count:    sess.Catalog().Len(),
		}
	}
}

// startGeneration launches the generation goroutine and returns the first
// stream-wait command.
func (m *Model) startGeneration(input plan.Input) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelGen = cancel

	// Buffered so a slow UI never blocks the stream callback for long;
	// snapshots are cumulative, dropping one loses nothing.
	updates := make(chan string, 64)
	done := make(chan generationDoneMsg, 1)
	m.updates = updates
	m.done = done

	sess := m.sess
	go func() {
		text, err := sess.Generate(ctx, input, func(snapshot string) {
			select {
			case updates <- snapshot:
			default:
			}
		})
		done <- generationDoneMsg{Text: text, Err: err}
	}()

	return m.waitForStream()
}

// waitForStream blocks on the next stream event and converts it to a
// Bubble Tea message. Re-issued after every received message.
func (m Model) waitForStream() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		select {
		case snapshot := <-updates:
			return snapshotMsg{Text: snapshot}
		case result := <-done:
			return result
		}
	}
}

// savePlan writes the finished plan to disk.
func (m Model) savePlan() tea.Cmd {
	outputDir := m.cfg.Export.OutputDir
	text := m.planText
	return func() tea.Msg {
		path, err := saveToDisk(outputDir, text)
		return savedMsg{Path: path, Err: err}
	}
}
