// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/fitplan-tui/internal/config"
	"github.com/jeranaias/fitplan-tui/internal/model"
	"github.com/jeranaias/fitplan-tui/internal/ollama"
	"github.com/jeranaias/fitplan-tui/internal/plan"
)

// ErrBusy is returned when a generation is requested while another is
// still in flight. Submissions are serialized, never queued.
var ErrBusy = errors.New("a generation is already in progress")

// ErrUnreachableHost is returned when the pre-generation reachability
// probe fails. The probe diagnostic is carried in the message.
type ErrUnreachableHost struct {
	Diagnostic string
}

func (e *ErrUnreachableHost) Error() string {
	return "model host is not reachable: " + e.Diagnostic
}

// Session owns the conversation state for one run of the application.
//
// All exported methods are safe for concurrent use. Generate holds the
// in-flight slot for its whole duration; concurrent calls fail fast with
// ErrBusy rather than queue.
type Session struct {
	mu       sync.Mutex
	inFlight bool

	id      string
	client  *ollama.Client
	cfg     *config.Config
	conv    *model.Conversation
	catalog *model.Catalog

	selected string

	// Catalog refreshes are throttled; a burst of refresh keypresses
	// must not hammer the host.
	refreshLimit *rate.Limiter
}

// New creates a session backed by the given client and configuration.
func New(client *ollama.Client, cfg *config.Config) *Session {
	return &Session{
		id:           uuid.NewString(),
		client:       client,
		cfg:          cfg,
		conv:         model.NewConversation(),
		catalog:      model.NewCatalog(nil),
		selected:     cfg.Local.PreferredModel,
		refreshLimit: rate.NewLimiter(rate.Limit(1), 2),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Probe checks host reachability and returns the diagnostic outcome.
func (s *Session) Probe(ctx context.Context) ollama.ProbeResult {
	return s.client.CheckReachable(ctx)
}

// =============================================================================
// CATALOG MANAGEMENT
// =============================================================================

// RefreshCatalog re-queries the host for available models and replaces the
// catalog wholesale. A failed listing leaves an empty catalog, never a stale
// one. Refreshes beyond the rate limit are dropped silently.
func (s *Session) RefreshCatalog(ctx context.Context) {
	if !s.refreshLimit.Allow() {
		return
	}

	ids := s.client.ListModels(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = model.NewCatalog(ids)
	s.selected = s.catalog.Preselect(s.cfg.Local.PreferredModel)
	if s.selected == "" {
		s.selected = s.client.GetDefaultModel()
	}
}

// Catalog returns the current model catalog.
func (s *Session) Catalog() *model.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// SelectedModel returns the model the next generation will use.
func (s *Session) SelectedModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetModel overrides the selected model.
func (s *Session) SetModel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		s.selected = id
	}
}

// CycleModel advances the selection to the next catalog entry. With an
// empty catalog the selection is unchanged.
func (s *Session) CycleModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next := s.catalog.Next(s.selected); next != "" {
		s.selected = next
	}
	return s.selected
}

// =============================================================================
// TRANSCRIPT ACCESS
// =============================================================================

// Messages returns a copy of the transcript.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Messages()
}

// LastPlan returns the most recent assistant message, if any.
func (s *Session) LastPlan() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			return msgs[i].Content, true
		}
	}
	return "", false
}

// Reset clears the transcript. Resetting mid-generation is refused.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrBusy
	}
	s.conv.Reset()
	return nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate runs one plan generation for the given profile and returns the
// full response text. onUpdate receives the accumulated text after every
// fragment so a live view can refresh; it may be nil.
//
// The user request is appended to the transcript before submission and
// stays there even when the submission fails; a failed generation appends
// no assistant message. A single attempt is made per call.
func (s *Session) Generate(ctx context.Context, input plan.Input, onUpdate ollama.UpdateFunc) (string, error) {
	if err := input.Validate(); err != nil {
		return "", err
	}

	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.release()

	window := s.prepare(input)

	// Reachability gate: a clear diagnostic up front beats a generic
	// transport failure after the submit.
	if probe := s.client.CheckReachable(ctx); !probe.OK {
		return "", &ErrUnreachableHost{Diagnostic: probe.Diagnostic}
	}

	text, err := s.submit(ctx, window, onUpdate)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.conv.AppendAssistant(text)
	s.mu.Unlock()

	return text, nil
}

// acquire claims the single in-flight slot.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrBusy
	}
	s.inFlight = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// prepare appends the request messages to the transcript and returns the
// bounded context window to send.
func (s *Session) prepare(input plan.Input) []ollama.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prompt := strings.TrimSpace(s.cfg.Chat.SystemPrompt); prompt != "" {
		s.conv.AppendSystem(prompt)
	}
	s.conv.AppendUser(input.BuildRequest())

	tail := s.conv.Tail(s.cfg.Chat.MaxHistory)
	window := make([]ollama.Message, 0, len(tail))
	for _, msg := range tail {
		window = append(window, ollama.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return window
}

// submit performs the single generation attempt, streaming or not per
// configuration.
func (s *Session) submit(ctx context.Context, window []ollama.Message, onUpdate ollama.UpdateFunc) (string, error) {
	modelID := s.SelectedModel()

	if !s.cfg.Chat.Stream {
		resp, err := s.client.Chat(ctx, modelID, window)
		if err != nil {
			return "", err
		}
		if onUpdate != nil {
			onUpdate(resp.Message.Content)
		}
		return resp.Message.Content, nil
	}

	acc := ollama.NewStreamAccumulator(onUpdate)
	err := s.client.ChatStream(ctx, modelID, window, acc.Add)
	acc.Finish()
	if err != nil {
		return "", err
	}
	if err := acc.Err(); err != nil {
		return "", err
	}
	return acc.Text(), nil
}
