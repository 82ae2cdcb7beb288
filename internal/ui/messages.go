// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the Bubble Tea terminal interface.
//
// This file defines all Bubble Tea message types used by the interface.
// All message types follow Bubble Tea conventions and are immutable.
package ui

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// snapshotMsg delivers the accumulated response text after a new fragment.
type snapshotMsg struct {
	Text string
}

// generationDoneMsg signals that a generation finished, successfully or not.
type generationDoneMsg struct {
	Text string
	Err  error
}

// =============================================================================
// HOST MESSAGES
// =============================================================================

// probeMsg reports the host reachability check outcome.
type probeMsg struct {
	OK         bool
	Diagnostic string
}

// modelsMsg delivers the refreshed model selection.
type modelsMsg struct {
	Selected string
	Count    int
}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// savedMsg reports the outcome of writing the plan to disk.
type savedMsg struct {
	Path string
	Err  error
}
