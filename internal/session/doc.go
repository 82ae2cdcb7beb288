// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates plan generation: it owns the transcript and
// model catalog, gates generation on host reachability, and serializes
// submissions so only one generation runs at a time.
package session
