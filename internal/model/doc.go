// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model holds the conversation transcript and the discovered model
// catalog. The transcript is append-only between resets and serves both the
// display surface and the bounded context window sent to the host.
package model
