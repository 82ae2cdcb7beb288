// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"path/filepath"

	"github.com/jeranaias/fitplan-tui/internal/util"
)

// PlanFilename is the fixed name saved plans are written under. Saving
// again overwrites the previous plan.
const PlanFilename = "weekly_plan.txt"

// ErrEmptyPlan is returned when there is no plan text to save.
var ErrEmptyPlan = errors.New("no plan to save")

// SavePlan writes the plan text to outputDir. An empty outputDir means the
// current directory. Returns the path written.
func SavePlan(outputDir, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyPlan
	}

	path := filepath.Join(outputDir, PlanFilename)
	if err := util.AtomicWriteFile(path, []byte(text), 0644); err != nil {
		return "", err
	}
	return path, nil
}
