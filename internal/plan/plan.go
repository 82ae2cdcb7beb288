// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Fitness goals the request form offers.
const (
	GoalLoseWeight = "Lose weight"
	GoalGainMuscle = "Gain muscle mass"
)

// Goals lists the selectable goals in display order.
func Goals() []string {
	return []string{GoalLoseWeight, GoalGainMuscle}
}

// Input bounds. Values outside these never reach the host.
const (
	MinAge     = 10
	MaxAge     = 120
	MinMinutes = 10
	MaxMinutes = 240
)

// Input is the fitness profile collected from the user.
type Input struct {
	Age               int
	HealthProblems    string
	MinutesPerSession int
	Goal              string
}

// Validate checks the profile against the form bounds.
func (in Input) Validate() error {
	if in.Age < MinAge || in.Age > MaxAge {
		return fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	if in.MinutesPerSession < MinMinutes || in.MinutesPerSession > MaxMinutes {
		return fmt.Errorf("minutes per session must be between %d and %d", MinMinutes, MaxMinutes)
	}
	switch in.Goal {
	case GoalLoseWeight, GoalGainMuscle:
	default:
		return errors.New("goal must be one of: " + strings.Join(Goals(), ", "))
	}
	return nil
}

// BuildRequest renders the profile into the weekly-plan request text.
// Blank health problems render as "None".
func (in Input) BuildRequest() string {
	problems := strings.TrimSpace(in.HealthProblems)
	if problems == "" {
		problems = "None"
	}
	return fmt.Sprintf(
		"Create a 7-day weekly exercise plan for a %d-year-old. "+
			"Known health problems: %s. "+
			"Available time per session: %d minutes. "+
			"Fitness goal: %s. "+
			"Provide a daily breakdown (day name, exercise type, sets/reps or duration, intensity), "+
			"safety notes, and a short warm-up and cool-down. "+
			"Be concise and use bullet points.",
		in.Age, problems, in.MinutesPerSession, in.Goal,
	)
}
