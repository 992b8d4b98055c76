// Package feedback turns a scoring context into human-readable strings.
// Generation is a pure function: same context, same text.
package feedback

import (
	"fmt"

	"github.com/probecase/clinsim/internal/domain/scoring"
)

// Lists are the four feedback sections. WhatWentWell and
// Recommendations are never empty so the UI never renders a blank section.
type Lists struct {
	WhatWentWell    []string
	Missed          []string
	RedFlagsMissed  []string
	Recommendations []string
}

// Generate renders the feedback lists for a scoring context.
func Generate(sc *scoring.Context) Lists {
	var lists Lists

	lists.WhatWentWell = whatWentWell(sc)
	lists.Missed = missed(sc)
	lists.RedFlagsMissed = redFlagsMissed(sc)
	lists.Recommendations = recommendations(sc)

	if len(lists.WhatWentWell) == 0 {
		lists.WhatWentWell = append(lists.WhatWentWell,
			"You completed the full encounter. Every completed case builds clinical judgment.")
	}
	if len(lists.Recommendations) == 0 {
		lists.Recommendations = append(lists.Recommendations,
			"Keep practicing similar cases to consolidate your diagnostic approach.")
	}
	return lists
}

func whatWentWell(sc *scoring.Context) []string {
	var items []string

	if sc.Diagnosis.Points >= scoring.DiagnosisMax {
		items = append(items, fmt.Sprintf("You identified the correct diagnosis: %s.", sc.Case.PrimaryDiagnosis))
	} else if sc.Diagnosis.Label == scoring.LabelDifferential {
		items = append(items, "Your diagnosis was a reasonable differential for this presentation.")
	}

	if sc.Intervention.Points >= scoring.InterventionMax {
		items = append(items, "Your proposed intervention was appropriate for the diagnosis.")
	}

	if len(sc.Critical.Required) > 0 && len(sc.Critical.Missed) == 0 {
		items = append(items, fmt.Sprintf("You performed all %d critical actions for this case.", len(sc.Critical.Required)))
	}

	if sc.Communication.Points >= 15 {
		items = append(items, "You communicated thoroughly, covering the key history questions.")
	} else if sc.Communication.ShowedEmpathy {
		items = append(items, "You used empathetic language with the patient.")
	}

	if sc.TimeLimitSec > 0 && sc.Efficiency.TimePoints >= 18 {
		items = append(items, "You worked efficiently, finishing well within the time limit.")
	}

	return items
}

func missed(sc *scoring.Context) []string {
	var items []string

	for _, action := range sc.Critical.Missed {
		items = append(items, fmt.Sprintf("Critical action not performed: %s.", action))
	}
	if !sc.Communication.AskedPainCharacter {
		items = append(items, "The presenting complaint was not fully characterized (onset, quality, radiation, severity).")
	}
	if !sc.Communication.AskedHistory {
		items = append(items, "The patient's past medical history was not explored.")
	}
	if !sc.Communication.AskedMedications {
		items = append(items, "Medications and allergies were not asked about.")
	}
	return items
}

func redFlagsMissed(sc *scoring.Context) []string {
	var items []string
	for _, flag := range sc.RedFlags {
		var item string
		if flag.Late {
			item = fmt.Sprintf("%s was performed, but outside the %d-minute window.", flag.Action, flag.WindowMinutes)
		} else {
			item = fmt.Sprintf("%s was not performed.", flag.Action)
		}
		if flag.Consequence != "" {
			item += " Consequence: " + flag.Consequence
		}
		items = append(items, item)
	}
	return items
}

func recommendations(sc *scoring.Context) []string {
	var items []string

	if sc.Diagnosis.Points < 15 {
		items = append(items, fmt.Sprintf(
			"Review the typical presentation of %s and how it differs from the listed differentials.",
			sc.Case.PrimaryDiagnosis))
	}
	if len(sc.Critical.Missed) > 0 {
		items = append(items, "Work through the required actions for this presentation so none are missed under time pressure.")
	}
	if !sc.Communication.AskedEnough {
		items = append(items, "Ask more targeted questions before committing to a diagnosis; aim for a structured history.")
	}
	if sc.TimeLimitSec > 0 && sc.Efficiency.TimePoints <= 10 {
		items = append(items, "Practice pacing the encounter; prioritize high-yield questions and early diagnostics.")
	}
	if len(sc.RedFlags) > 0 {
		items = append(items, "Revisit the time-critical actions for this condition; delays carry real consequences.")
	}
	return items
}
