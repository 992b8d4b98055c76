package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/scoring"
)

func baseContext() *scoring.Context {
	return &scoring.Context{
		Case: &clinicalcase.Definition{
			ID:               "chest-pain-001",
			Title:            "Acute chest pain",
			PrimaryDiagnosis: "myocardial infarction",
		},
	}
}

func TestGenerateNeverEmptyRequiredSections(t *testing.T) {
	lists := Generate(baseContext())

	assert.NotEmpty(t, lists.WhatWentWell)
	assert.NotEmpty(t, lists.Recommendations)
}

func TestGenerateStrongPerformance(t *testing.T) {
	sc := baseContext()
	sc.Diagnosis = scoring.DiagnosisResult{Label: scoring.LabelPrimary, Points: scoring.DiagnosisMax}
	sc.Intervention = scoring.InterventionResult{Label: scoring.LabelAppropriate, Points: scoring.InterventionMax}
	sc.Critical = scoring.CriticalResult{
		Required:  []string{"obtain ECG", "give aspirin"},
		Performed: []string{"obtain ECG", "give aspirin"},
		Points:    scoring.CriticalActionsMax,
	}
	sc.Communication = scoring.CommunicationResult{
		AskedPainCharacter: true,
		AskedHistory:       true,
		AskedMedications:   true,
		AskedEnough:        true,
		ShowedEmpathy:      true,
		Points:             20,
	}
	sc.Efficiency = scoring.EfficiencyResult{TimePoints: 20}
	sc.TimeLimitSec = 900

	lists := Generate(sc)

	joined := ""
	for _, item := range lists.WhatWentWell {
		joined += item + "\n"
	}
	assert.Contains(t, joined, "myocardial infarction", "the primary diagnosis is named")
	assert.Contains(t, joined, "all 2 critical actions")
	assert.Empty(t, lists.Missed)
	assert.Empty(t, lists.RedFlagsMissed)
}

func TestGenerateMissedSection(t *testing.T) {
	sc := baseContext()
	sc.Critical = scoring.CriticalResult{
		Required: []string{"obtain ECG"},
		Missed:   []string{"obtain ECG"},
	}

	lists := Generate(sc)

	require.NotEmpty(t, lists.Missed)
	assert.Contains(t, lists.Missed[0], "obtain ECG")
	// Communication checks all failed, so the history gaps appear too.
	assert.Len(t, lists.Missed, 4)
}

func TestGenerateRedFlags(t *testing.T) {
	sc := baseContext()
	sc.RedFlags = []scoring.MissedRedFlag{
		{Action: "obtain ECG", Consequence: "delayed STEMI recognition"},
		{Action: "give aspirin", Late: true, WindowMinutes: 10},
	}

	lists := Generate(sc)

	require.Len(t, lists.RedFlagsMissed, 2)
	assert.Contains(t, lists.RedFlagsMissed[0], "not performed")
	assert.Contains(t, lists.RedFlagsMissed[0], "delayed STEMI recognition")
	assert.Contains(t, lists.RedFlagsMissed[1], "outside the 10-minute window")
}

func TestGenerateRecommendations(t *testing.T) {
	sc := baseContext()
	sc.Diagnosis = scoring.DiagnosisResult{Points: 0}
	sc.Critical = scoring.CriticalResult{Required: []string{"x"}, Missed: []string{"x"}}
	sc.Efficiency = scoring.EfficiencyResult{TimePoints: 5}
	sc.TimeLimitSec = 600
	sc.RedFlags = []scoring.MissedRedFlag{{Action: "x"}}

	lists := Generate(sc)

	joined := ""
	for _, item := range lists.Recommendations {
		joined += item + "\n"
	}
	assert.Contains(t, joined, "myocardial infarction")
	assert.Contains(t, joined, "pacing")
	assert.Contains(t, joined, "time-critical")
}
