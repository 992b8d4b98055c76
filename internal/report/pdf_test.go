package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

func reportFixture() (*encounter.Session, *clinicalcase.Definition) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ended := created.Add(12 * time.Minute)
	sess := &encounter.Session{
		ID:                 "sess-1",
		CaseID:             "chest-pain-001",
		Level:              2,
		CreatedAt:          created,
		EndedAt:            &ended,
		CurrentTurn:        6,
		TimeLimitSec:       900,
		SubmittedDiagnosis: "myocardial infarction",
		Feedback: &encounter.FeedbackReport{
			SummaryScore: 82,
			Scores: encounter.CategoryScores{
				Diagnosis:       20,
				Intervention:    5,
				CriticalActions: 25,
				Communication:   12,
				Efficiency:      20,
			},
			Timing:          encounter.Timing{TimeLimitSec: 900, ActualDurationSec: 720, TimeUsedPercent: 80},
			WhatWentWell:    []string{"Correct diagnosis."},
			Missed:          []string{"Medications were not asked about."},
			RedFlagsMissed:  []string{"obtain ECG was performed late."},
			Recommendations: []string{"Practice structured histories."},
		},
	}
	def := &clinicalcase.Definition{
		ID:               "chest-pain-001",
		Title:            "Acute chest pain",
		Patient:          clinicalcase.Patient{Name: "Ray Delgado", Age: 58, Gender: "male"},
		PrimaryDiagnosis: "myocardial infarction",
	}
	return sess, def
}

func TestLines(t *testing.T) {
	sess, def := reportFixture()

	body := strings.Join(Lines(sess, def), "\n")
	assert.Contains(t, body, "Case: Acute chest pain (chest-pain-001)")
	assert.Contains(t, body, "Patient: Ray Delgado, 58, male")
	assert.Contains(t, body, "Summary score: 82 / 100")
	assert.Contains(t, body, "Time: 720s of 900s (80.0%)")
	assert.Contains(t, body, "Submitted: myocardial infarction")
	assert.Contains(t, body, "- Correct diagnosis.")
	assert.Contains(t, body, "Red flags missed:")
	assert.Contains(t, body, "- Practice structured histories.")
}

func TestLinesOmitsEmptySections(t *testing.T) {
	sess, def := reportFixture()
	sess.Feedback.Missed = nil
	sess.Feedback.RedFlagsMissed = nil
	sess.TimeLimitSec = 0
	sess.Feedback.Timing = encounter.Timing{ActualDurationSec: 720}
	sess.SubmittedDiagnosis = ""

	body := strings.Join(Lines(sess, def), "\n")
	assert.NotContains(t, body, "Missed:")
	assert.NotContains(t, body, "Red flags missed:")
	assert.NotContains(t, body, "Time: ")
	assert.NotContains(t, body, "Submitted:")
}

func TestRenderRequiresFeedback(t *testing.T) {
	sess, def := reportFixture()
	sess.Feedback = nil

	_, err := NewRenderer().Render(sess, def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no feedback")
}
