package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/scoring"
	"github.com/probecase/clinsim/internal/repository/mocks"
)

func analyzerTestCase() *clinicalcase.Definition {
	return &clinicalcase.Definition{
		ID:               "chest-pain-001",
		Title:            "Acute chest pain",
		PrimaryDiagnosis: "myocardial infarction",
		Differentials:    []string{"unstable angina"},
		CriticalActions:  []string{"obtain ECG", "give aspirin", "check troponin"},
	}
}

func endedSession(diagnosis string) *encounter.Session {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ended := created.Add(12 * time.Minute)
	return &encounter.Session{
		ID:                 "sess-1",
		CaseID:             "chest-pain-001",
		Level:              1,
		CreatedAt:          created,
		UpdatedAt:          ended,
		EndedAt:            &ended,
		TimeLimitSec:       900,
		SubmittedDiagnosis: diagnosis,
	}
}

func TestAnalyzeRejectsActiveSession(t *testing.T) {
	a := New(scoring.NewRules(nil, scoring.DefaultMatchTable(), nil), nil)

	_, err := a.Analyze(context.Background(), &encounter.Session{Active: true}, analyzerTestCase())
	assert.ErrorIs(t, err, encounter.ErrSessionActive)
}

func TestAnalyzeSummaryScoreBounds(t *testing.T) {
	a := New(scoring.NewRules(nil, scoring.DefaultMatchTable(), nil), nil)

	report, err := a.Analyze(context.Background(), endedSession(""), analyzerTestCase())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.SummaryScore, 0)
	assert.LessOrEqual(t, report.SummaryScore, 100)
	assert.NotEmpty(t, report.WhatWentWell)
	assert.NotEmpty(t, report.Recommendations)
}

func TestAnalyzeTiming(t *testing.T) {
	a := New(scoring.NewRules(nil, scoring.DefaultMatchTable(), nil), nil)

	report, err := a.Analyze(context.Background(), endedSession("mi"), analyzerTestCase())
	require.NoError(t, err)
	assert.Equal(t, 900, report.Timing.TimeLimitSec)
	assert.Equal(t, 720, report.Timing.ActualDurationSec)
	assert.Equal(t, 0, report.Timing.ExceededBySec)
	assert.Equal(t, 80.0, report.Timing.TimeUsedPercent)
}

func TestAnalyzeTimingOverrun(t *testing.T) {
	a := New(scoring.NewRules(nil, scoring.DefaultMatchTable(), nil), nil)
	sess := endedSession("mi")
	sess.TimeLimitSec = 600

	report, err := a.Analyze(context.Background(), sess, analyzerTestCase())
	require.NoError(t, err)
	assert.Equal(t, 120, report.Timing.ExceededBySec)
	assert.Equal(t, 120.0, report.Timing.TimeUsedPercent)
}

func TestAnalyzeStrongRunScoresHigh(t *testing.T) {
	a := New(scoring.NewRules(nil, scoring.DefaultMatchTable(), nil), nil)

	sess := endedSession("myocardial infarction | Intervention: give aspirin and activate cath lab")
	sess.Messages = []encounter.Message{
		{Role: encounter.RoleUser, Content: "Can you describe the pain? Sharp or pressure?"},
		{Role: encounter.RoleUser, Content: "Any medical history of heart disease?"},
		{Role: encounter.RoleUser, Content: "What medications are you taking?"},
		{Role: encounter.RoleUser, Content: "I'm sorry, that sounds frightening."},
	}
	sess.Actions = []encounter.Action{
		{Type: "imaging", Details: "ecg", Timestamp: sess.CreatedAt.Add(3 * time.Minute)},
		{Type: "medication", Details: "aspirin 325mg", Timestamp: sess.CreatedAt.Add(5 * time.Minute)},
		{Type: "lab", Details: "troponin", Timestamp: sess.CreatedAt.Add(6 * time.Minute)},
	}

	report, err := a.Analyze(context.Background(), sess, analyzerTestCase())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.SummaryScore, 80)
	assert.Equal(t, 20, report.Scores.Diagnosis)
	assert.Equal(t, 5, report.Scores.Intervention)
	assert.Equal(t, 25, report.Scores.CriticalActions)
	assert.Equal(t, 20, report.Scores.Communication)
	assert.Empty(t, report.RedFlagsMissed)
}

func TestAnalyzeUsesOracleLabels(t *testing.T) {
	oracle := &mocks.Oracle{}
	oracle.On("ClassifyDiagnosis", mock.Anything, "heart muscle damage from blocked artery", "myocardial infarction", mock.Anything).
		Return(scoring.LabelPrimary, nil)

	a := New(scoring.NewRules(oracle, scoring.DefaultMatchTable(), nil), nil)

	report, err := a.Analyze(context.Background(),
		endedSession("heart muscle damage from blocked artery"), analyzerTestCase())
	require.NoError(t, err)
	assert.Equal(t, 20, report.Scores.Diagnosis)
	oracle.AssertExpectations(t)
}
