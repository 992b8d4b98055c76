// Package mocks provides testify mocks for the encounter service's
// collaborator interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/scoring"
)

// CaseSource is a mock for encounter.CaseSource.
type CaseSource struct {
	mock.Mock
}

func (m *CaseSource) Get(id string) (*clinicalcase.Definition, error) {
	args := m.Called(id)
	if def, ok := args.Get(0).(*clinicalcase.Definition); ok {
		return def, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CaseSource) List() ([]clinicalcase.Summary, error) {
	args := m.Called()
	if list, ok := args.Get(0).([]clinicalcase.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReplyGenerator is a mock for encounter.ReplyGenerator.
type ReplyGenerator struct {
	mock.Mock
}

func (m *ReplyGenerator) PatientReply(ctx context.Context, def *clinicalcase.Definition, level int, revealed encounter.RevealedFacts, history []encounter.Message, input string) (string, error) {
	args := m.Called(ctx, def, level, revealed, history, input)
	return args.String(0), args.Error(1)
}

// GuidanceGenerator is a mock for encounter.GuidanceGenerator.
type GuidanceGenerator struct {
	mock.Mock
}

func (m *GuidanceGenerator) Hint(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition, lastInput, lastReply string) (*encounter.Hint, error) {
	args := m.Called(ctx, sess, def, lastInput, lastReply)
	if hint, ok := args.Get(0).(*encounter.Hint); ok {
		return hint, args.Error(1)
	}
	return nil, args.Error(1)
}

// Analyzer is a mock for encounter.Analyzer.
type Analyzer struct {
	mock.Mock
}

func (m *Analyzer) Analyze(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition) (*encounter.FeedbackReport, error) {
	args := m.Called(ctx, sess, def)
	if report, ok := args.Get(0).(*encounter.FeedbackReport); ok {
		return report, args.Error(1)
	}
	return nil, args.Error(1)
}

// Archiver is a mock for encounter.Archiver.
type Archiver struct {
	mock.Mock
}

func (m *Archiver) SaveEncounter(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition) error {
	args := m.Called(ctx, sess, def)
	return args.Error(0)
}

// ArchiveReader is a mock for encounter.ArchiveReader.
type ArchiveReader struct {
	mock.Mock
}

func (m *ArchiveReader) Get(ctx context.Context, id string) (*encounter.ArchivedEncounter, error) {
	args := m.Called(ctx, id)
	if enc, ok := args.Get(0).(*encounter.ArchivedEncounter); ok {
		return enc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ArchiveReader) List(ctx context.Context, caseID string, limit int) ([]encounter.ArchivedSummary, error) {
	args := m.Called(ctx, caseID, limit)
	if list, ok := args.Get(0).([]encounter.ArchivedSummary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Oracle is a mock for scoring.Oracle.
type Oracle struct {
	mock.Mock
}

func (m *Oracle) ClassifyDiagnosis(ctx context.Context, submitted, primary string, differentials []string) (scoring.DiagnosisLabel, error) {
	args := m.Called(ctx, submitted, primary, differentials)
	return args.Get(0).(scoring.DiagnosisLabel), args.Error(1)
}

func (m *Oracle) ClassifyIntervention(ctx context.Context, intervention, diagnosis string) (scoring.InterventionLabel, error) {
	args := m.Called(ctx, intervention, diagnosis)
	return args.Get(0).(scoring.InterventionLabel), args.Error(1)
}
