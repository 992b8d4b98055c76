package sqlite

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/repository"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func archivableSession(id string) *encounter.Session {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ended := created.Add(10 * time.Minute)
	return &encounter.Session{
		ID:        id,
		CaseID:    "chest-pain-001",
		Level:     2,
		CreatedAt: created,
		UpdatedAt: ended,
		EndedAt:   &ended,
		Messages: []encounter.Message{
			{Role: encounter.RoleAssistant, Content: "My chest hurts.", Timestamp: created},
			{Role: encounter.RoleUser, Content: "Where does it hurt?", Timestamp: created.Add(time.Minute)},
		},
		Actions: []encounter.Action{
			{Type: "imaging", Details: "ecg", Result: "ST elevation", Timestamp: created.Add(2 * time.Minute)},
		},
		CurrentTurn:        1,
		SubmittedDiagnosis: "myocardial infarction",
		Feedback: &encounter.FeedbackReport{
			SummaryScore:    82,
			WhatWentWell:    []string{"Correct diagnosis."},
			Recommendations: []string{"Keep practicing."},
		},
	}
}

func archiveTestCase() *clinicalcase.Definition {
	return &clinicalcase.Definition{ID: "chest-pain-001", Title: "Acute chest pain", PrimaryDiagnosis: "myocardial infarction"}
}

func TestSaveAndGetEncounter(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))
	ctx := context.Background()

	sess := archivableSession("sess-1")
	require.NoError(t, repo.SaveEncounter(ctx, sess, archiveTestCase()))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "chest-pain-001", got.CaseID)
	assert.Equal(t, 2, got.Level)
	assert.Equal(t, 1, got.Turns)
	assert.Equal(t, "myocardial infarction", got.SubmittedDiagnosis)
	assert.Equal(t, 82, got.SummaryScore)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, encounter.RoleUser, got.Transcript[1].Role)
	require.Len(t, got.Actions, 1)
	assert.Equal(t, "ST elevation", got.Actions[0].Result)
	require.NotNil(t, got.Feedback)
	assert.Equal(t, []string{"Correct diagnosis."}, got.Feedback.WhatWentWell)
}

func TestSaveEncounterRequiresScoredSession(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))
	ctx := context.Background()

	sess := archivableSession("sess-1")
	sess.Feedback = nil
	assert.ErrorIs(t, repo.SaveEncounter(ctx, sess, archiveTestCase()), repository.ErrInvalidInput)

	sess = archivableSession("sess-1")
	sess.EndedAt = nil
	assert.ErrorIs(t, repo.SaveEncounter(ctx, sess, archiveTestCase()), repository.ErrInvalidInput)
}

func TestSaveEncounterIsIdempotent(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))
	ctx := context.Background()

	sess := archivableSession("sess-1")
	require.NoError(t, repo.SaveEncounter(ctx, sess, archiveTestCase()))

	sess.Feedback.SummaryScore = 90
	require.NoError(t, repo.SaveEncounter(ctx, sess, archiveTestCase()))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.SummaryScore, "replace keeps a single row per session")

	list, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestGetUnknownEncounter(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListFiltersByCase(t *testing.T) {
	repo := NewArchiveRepository(newTestDB(t))
	ctx := context.Background()

	first := archivableSession("sess-1")
	require.NoError(t, repo.SaveEncounter(ctx, first, archiveTestCase()))

	second := archivableSession("sess-2")
	second.CaseID = "sob-002"
	require.NoError(t, repo.SaveEncounter(ctx, second, archiveTestCase()))

	all, err := repo.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := repo.List(ctx, "sob-002", 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "sess-2", filtered[0].ID)

	limited, err := repo.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
