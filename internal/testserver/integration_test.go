package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/sqlite"
)

func TestFullEncounterFlow(t *testing.T) {
	ts := New(t)
	ctx := context.Background()

	cases, err := ts.Service.Cases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, CaseID, cases[0].ID)

	sess, err := ts.Service.Start(ctx, encounter.StartRequest{CaseID: CaseID, Level: 1, TimeLimitSec: 900})
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1, "the chief complaint opens the conversation")

	res, err := ts.Service.SendMessage(ctx, sess.ID, "Can you describe the pain? Is it sharp or pressure?")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "pressure")

	res, err = ts.Service.SendMessage(ctx, sess.ID, "Do you have any medical history I should know about?")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reply)

	res, err = ts.Service.SendMessage(ctx, sess.ID, "Are you taking any medications?")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "lisinopril")

	_, action, err := ts.Service.PerformAction(ctx, sess.ID, "imaging", "ecg")
	require.NoError(t, err)
	assert.Contains(t, action.Result, "ST elevation")

	_, action, err = ts.Service.PerformAction(ctx, sess.ID, "lab", "troponin")
	require.NoError(t, err)
	assert.Contains(t, action.Result, "elevated")

	_, _, err = ts.Service.PerformAction(ctx, sess.ID, "medication", "aspirin 325mg")
	require.NoError(t, err)

	// Feedback before ending is refused.
	_, err = ts.Service.Feedback(ctx, sess.ID)
	assert.ErrorIs(t, err, encounter.ErrSessionActive)

	ended, err := ts.Service.End(ctx, sess.ID, "myocardial infarction | Intervention: give aspirin")
	require.NoError(t, err)
	assert.False(t, ended.Active)

	report, err := ts.Service.Feedback(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Scores.Diagnosis)
	assert.Equal(t, 25, report.Scores.CriticalActions)
	assert.GreaterOrEqual(t, report.SummaryScore, 60)
	assert.NotEmpty(t, report.WhatWentWell)
	assert.NotEmpty(t, report.Recommendations)

	// The scored encounter was archived.
	archived, err := sqlite.NewArchiveRepository(ts.DB).Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, report.SummaryScore, archived.SummaryScore)
	assert.Equal(t, CaseID, archived.CaseID)

	// Messaging an ended encounter is refused.
	_, err = ts.Service.SendMessage(ctx, sess.ID, "one more thing")
	assert.ErrorIs(t, err, encounter.ErrSessionEnded)
}

func TestTurnCapEndsEncounter(t *testing.T) {
	ts := New(t)
	ctx := context.Background()

	sess, err := ts.Service.Start(ctx, encounter.StartRequest{CaseID: CaseID, MaxTurns: 2})
	require.NoError(t, err)

	res, err := ts.Service.SendMessage(ctx, sess.ID, "How long has this been going on?")
	require.NoError(t, err)
	assert.False(t, res.TurnLimitHit)

	res, err = ts.Service.SendMessage(ctx, sess.ID, "Anything make it worse?")
	require.NoError(t, err)
	assert.True(t, res.TurnLimitHit)
	assert.False(t, res.Session.Active)

	// Further messages report the cap, not a plain ended session.
	_, err = ts.Service.SendMessage(ctx, sess.ID, "One more question?")
	assert.ErrorIs(t, err, encounter.ErrLimitReached)
}

func TestArchivedEncountersReadableAfterScoring(t *testing.T) {
	ts := New(t)
	ctx := context.Background()

	sess, err := ts.Service.Start(ctx, encounter.StartRequest{CaseID: CaseID})
	require.NoError(t, err)
	_, err = ts.Service.SendMessage(ctx, sess.ID, "Where does it hurt?")
	require.NoError(t, err)
	_, err = ts.Service.End(ctx, sess.ID, "myocardial infarction")
	require.NoError(t, err)
	report, err := ts.Service.Feedback(ctx, sess.ID)
	require.NoError(t, err)

	summaries, err := ts.Service.History(ctx, CaseID, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, sess.ID, summaries[0].ID)
	assert.Equal(t, report.SummaryScore, summaries[0].SummaryScore)

	full, err := ts.Service.Archived(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, CaseID, full.CaseID)
	assert.NotEmpty(t, full.Transcript)
	require.NotNil(t, full.Feedback)
	assert.Equal(t, report.SummaryScore, full.Feedback.SummaryScore)

	_, err = ts.Service.Archived(ctx, "missing")
	assert.Error(t, err)
}

func TestHTTPBridgeListCases(t *testing.T) {
	ts := New(t)

	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_cases","arguments":{}},"id":1}`
	resp, err := http.Post(ts.Server.URL, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rpc struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpc))
	require.Nil(t, rpc.Error)
	assert.True(t, strings.Contains(string(rpc.Result), CaseID))
}

func TestHTTPBridgeSurfacesEncounterNotFound(t *testing.T) {
	ts := New(t)

	body := `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_feedback","arguments":{"session_id":"nope"}},"id":2}`
	resp, err := http.Post(ts.Server.URL, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ENCOUNTER_NOT_FOUND")
}

func TestHTTPBridgeParseError(t *testing.T) {
	ts := New(t)

	resp, err := http.Post(ts.Server.URL, "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	var rpc struct {
		Error *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpc))
	require.NotNil(t, rpc.Error)
	assert.Equal(t, -32700, rpc.Error.Code)
}

func TestHTTPBridgeRejectsNonPost(t *testing.T) {
	ts := New(t)

	resp, err := http.Get(ts.Server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
