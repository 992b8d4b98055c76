package mcp

import (
	"time"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

// EncounterState is the learner-visible slice of a session.
type EncounterState struct {
	SessionID    string     `json:"session_id"`
	CaseID       string     `json:"case_id"`
	Level        int        `json:"level"`
	CurrentTurn  int        `json:"current_turn"`
	MaxTurns     int        `json:"max_turns,omitempty"`
	TimeLimitSec int        `json:"time_limit_sec,omitempty"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	EndReason    string     `json:"end_reason,omitempty"`
}

func encounterState(sess *encounter.Session) EncounterState {
	return EncounterState{
		SessionID:    sess.ID,
		CaseID:       sess.CaseID,
		Level:        sess.Level,
		CurrentTurn:  sess.CurrentTurn,
		MaxTurns:     sess.MaxTurns,
		TimeLimitSec: sess.TimeLimitSec,
		IsActive:     sess.Active,
		CreatedAt:    sess.CreatedAt,
		EndedAt:      sess.EndedAt,
		EndReason:    string(sess.EndReason),
	}
}

type ListCasesParams struct{}

type ListCasesResult struct {
	Cases []clinicalcase.Summary `json:"cases"`
}

type StartEncounterParams struct {
	CaseID       string `json:"case_id"`
	Level        int    `json:"level,omitempty"`
	TimeLimitSec int    `json:"time_limit_sec,omitempty"`
	MaxTurns     int    `json:"max_turns,omitempty"`
}

type StartEncounterResult struct {
	Encounter EncounterState       `json:"encounter"`
	Patient   clinicalcase.Summary `json:"patient"`
	Opening   string               `json:"opening,omitempty"`
}

type SendMessageParams struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type SendMessageResult struct {
	Reply            string          `json:"reply,omitempty"`
	Hint             *encounter.Hint `json:"hint,omitempty"`
	TurnLimitReached bool            `json:"turn_limit_reached,omitempty"`
	Encounter        EncounterState  `json:"encounter"`
}

type PerformActionParams struct {
	SessionID  string `json:"session_id"`
	ActionType string `json:"action_type"`
	Details    string `json:"details,omitempty"`
}

type PerformActionResult struct {
	Result    string         `json:"result"`
	Encounter EncounterState `json:"encounter"`
}

type EndEncounterParams struct {
	SessionID string `json:"session_id"`
	// Diagnosis is free text, optionally "<diagnosis> | Intervention: <plan>".
	Diagnosis string `json:"diagnosis,omitempty"`
}

type EndEncounterResult struct {
	Encounter EncounterState `json:"encounter"`
}

type GetFeedbackParams struct {
	SessionID string `json:"session_id"`
}

type GetFeedbackResult struct {
	Feedback *encounter.FeedbackReport `json:"feedback"`
}

type ExportEncounterParams struct {
	SessionID string `json:"session_id"`
}

type ExportEncounterResult struct {
	Session *encounter.Session   `json:"session"`
	Case    clinicalcase.Summary `json:"case"`
}

type ExportReportParams struct {
	SessionID string `json:"session_id"`
}

type ListPastEncountersParams struct {
	CaseID string `json:"case_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ListPastEncountersResult struct {
	Encounters []encounter.ArchivedSummary `json:"encounters"`
}

type GetPastEncounterParams struct {
	SessionID string `json:"session_id"`
}

type GetPastEncounterResult struct {
	Encounter *encounter.ArchivedEncounter `json:"encounter"`
}

type ExportReportResult struct {
	FileName  string `json:"file_name"`
	PDFBase64 string `json:"pdf_base64"`
}
