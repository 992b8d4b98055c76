package encounter

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn. Messages are append-only and their
// order is the conversation order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Action is one discrete clinical action with its deterministic outcome.
type Action struct {
	Type      string    `json:"action_type"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
	Result    string    `json:"result,omitempty"`
}

// RevealedFacts tracks which case information the learner has elicited.
type RevealedFacts struct {
	History     map[string]bool `json:"history"`
	ExamSystems map[string]bool `json:"exam_systems"`
	Diagnostics map[string]bool `json:"diagnostics"`
}

func newRevealedFacts() RevealedFacts {
	return RevealedFacts{
		History:     make(map[string]bool),
		ExamSystems: make(map[string]bool),
		Diagnostics: make(map[string]bool),
	}
}

func (r RevealedFacts) clone() RevealedFacts {
	out := newRevealedFacts()
	for k := range r.History {
		out.History[k] = true
	}
	for k := range r.ExamSystems {
		out.ExamSystems[k] = true
	}
	for k := range r.Diagnostics {
		out.Diagnostics[k] = true
	}
	return out
}

// EndReason records what transitioned a session out of the active state.
type EndReason string

const (
	EndedByUser      EndReason = "user"
	EndedByTurnLimit EndReason = "turn_limit"
	EndedByTimeLimit EndReason = "time_limit"
)

// Session is one learner's encounter with a case. The store owns the
// mutable instance; callers only ever see snapshots.
type Session struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []Message     `json:"messages"`
	Actions  []Action      `json:"actions"`
	Revealed RevealedFacts `json:"revealed_facts"`

	TimeLimitSec int `json:"time_limit_sec,omitempty"`
	MaxTurns     int `json:"max_turns,omitempty"`
	CurrentTurn  int `json:"current_turn"`

	Active             bool       `json:"is_active"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	EndReason          EndReason  `json:"end_reason,omitempty"`
	SubmittedDiagnosis string     `json:"submitted_diagnosis,omitempty"`

	Feedback *FeedbackReport `json:"feedback,omitempty"`
}

func (s *Session) snapshot() *Session {
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Actions = append([]Action(nil), s.Actions...)
	out.Revealed = s.Revealed.clone()
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}

// CategoryScores holds the sub-scores of a completed encounter.
type CategoryScores struct {
	Diagnosis       int `json:"diagnosis"`
	Intervention    int `json:"intervention"`
	CriticalActions int `json:"critical_actions"`
	Communication   int `json:"communication"`
	Efficiency      int `json:"efficiency"`
}

// Timing holds the timing metadata of a completed encounter.
type Timing struct {
	TimeLimitSec      int     `json:"time_limit_sec,omitempty"`
	ActualDurationSec int     `json:"actual_duration_sec"`
	ExceededBySec     int     `json:"exceeded_by_sec,omitempty"`
	TimeUsedPercent   float64 `json:"time_used_percent,omitempty"`
}

// FeedbackReport is the analyzer's result, memoized on the session.
type FeedbackReport struct {
	SummaryScore    int            `json:"summary_score"`
	Scores          CategoryScores `json:"scores"`
	Timing          Timing         `json:"timing"`
	WhatWentWell    []string       `json:"what_went_well"`
	Missed          []string       `json:"missed"`
	RedFlagsMissed  []string       `json:"red_flags_missed"`
	Recommendations []string       `json:"recommendations"`
}

// Hint is an optional mid-conversation pedagogical nudge.
type Hint struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
