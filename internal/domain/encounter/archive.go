package encounter

import (
	"context"
	"time"
)

// ArchivedEncounter is a fully materialized archive row: the durable
// form of a scored session after it has left the in-memory store.
type ArchivedEncounter struct {
	ID                 string          `json:"id"`
	CaseID             string          `json:"case_id"`
	Level              int             `json:"level"`
	CreatedAt          time.Time       `json:"created_at"`
	EndedAt            time.Time       `json:"ended_at"`
	Turns              int             `json:"turns"`
	SubmittedDiagnosis string          `json:"submitted_diagnosis,omitempty"`
	SummaryScore       int             `json:"summary_score"`
	Transcript         []Message       `json:"transcript"`
	Actions            []Action        `json:"actions"`
	Feedback           *FeedbackReport `json:"feedback"`
	ArchivedAt         time.Time       `json:"archived_at"`
}

// ArchivedSummary is a listing row without the heavyweight JSON columns.
type ArchivedSummary struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id"`
	Level        int       `json:"level"`
	EndedAt      time.Time `json:"ended_at"`
	SummaryScore int       `json:"summary_score"`
}

// ArchiveReader reads back archived encounters for review.
type ArchiveReader interface {
	Get(ctx context.Context, id string) (*ArchivedEncounter, error)
	List(ctx context.Context, caseID string, limit int) ([]ArchivedSummary, error)
}
