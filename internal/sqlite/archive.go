package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/repository"
)

// ArchiveRepository persists completed, scored encounters. It
// implements encounter.Archiver and encounter.ArchiveReader.
type ArchiveRepository struct {
	db *DB
}

// NewArchiveRepository creates a new ArchiveRepository
func NewArchiveRepository(db *DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// SaveEncounter writes one archive row for a scored session.
func (r *ArchiveRepository) SaveEncounter(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition) error {
	if sess.Feedback == nil || sess.EndedAt == nil {
		return repository.ErrInvalidInput
	}

	transcript, err := json.Marshal(sess.Messages)
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	actions, err := json.Marshal(sess.Actions)
	if err != nil {
		return fmt.Errorf("encoding actions: %w", err)
	}
	feedback, err := json.Marshal(sess.Feedback)
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO encounters (
			id, case_id, level, created_at, ended_at, turns,
			submitted_diagnosis, summary_score, transcript, actions, feedback
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		sess.ID,
		sess.CaseID,
		sess.Level,
		sess.CreatedAt,
		*sess.EndedAt,
		sess.CurrentTurn,
		sess.SubmittedDiagnosis,
		sess.Feedback.SummaryScore,
		string(transcript),
		string(actions),
		string(feedback),
	)
	if err != nil {
		return fmt.Errorf("failed to archive encounter: %w", err)
	}

	return nil
}

// Get retrieves one archived encounter by session ID.
func (r *ArchiveRepository) Get(ctx context.Context, id string) (*encounter.ArchivedEncounter, error) {
	query := `
		SELECT
			id, case_id, level, created_at, ended_at, turns,
			submitted_diagnosis, summary_score, transcript, actions,
			feedback, archived_at
		FROM encounters
		WHERE id = ?
	`

	var (
		enc                            encounter.ArchivedEncounter
		diagnosis                      sql.NullString
		transcript, actions, feedbackJ string
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&enc.ID,
		&enc.CaseID,
		&enc.Level,
		&enc.CreatedAt,
		&enc.EndedAt,
		&enc.Turns,
		&diagnosis,
		&enc.SummaryScore,
		&transcript,
		&actions,
		&feedbackJ,
		&enc.ArchivedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get archived encounter: %w", err)
	}

	if diagnosis.Valid {
		enc.SubmittedDiagnosis = diagnosis.String
	}
	if err := json.Unmarshal([]byte(transcript), &enc.Transcript); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &enc.Actions); err != nil {
		return nil, fmt.Errorf("decoding actions: %w", err)
	}
	if err := json.Unmarshal([]byte(feedbackJ), &enc.Feedback); err != nil {
		return nil, fmt.Errorf("decoding feedback: %w", err)
	}

	return &enc, nil
}

// List returns archive summaries, newest first, optionally filtered by case.
func (r *ArchiveRepository) List(ctx context.Context, caseID string, limit int) ([]encounter.ArchivedSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, case_id, level, ended_at, summary_score
		FROM encounters
	`
	args := []any{}
	if caseID != "" {
		query += ` WHERE case_id = ?`
		args = append(args, caseID)
	}
	query += ` ORDER BY archived_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived encounters: %w", err)
	}
	defer rows.Close()

	var summaries []encounter.ArchivedSummary
	for rows.Next() {
		var s encounter.ArchivedSummary
		if err := rows.Scan(&s.ID, &s.CaseID, &s.Level, &s.EndedAt, &s.SummaryScore); err != nil {
			return nil, fmt.Errorf("failed to scan archived encounter: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
