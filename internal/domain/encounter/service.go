package encounter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
)

// replyFallback is appended when the reply generator fails, so the
// conversation continues instead of stalling.
const replyFallback = "I'm sorry, I didn't quite catch that. Could you say it again?"

// CaseSource provides validated case definitions.
type CaseSource interface {
	Get(id string) (*clinicalcase.Definition, error)
	List() ([]clinicalcase.Summary, error)
}

// ReplyGenerator produces the virtual patient's next utterance.
type ReplyGenerator interface {
	PatientReply(ctx context.Context, def *clinicalcase.Definition, level int, revealed RevealedFacts, history []Message, input string) (string, error)
}

// GuidanceGenerator produces an optional mid-conversation hint. A nil
// hint means no hint this turn.
type GuidanceGenerator interface {
	Hint(ctx context.Context, sess *Session, def *clinicalcase.Definition, lastInput, lastReply string) (*Hint, error)
}

// Analyzer converts a finished session into a feedback report.
type Analyzer interface {
	Analyze(ctx context.Context, sess *Session, def *clinicalcase.Definition) (*FeedbackReport, error)
}

// Archiver persists a completed, scored encounter.
type Archiver interface {
	SaveEncounter(ctx context.Context, sess *Session, def *clinicalcase.Definition) error
}

// Service composes the session store with the external collaborators:
// case source, reply generator, guidance generator, analyzer, archive.
type Service struct {
	store    *Store
	cases    CaseSource
	replies  ReplyGenerator
	guidance GuidanceGenerator
	analyzer Analyzer
	archive  Archiver
	history  ArchiveReader
	logger   *slog.Logger

	analysisMu sync.Mutex
	analysis   map[string]*analysisCall
}

type analysisCall struct {
	done   chan struct{}
	report *FeedbackReport
	err    error
}

// NewService creates an encounter service. Guidance, archive, and
// history may be nil; the corresponding features are then disabled.
func NewService(
	store *Store,
	cases CaseSource,
	replies ReplyGenerator,
	guidance GuidanceGenerator,
	analyzer Analyzer,
	archive Archiver,
	history ArchiveReader,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		cases:    cases,
		replies:  replies,
		guidance: guidance,
		analyzer: analyzer,
		archive:  archive,
		history:  history,
		logger:   logger,
		analysis: make(map[string]*analysisCall),
	}
}

// StartRequest describes a new encounter.
type StartRequest struct {
	CaseID       string
	Level        int
	TimeLimitSec int
	MaxTurns     int
}

// Start creates a new active session for the requested case.
func (s *Service) Start(ctx context.Context, req StartRequest) (*Session, error) {
	if req.CaseID == "" {
		return nil, ErrInvalidInput
	}
	level := req.Level
	if level == 0 {
		level = 1
	}
	if level < 1 || level > 3 {
		return nil, ErrInvalidInput
	}
	if req.TimeLimitSec < 0 || req.MaxTurns < 0 {
		return nil, ErrInvalidInput
	}

	def, err := s.cases.Get(req.CaseID)
	if err != nil {
		return nil, fmt.Errorf("loading case: %w", err)
	}

	sess := s.store.Create(CreateParams{
		Level:        level,
		TimeLimitSec: req.TimeLimitSec,
		MaxTurns:     req.MaxTurns,
	}, def)
	if s.logger != nil {
		s.logger.Info("encounter started", "session_id", sess.ID, "case_id", def.ID, "level", level)
	}
	return sess, nil
}

// MessageResult is the outcome of one learner message.
type MessageResult struct {
	Reply        string
	Hint         *Hint
	Session      *Session
	TurnLimitHit bool
}

// SendMessage appends the learner's message, generates the patient's
// reply, and optionally attaches a guidance hint. When the message
// exhausts the turn cap the session ends and no reply is generated.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string) (*MessageResult, error) {
	if text == "" {
		return nil, ErrInvalidInput
	}

	sess, err := s.store.AppendMessage(sessionID, RoleUser, text)
	if err != nil {
		return nil, err
	}
	if !sess.Active {
		return &MessageResult{Session: sess, TurnLimitHit: true}, nil
	}

	_, def, err := s.store.GetWithCase(sessionID)
	if err != nil {
		return nil, err
	}

	reply, err := s.replies.PatientReply(ctx, def, sess.Level, sess.Revealed, sess.Messages, text)
	if err != nil || reply == "" {
		if s.logger != nil && err != nil {
			s.logger.Warn("reply generation failed, using fallback", "session_id", sessionID, "error", err)
		}
		reply = replyFallback
	}

	sess, err = s.store.AppendMessage(sessionID, RoleAssistant, reply)
	if err != nil {
		// Session may have hit its time limit between appends. The
		// learner still gets the reply text; it just isn't recorded.
		if !errors.Is(err, ErrSessionEnded) {
			return nil, err
		}
		sess, err = s.store.Get(sessionID)
		if err != nil {
			return nil, err
		}
	}

	result := &MessageResult{Reply: reply, Session: sess}
	if s.guidance != nil {
		hint, err := s.guidance.Hint(ctx, sess, def, text, reply)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("guidance generation failed", "session_id", sessionID, "error", err)
			}
		} else {
			result.Hint = hint
		}
	}
	return result, nil
}

// PerformAction resolves a clinical action against the case findings
// and records it on the session.
func (s *Service) PerformAction(ctx context.Context, sessionID, actionType, details string) (*Session, Action, error) {
	if actionType == "" {
		return nil, Action{}, ErrInvalidInput
	}

	sess, def, err := s.store.GetWithCase(sessionID)
	if err != nil {
		return nil, Action{}, err
	}

	result, reveals := ResolveAction(def, sess.Level, actionType, details)
	sess, err = s.store.RecordAction(sessionID, actionType, details, result, reveals)
	if err != nil {
		return nil, Action{}, err
	}
	return sess, sess.Actions[len(sess.Actions)-1], nil
}

// End terminates the session, storing the learner's free-text diagnosis
// (optionally followed by an intervention clause). Ending an
// already-ended session is a no-op.
func (s *Service) End(ctx context.Context, sessionID, submission string) (*Session, error) {
	sess := s.store.MarkEnded(sessionID, submission)
	if sess == nil {
		return nil, ErrNotFound
	}
	if s.logger != nil {
		s.logger.Info("encounter ended", "session_id", sessionID, "turns", sess.CurrentTurn)
	}
	return sess, nil
}

// Feedback returns the session's feedback report, computing and caching
// it on first request. Concurrent requests for the same session share
// one computation; the classification oracle is never called twice.
func (s *Service) Feedback(ctx context.Context, sessionID string) (*FeedbackReport, error) {
	sess, def, err := s.store.GetWithCase(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Active {
		return nil, ErrSessionActive
	}
	if sess.Feedback != nil {
		s.store.MarkFeedbackFetched(sessionID)
		return sess.Feedback, nil
	}

	report, err := s.computeFeedback(ctx, sessionID, sess, def)
	if err != nil {
		return nil, err
	}
	s.store.MarkFeedbackFetched(sessionID)
	return report, nil
}

func (s *Service) computeFeedback(ctx context.Context, sessionID string, sess *Session, def *clinicalcase.Definition) (*FeedbackReport, error) {
	s.analysisMu.Lock()
	if call, ok := s.analysis[sessionID]; ok {
		s.analysisMu.Unlock()
		select {
		case <-call.done:
			return call.report, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	// A caller can get here with a snapshot taken before an earlier
	// computation finished and cleaned up after itself. Re-check the
	// store before starting a run, so the analyzer and its oracle are
	// invoked at most once per session and the memoized report is
	// never overwritten.
	if cur, err := s.store.Get(sessionID); err == nil && cur.Feedback != nil {
		s.analysisMu.Unlock()
		return cur.Feedback, nil
	}

	call := &analysisCall{done: make(chan struct{})}
	s.analysis[sessionID] = call
	s.analysisMu.Unlock()

	defer func() {
		close(call.done)
		s.analysisMu.Lock()
		delete(s.analysis, sessionID)
		s.analysisMu.Unlock()
	}()

	// The analyzer works on an immutable snapshot of an ended session,
	// so no store lock is held across the oracle round trip.
	report, err := s.analyzer.Analyze(ctx, sess, def)
	if err != nil {
		call.err = err
		return nil, err
	}

	if err := s.store.StoreFeedback(sessionID, report); err != nil {
		call.err = err
		return nil, err
	}
	call.report = report

	if s.archive != nil {
		scored := sess.snapshot()
		scored.Feedback = report
		if err := s.archive.SaveEncounter(ctx, scored, def); err != nil && s.logger != nil {
			s.logger.Warn("archiving encounter failed", "session_id", sessionID, "error", err)
		}
	}
	return report, nil
}

// Export returns the full session history with its case definition.
func (s *Service) Export(ctx context.Context, sessionID string) (*Session, *clinicalcase.Definition, error) {
	return s.store.GetWithCase(sessionID)
}

// Cases lists the learner-visible case summaries.
func (s *Service) Cases(ctx context.Context) ([]clinicalcase.Summary, error) {
	return s.cases.List()
}

// History lists archived, scored encounters, newest first, optionally
// filtered by case. Without an archive reader the history is empty.
func (s *Service) History(ctx context.Context, caseID string, limit int) ([]ArchivedSummary, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, caseID, limit)
}

// Archived retrieves one archived encounter by its session ID.
func (s *Service) Archived(ctx context.Context, sessionID string) (*ArchivedEncounter, error) {
	if s.history == nil {
		return nil, ErrNotFound
	}
	return s.history.Get(ctx, sessionID)
}
