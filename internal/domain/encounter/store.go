package encounter

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
)

// Clock supplies wall-clock time. Injectable so lifecycle behavior is
// testable without sleeping.
type Clock func() time.Time

// abandonedRetentionFactor bounds how long an ended session whose
// feedback was never fetched can outlive the TTL.
const abandonedRetentionFactor = 4

// StoreConfig controls session retention.
type StoreConfig struct {
	// TTL is the inactivity duration after which a session is expired.
	TTL time.Duration
	// SweepInterval is how often the background reclamation pass runs.
	SweepInterval time.Duration
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock replaces the store's time source.
func WithClock(clock Clock) StoreOption {
	return func(s *Store) { s.now = clock }
}

type storeEntry struct {
	sess            *Session
	caseDef         *clinicalcase.Definition
	feedbackFetched bool
}

// Store owns every in-flight session and its lifecycle state machine.
// All mutations to a session go through the store and are serialized.
type Store struct {
	mu      sync.Mutex
	entries map[string]*storeEntry

	ttl           time.Duration
	sweepInterval time.Duration
	now           Clock
	logger        *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewStore creates a session store. Call Start to launch the background
// reclamation sweep and Close to stop it.
func NewStore(cfg StoreConfig, logger *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{
		entries:       make(map[string]*storeEntry),
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		now:           time.Now,
		logger:        logger,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the periodic reclamation sweep.
func (s *Store) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.done:
				return
			}
		}
	}()
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// CreateParams are the immutable caps set at session creation.
type CreateParams struct {
	Level        int
	TimeLimitSec int
	MaxTurns     int
}

// Create allocates a fresh active session for the case. Facts the case
// always reveals are marked disclosed up front, and the patient's
// opening statement seeds the conversation.
func (s *Store) Create(params CreateParams, def *clinicalcase.Definition) *Session {
	now := s.now()
	sess := &Session{
		ID:           uuid.NewString(),
		CaseID:       def.ID,
		Level:        params.Level,
		CreatedAt:    now,
		UpdatedAt:    now,
		Revealed:     newRevealedFacts(),
		TimeLimitSec: params.TimeLimitSec,
		MaxTurns:     params.MaxTurns,
		Active:       true,
	}
	for _, factID := range def.AlwaysRevealed() {
		sess.Revealed.History[factID] = true
	}
	if def.ChiefComplaint != "" {
		sess.Messages = append(sess.Messages, Message{
			Role:      RoleAssistant,
			Content:   def.ChiefComplaint,
			Timestamp: now,
		})
	}

	s.mu.Lock()
	s.entries[sess.ID] = &storeEntry{sess: sess, caseDef: def}
	s.mu.Unlock()

	return sess.snapshot()
}

// Get returns a snapshot of the session, or ErrNotFound if it is
// unknown or expired. A session whose time limit has silently elapsed
// is transitioned to ended before being returned.
func (s *Store) Get(id string) (*Session, error) {
	sess, _, err := s.GetWithCase(id)
	return sess, err
}

// GetWithCase returns the session snapshot together with its case definition.
func (s *Store) GetWithCase(id string) (*Session, *clinicalcase.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.liveEntry(id)
	if err != nil {
		return nil, nil, err
	}
	return entry.sess.snapshot(), entry.caseDef, nil
}

// AppendMessage appends a conversation message. A user message
// increments the turn counter and may exhaust the turn cap, ending the
// session as a side effect; the triggering message is still recorded.
func (s *Store) AppendMessage(id string, role Role, content string) (*Session, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.liveEntry(id)
	if err != nil {
		return nil, err
	}
	sess := entry.sess
	if !sess.Active {
		return nil, endedError(sess)
	}

	now := s.now()
	sess.Messages = append(sess.Messages, Message{Role: role, Content: content, Timestamp: now})
	sess.UpdatedAt = now
	if role == RoleUser {
		sess.CurrentTurn++
		if sess.MaxTurns > 0 && sess.CurrentTurn >= sess.MaxTurns {
			s.endLocked(entry, "", EndedByTurnLimit)
		}
	}

	return sess.snapshot(), nil
}

// RecordAction appends a clinical action with its resolved outcome and
// marks the facts it revealed as disclosed.
func (s *Store) RecordAction(id, actionType, details, result string, reveals ActionReveals) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.liveEntry(id)
	if err != nil {
		return nil, err
	}
	sess := entry.sess
	if !sess.Active {
		return nil, endedError(sess)
	}

	now := s.now()
	sess.Actions = append(sess.Actions, Action{Type: actionType, Timestamp: now, Details: details, Result: result})
	for _, system := range reveals.ExamSystems {
		sess.Revealed.ExamSystems[system] = true
	}
	for _, diag := range reveals.Diagnostics {
		sess.Revealed.Diagnostics[diag] = true
	}
	for _, factID := range reveals.History {
		sess.Revealed.History[factID] = true
	}
	sess.UpdatedAt = now

	return sess.snapshot(), nil
}

// MarkEnded transitions the session out of the active state. It is an
// idempotent no-op on an already-ended session and returns nil for an
// unknown or expired one.
func (s *Store) MarkEnded(id, diagnosis string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.liveEntry(id)
	if err != nil {
		return nil
	}
	if entry.sess.Active {
		s.endLocked(entry, diagnosis, EndedByUser)
	}
	return entry.sess.snapshot()
}

// StoreFeedback attaches the memoized feedback report.
func (s *Store) StoreFeedback(id string, report *FeedbackReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.liveEntry(id)
	if err != nil {
		return err
	}
	entry.sess.Feedback = report
	return nil
}

// MarkFeedbackFetched records that the cached feedback was delivered at
// least once, releasing the session's TTL exemption.
func (s *Store) MarkFeedbackFetched(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.feedbackFetched = true
	}
}

// Sweep runs one reclamation pass: active sessions past their time
// limit are ended, and stale sessions are evicted. It runs periodically
// once Start is called, independent of request traffic.
func (s *Store) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, entry := range s.entries {
		sess := entry.sess
		if sess.Active && s.timeLimitElapsed(sess, now) {
			s.endLocked(entry, "", EndedByTimeLimit)
			if s.logger != nil {
				s.logger.Info("session time limit elapsed", "session_id", id)
			}
		}
		if s.expiredLocked(entry, now) {
			delete(s.entries, id)
			if s.logger != nil {
				s.logger.Info("session evicted", "session_id", id)
			}
		}
	}
}

// Len reports the number of resident sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// liveEntry returns the entry for id, lazily evicting it when expired
// and silently ending it when its time limit has elapsed. Caller holds s.mu.
func (s *Store) liveEntry(id string) (*storeEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	if s.expiredLocked(entry, now) {
		delete(s.entries, id)
		return nil, ErrNotFound
	}
	if entry.sess.Active && s.timeLimitElapsed(entry.sess, now) {
		s.endLocked(entry, "", EndedByTimeLimit)
	}
	return entry, nil
}

func (s *Store) timeLimitElapsed(sess *Session, now time.Time) bool {
	if sess.TimeLimitSec <= 0 {
		return false
	}
	return now.Sub(sess.CreatedAt) >= time.Duration(sess.TimeLimitSec)*time.Second
}

// expiredLocked applies the TTL. Ended sessions whose feedback has not
// been fetched yet are retained past the TTL, up to a hard cap, so a
// learner's report is not lost to a racing sweep.
func (s *Store) expiredLocked(entry *storeEntry, now time.Time) bool {
	if s.ttl <= 0 {
		return false
	}
	idle := now.Sub(entry.sess.UpdatedAt)
	if idle < s.ttl {
		return false
	}
	if !entry.sess.Active && !entry.feedbackFetched {
		return idle >= abandonedRetentionFactor*s.ttl
	}
	return true
}

// endLocked is the single transition out of the active state. Caller holds s.mu.
func (s *Store) endLocked(entry *storeEntry, diagnosis string, reason EndReason) {
	sess := entry.sess
	if !sess.Active {
		return
	}
	now := s.now()
	sess.Active = false
	sess.EndedAt = &now
	sess.EndReason = reason
	sess.UpdatedAt = now
	if diagnosis != "" {
		sess.SubmittedDiagnosis = diagnosis
	}
}

// endedError picks the rejection error for a terminal session: sessions
// closed by a cap report ErrLimitReached so clients can tell the two
// apart at the API boundary.
func endedError(sess *Session) error {
	switch sess.EndReason {
	case EndedByTurnLimit, EndedByTimeLimit:
		return ErrLimitReached
	default:
		return ErrSessionEnded
	}
}

// ActionReveals lists the facts an action discloses.
type ActionReveals struct {
	ExamSystems []string
	Diagnostics []string
	History     []string
}
