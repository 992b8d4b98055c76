package encounter

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the session is unknown or expired. Callers
	// cannot distinguish the two cases; that is deliberate.
	ErrNotFound = errors.New("session not found")
	// ErrSessionEnded indicates a mutation was attempted on a terminal session.
	ErrSessionEnded = errors.New("session has ended")
	// ErrLimitReached is the ErrSessionEnded variant for sessions closed
	// by their turn cap or time limit rather than by the learner.
	// errors.Is(err, ErrSessionEnded) holds for it too.
	ErrLimitReached = fmt.Errorf("%w: limit reached", ErrSessionEnded)
	// ErrSessionActive indicates feedback was requested before the session ended.
	ErrSessionActive = errors.New("session is still active")
	// ErrInvalidInput indicates invalid encounter input.
	ErrInvalidInput = errors.New("invalid encounter input")
)
