package clinicalcase

import (
	"fmt"
	"strings"
)

// Validate checks the structural invariants of a loaded case definition.
func Validate(def *Definition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCase)
	}
	if strings.TrimSpace(def.Title) == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidCase)
	}
	if strings.TrimSpace(def.PrimaryDiagnosis) == "" {
		return fmt.Errorf("%w: missing primary diagnosis", ErrInvalidCase)
	}

	seen := make(map[string]bool, len(def.History))
	for _, fact := range def.History {
		if strings.TrimSpace(fact.ID) == "" {
			return fmt.Errorf("%w: history fact with empty id", ErrInvalidCase)
		}
		if seen[fact.ID] {
			return fmt.Errorf("%w: duplicate history fact %q", ErrInvalidCase, fact.ID)
		}
		seen[fact.ID] = true
		switch fact.Reveal {
		case "", RevealAlways, RevealOnRequest:
		default:
			return fmt.Errorf("%w: history fact %q has unknown reveal policy %q", ErrInvalidCase, fact.ID, fact.Reveal)
		}
	}

	for level := range def.FindingsByLevel {
		if level < 1 || level > 3 {
			return fmt.Errorf("%w: findings level %d out of range", ErrInvalidCase, level)
		}
	}

	for i, flag := range def.RedFlags {
		if strings.TrimSpace(flag.Action) == "" {
			return fmt.Errorf("%w: red flag %d has no action", ErrInvalidCase, i)
		}
		if flag.TimeWindowMinutes != nil && *flag.TimeWindowMinutes <= 0 {
			return fmt.Errorf("%w: red flag %q has non-positive time window", ErrInvalidCase, flag.Action)
		}
	}

	return nil
}
