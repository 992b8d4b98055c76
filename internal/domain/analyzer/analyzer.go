// Package analyzer composes the scoring rules and feedback templates
// into the final encounter report.
package analyzer

import (
	"context"
	"log/slog"
	"math"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
	"github.com/probecase/clinsim/internal/domain/feedback"
	"github.com/probecase/clinsim/internal/domain/scoring"
)

// Analyzer produces a feedback report for a completed session. Callers
// are expected to memoize the result in the session store: the oracle
// call behind the rules is neither free nor idempotent in latency.
type Analyzer struct {
	rules  *scoring.Rules
	logger *slog.Logger
}

// New creates an analyzer over the given scoring rules.
func New(rules *scoring.Rules, logger *slog.Logger) *Analyzer {
	return &Analyzer{rules: rules, logger: logger}
}

// Analyze scores the session and renders feedback. The session must be
// ended; the returned report's summary score is always in [0, 100].
func (a *Analyzer) Analyze(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition) (*encounter.FeedbackReport, error) {
	if sess.Active {
		return nil, encounter.ErrSessionActive
	}

	sc := a.rules.Evaluate(ctx, sess, def)
	lists := feedback.Generate(sc)

	report := &encounter.FeedbackReport{
		SummaryScore: sc.Total,
		Scores: encounter.CategoryScores{
			Diagnosis:       sc.Diagnosis.Points,
			Intervention:    sc.Intervention.Points,
			CriticalActions: sc.Critical.Points,
			Communication:   sc.Communication.Points,
			Efficiency:      sc.Efficiency.Points,
		},
		Timing:          timing(sc),
		WhatWentWell:    lists.WhatWentWell,
		Missed:          lists.Missed,
		RedFlagsMissed:  lists.RedFlagsMissed,
		Recommendations: lists.Recommendations,
	}

	if a.logger != nil {
		a.logger.Info("encounter analyzed",
			"session_id", sess.ID,
			"case_id", sess.CaseID,
			"summary_score", report.SummaryScore,
			"oracle_used", sc.Diagnosis.OracleUsed,
		)
	}
	return report, nil
}

func timing(sc *scoring.Context) encounter.Timing {
	t := encounter.Timing{
		TimeLimitSec:      sc.TimeLimitSec,
		ActualDurationSec: sc.DurationSec,
	}
	if sc.TimeLimitSec > 0 {
		if sc.DurationSec > sc.TimeLimitSec {
			t.ExceededBySec = sc.DurationSec - sc.TimeLimitSec
		}
		percent := float64(sc.DurationSec) / float64(sc.TimeLimitSec) * 100
		t.TimeUsedPercent = math.Round(percent*10) / 10
	}
	return t
}
