package scoring

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

// Sub-score caps. The four categories sum to at most 100.
const (
	DiagnosisMax       = 20
	InterventionMax    = 5
	CriticalActionsMax = 25
	CommunicationMax   = 20
	EfficiencyMax      = 30
	TotalMax           = 100
)

// Communication sub-check points.
const (
	painPoints      = 5
	historyPoints   = 3
	medsPoints      = 3
	questionsPoints = 4
	empathyPoints   = 5
	minQuestions    = 3
)

var (
	painPhrases = []string{
		"scale", "radiate", "radiating", "describe the pain", "sharp",
		"dull", "pressure", "how long", "when did", "what makes it",
		"does anything", "where exactly", "burning", "crushing",
	}
	historyPhrases = []string{
		"medical history", "past history", "history of", "previous",
		"before", "chronic", "diagnosed with", "any conditions",
	}
	medsPhrases = []string{
		"medication", "medications", "medicine", "medicines", "drug",
		"drugs", "allergic", "allergies", "allergy", "taking anything",
	}
	empathyPhrases = []string{
		"i understand", "i am sorry", "i'm sorry", "sorry to hear",
		"that must", "don't worry", "we will take care", "we'll take care",
		"you're in good hands", "i hear you", "thank you for telling me",
	}
)

// DiagnosisResult is the diagnosis-correctness sub-score.
type DiagnosisResult struct {
	Label      DiagnosisLabel `json:"label"`
	Points     int            `json:"points"`
	OracleUsed bool           `json:"oracle_used"`
}

// InterventionResult is the intervention-appropriateness sub-score.
type InterventionResult struct {
	Label  InterventionLabel `json:"label,omitempty"`
	Points int               `json:"points"`
}

// CriticalResult is the critical-actions sub-score.
type CriticalResult struct {
	Required  []string `json:"required"`
	Performed []string `json:"performed"`
	Missed    []string `json:"missed"`
	Points    int      `json:"points"`
}

// CommunicationResult is the communication sub-score with its triggers.
type CommunicationResult struct {
	AskedPainCharacter bool `json:"asked_pain_character"`
	AskedHistory       bool `json:"asked_history"`
	AskedMedications   bool `json:"asked_medications"`
	AskedEnough        bool `json:"asked_enough_questions"`
	ShowedEmpathy      bool `json:"showed_empathy"`
	Points             int  `json:"points"`
}

// EfficiencyResult is the efficiency sub-score.
type EfficiencyResult struct {
	TimePoints   int `json:"time_points"`
	ActionPoints int `json:"action_points"`
	Points       int `json:"points"`
}

// MissedRedFlag describes a red-flag action that was absent or late.
type MissedRedFlag struct {
	Action        string `json:"action"`
	Consequence   string `json:"consequence,omitempty"`
	Late          bool   `json:"late"`
	WindowMinutes int    `json:"window_minutes,omitempty"`
}

// Context is the full scoring context for one completed session. It is
// the single input to the feedback template generator.
type Context struct {
	Case          *clinicalcase.Definition
	Submission    Submission
	Diagnosis     DiagnosisResult
	Intervention  InterventionResult
	Critical      CriticalResult
	Communication CommunicationResult
	Efficiency    EfficiencyResult
	RedFlags      []MissedRedFlag
	DurationSec   int
	TimeLimitSec  int
	Total         int
}

// Rules computes category sub-scores for completed sessions. The oracle
// may be nil; scoring then runs entirely on the deterministic fallback.
type Rules struct {
	oracle Oracle
	table  MatchTable
	logger *slog.Logger
}

// NewRules creates a scoring rules engine.
func NewRules(oracle Oracle, table MatchTable, logger *slog.Logger) *Rules {
	return &Rules{oracle: oracle, table: table, logger: logger}
}

// Evaluate scores a completed session against its case definition. It
// never fails: oracle errors are absorbed by the deterministic fallback.
func (r *Rules) Evaluate(ctx context.Context, sess *encounter.Session, def *clinicalcase.Definition) *Context {
	sub := ParseSubmission(sess.SubmittedDiagnosis)

	sc := &Context{
		Case:         def,
		Submission:   sub,
		TimeLimitSec: sess.TimeLimitSec,
		DurationSec:  durationSec(sess),
	}

	sc.Diagnosis, sc.Intervention = r.scoreDiagnosis(ctx, sub, def)
	sc.Critical = r.scoreCriticalActions(sub, sess, def)
	sc.Communication = scoreCommunication(sess.Messages)
	sc.Efficiency = scoreEfficiency(sc.DurationSec, sess.TimeLimitSec, len(sess.Actions))
	sc.RedFlags = r.evaluateRedFlags(sub, sess, def)

	total := sc.Diagnosis.Points + sc.Intervention.Points + sc.Critical.Points +
		sc.Communication.Points + sc.Efficiency.Points
	if total > TotalMax {
		total = TotalMax
	}
	if total < 0 {
		total = 0
	}
	sc.Total = total
	return sc
}

// scoreDiagnosis grades the parsed submission. An absent diagnosis
// scores zero outright; conversation text is never scanned for one.
func (r *Rules) scoreDiagnosis(ctx context.Context, sub Submission, def *clinicalcase.Definition) (DiagnosisResult, InterventionResult) {
	if !sub.HasDiagnosis() {
		return DiagnosisResult{Label: LabelIncorrect}, InterventionResult{}
	}

	label, oracleUsed := r.classifyDiagnosis(ctx, sub.Diagnosis, def)
	diag := DiagnosisResult{Label: label, OracleUsed: oracleUsed}
	switch label {
	case LabelPrimary:
		diag.Points = DiagnosisMax
	case LabelDifferential:
		diag.Points = DiagnosisMax * 60 / 100
	}

	var intervention InterventionResult
	if sub.HasIntervention() {
		ilabel := r.classifyIntervention(ctx, sub, def)
		intervention.Label = ilabel
		switch ilabel {
		case LabelAppropriate:
			intervention.Points = InterventionMax
		case LabelPartial:
			intervention.Points = InterventionMax * 60 / 100
		}
	}
	return diag, intervention
}

// classifyDiagnosis prefers the oracle but guarantees a deterministic
// answer. An exact match with the primary diagnosis never consults the
// oracle at all.
func (r *Rules) classifyDiagnosis(ctx context.Context, submitted string, def *clinicalcase.Definition) (DiagnosisLabel, bool) {
	if Normalize(submitted) == Normalize(def.PrimaryDiagnosis) {
		return LabelPrimary, false
	}

	if r.oracle != nil {
		label, err := r.oracle.ClassifyDiagnosis(ctx, submitted, def.PrimaryDiagnosis, def.Differentials)
		if err == nil && validDiagnosisLabel(label) {
			return label, true
		}
		if err != nil && !errors.Is(err, ErrClassificationUnavailable) && r.logger != nil {
			r.logger.Warn("diagnosis oracle failed", "error", err)
		}
	}
	return FallbackClassifyDiagnosis(submitted, def.PrimaryDiagnosis, def.Differentials), false
}

// classifyIntervention grades the intervention clause. The fallback
// treats an intervention matching any required or red-flag action as
// appropriate and any other non-empty text as partially appropriate.
func (r *Rules) classifyIntervention(ctx context.Context, sub Submission, def *clinicalcase.Definition) InterventionLabel {
	if r.oracle != nil {
		label, err := r.oracle.ClassifyIntervention(ctx, sub.Intervention, def.PrimaryDiagnosis)
		if err == nil && validInterventionLabel(label) {
			return label
		}
		if err != nil && !errors.Is(err, ErrClassificationUnavailable) && r.logger != nil {
			r.logger.Warn("intervention oracle failed", "error", err)
		}
	}

	for _, action := range def.CriticalActions {
		if actionMatches(r.table, action, sub.Intervention) {
			return LabelAppropriate
		}
	}
	for _, flag := range def.RedFlags {
		if actionMatches(r.table, flag.Action, sub.Intervention) {
			return LabelAppropriate
		}
	}
	return LabelPartial
}

// scoreCriticalActions fuzzy-matches each required action against the
// logged actions and the intervention clause. A case with no required
// actions gets full credit.
func (r *Rules) scoreCriticalActions(sub Submission, sess *encounter.Session, def *clinicalcase.Definition) CriticalResult {
	result := CriticalResult{Required: def.CriticalActions}
	if len(def.CriticalActions) == 0 {
		result.Points = CriticalActionsMax
		return result
	}

	candidates := actionCandidates(sub, sess)
	for _, required := range def.CriticalActions {
		performed := false
		for _, candidate := range candidates {
			if actionMatches(r.table, required, candidate) {
				performed = true
				break
			}
		}
		if performed {
			result.Performed = append(result.Performed, required)
		} else {
			result.Missed = append(result.Missed, required)
		}
	}

	result.Points = int(math.Round(float64(len(result.Performed)) / float64(len(def.CriticalActions)) * CriticalActionsMax))
	return result
}

func actionCandidates(sub Submission, sess *encounter.Session) []string {
	candidates := make([]string, 0, len(sess.Actions)+1)
	for _, action := range sess.Actions {
		candidates = append(candidates, action.Type+" "+action.Details)
	}
	if sub.HasIntervention() {
		candidates = append(candidates, sub.Intervention)
	}
	return candidates
}

// scoreCommunication runs five additive keyword checks over the
// concatenated learner messages. No partial credit within a check.
func scoreCommunication(messages []encounter.Message) CommunicationResult {
	var all strings.Builder
	questions := 0
	for _, msg := range messages {
		if msg.Role != encounter.RoleUser {
			continue
		}
		all.WriteString(strings.ToLower(msg.Content))
		all.WriteByte('\n')
		if strings.Contains(msg.Content, "?") {
			questions++
		}
	}
	text := all.String()

	result := CommunicationResult{
		AskedPainCharacter: containsAny(text, painPhrases),
		AskedHistory:       containsAny(text, historyPhrases),
		AskedMedications:   containsAny(text, medsPhrases),
		AskedEnough:        questions >= minQuestions,
		ShowedEmpathy:      containsAny(text, empathyPhrases),
	}
	if result.AskedPainCharacter {
		result.Points += painPoints
	}
	if result.AskedHistory {
		result.Points += historyPoints
	}
	if result.AskedMedications {
		result.Points += medsPoints
	}
	if result.AskedEnough {
		result.Points += questionsPoints
	}
	if result.ShowedEmpathy {
		result.Points += empathyPoints
	}
	if result.Points > CommunicationMax {
		result.Points = CommunicationMax
	}
	return result
}

// scoreEfficiency combines the time step function with the action-count
// bonus, capped at 30.
func scoreEfficiency(durationSec, timeLimitSec, actionCount int) EfficiencyResult {
	result := EfficiencyResult{
		TimePoints:   timePoints(durationSec, timeLimitSec),
		ActionPoints: actionPoints(actionCount),
	}
	result.Points = result.TimePoints + result.ActionPoints
	if result.Points > EfficiencyMax {
		result.Points = EfficiencyMax
	}
	return result
}

func timePoints(durationSec, timeLimitSec int) int {
	if timeLimitSec <= 0 {
		// Untimed encounter: neither reward nor punish pacing.
		return 15
	}
	ratio := float64(durationSec) / float64(timeLimitSec)
	switch {
	case ratio <= 0.5:
		return 20
	case ratio <= 0.75:
		return 18
	case ratio <= 1.0:
		return 15
	case ratio <= 1.2:
		return 10
	case ratio <= 1.5:
		return 5
	default:
		return 0
	}
}

func actionPoints(count int) int {
	switch {
	case count == 0:
		return 0
	case count >= 3 && count <= 10:
		return 5
	case count > 10:
		return 3
	default:
		return 2
	}
}

// evaluateRedFlags surfaces absent or late red-flag actions. They feed
// feedback text only, never the numeric score.
func (r *Rules) evaluateRedFlags(sub Submission, sess *encounter.Session, def *clinicalcase.Definition) []MissedRedFlag {
	var missed []MissedRedFlag
	for _, flag := range def.RedFlags {
		earliest, found := earliestMatch(r.table, flag.Action, sess)
		if !found && sub.HasIntervention() && actionMatches(r.table, flag.Action, sub.Intervention) {
			// Intervention text has no timestamp of its own; count it
			// at session end.
			found = true
			earliest = endTime(sess)
		}

		entry := MissedRedFlag{Action: flag.Action, Consequence: flag.Consequence}
		if flag.TimeWindowMinutes != nil {
			entry.WindowMinutes = *flag.TimeWindowMinutes
		}

		switch {
		case !found:
			missed = append(missed, entry)
		case flag.TimeWindowMinutes != nil && earliest.Sub(sess.CreatedAt).Minutes() > float64(*flag.TimeWindowMinutes):
			entry.Late = true
			missed = append(missed, entry)
		}
	}
	return missed
}
