package scoring

import "strings"

// interventionPrefix is the optional marker after the delimiter:
//
//	submission = diagnosis [ "|" [ "Intervention:" ] intervention ]
const interventionPrefix = "intervention:"

// Submission is the parsed end-of-session free-text submission.
type Submission struct {
	Diagnosis    string
	Intervention string
}

// HasDiagnosis reports whether any diagnosis text was supplied.
func (s Submission) HasDiagnosis() bool {
	return strings.TrimSpace(s.Diagnosis) != ""
}

// HasIntervention reports whether an intervention clause was supplied.
func (s Submission) HasIntervention() bool {
	return strings.TrimSpace(s.Intervention) != ""
}

// ParseSubmission splits the learner's submission into its diagnosis
// and optional intervention clause. The grammar is the tiny fixed one
// above; the same parser serves the scoring pipeline and its tests.
func ParseSubmission(text string) Submission {
	diagnosis, rest, found := strings.Cut(text, "|")
	sub := Submission{Diagnosis: strings.TrimSpace(diagnosis)}
	if !found {
		return sub
	}

	rest = strings.TrimSpace(rest)
	if len(rest) >= len(interventionPrefix) && strings.EqualFold(rest[:len(interventionPrefix)], interventionPrefix) {
		rest = strings.TrimSpace(rest[len(interventionPrefix):])
	}
	sub.Intervention = rest
	return sub
}
