package encounter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
)

// Well-known action types. Free-form types are accepted and recorded
// verbatim; only these get finding resolution.
const (
	ActionVitals     = "vitals"
	ActionExam       = "exam"
	ActionLab        = "lab"
	ActionImaging    = "imaging"
	ActionMedication = "medication"
)

// ResolveAction computes the deterministic outcome text for a clinical
// action against the case's graded findings for the session level, and
// reports which facts the action reveals.
func ResolveAction(def *clinicalcase.Definition, level int, actionType, details string) (string, ActionReveals) {
	findings := def.FindingsForLevel(level)

	switch strings.ToLower(strings.TrimSpace(actionType)) {
	case ActionVitals:
		if len(findings.Vitals) == 0 {
			return "Vital signs within normal limits.", ActionReveals{Diagnostics: []string{"vitals"}}
		}
		return formatFindings(findings.Vitals), ActionReveals{Diagnostics: []string{"vitals"}}
	case ActionExam:
		key, text, ok := matchFinding(findings.Exam, details)
		if !ok {
			key = fallbackKey(details, "general")
			text = "No abnormal findings on examination."
		}
		return text, ActionReveals{ExamSystems: []string{key}}
	case ActionLab:
		key, text, ok := matchFinding(findings.Labs, details)
		if !ok {
			key = fallbackKey(details, "lab")
			text = "Result pending; no abnormality reported."
		}
		return text, ActionReveals{Diagnostics: []string{key}}
	case ActionImaging:
		key, text, ok := matchFinding(findings.Imaging, details)
		if !ok {
			key = fallbackKey(details, "imaging")
			text = "No acute findings on imaging."
		}
		return text, ActionReveals{Diagnostics: []string{key}}
	case ActionMedication:
		if strings.TrimSpace(details) == "" {
			return "Medication order noted.", ActionReveals{}
		}
		return fmt.Sprintf("Administered: %s.", strings.TrimSpace(details)), ActionReveals{}
	default:
		return "Done.", ActionReveals{}
	}
}

// matchFinding looks up a finding by loose containment in either
// direction, so "order a chest x-ray" matches the "chest x-ray" key.
func matchFinding(findings map[string]string, details string) (string, string, bool) {
	want := strings.ToLower(strings.TrimSpace(details))
	if want == "" || len(findings) == 0 {
		return "", "", false
	}
	for key, text := range findings {
		k := strings.ToLower(key)
		if strings.Contains(want, k) || strings.Contains(k, want) {
			return key, text, true
		}
	}
	return "", "", false
}

func fallbackKey(details, def string) string {
	details = strings.ToLower(strings.TrimSpace(details))
	if details == "" {
		return def
	}
	return details
}

// formatFindings renders a finding map as stable, readable lines.
func formatFindings(findings map[string]string) string {
	keys := make([]string, 0, len(findings))
	for key := range findings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s: %s.", key, strings.TrimSuffix(findings[key], "."))
	}
	return b.String()
}
