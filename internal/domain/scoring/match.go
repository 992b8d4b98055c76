package scoring

import "strings"

// miAliases are primary-diagnosis terms for which the lay phrase
// "heart attack" counts as a full match.
var miAliases = []string{"myocardial infarction", "mi", "stemi", "nstemi", "ami"}

// diagnosisMatches reports whether a submission matches a target
// diagnosis: the normalized target appears as a substring, or every
// content word of the target appears, or the heart-attack synonym rule
// applies.
func diagnosisMatches(submitted, target string) bool {
	ns := Normalize(submitted)
	nt := Normalize(target)
	if ns == "" || nt == "" {
		return false
	}
	if strings.Contains(ns, nt) {
		return true
	}
	if words := contentWords(nt); len(words) > 0 {
		all := true
		for _, w := range words {
			if !strings.Contains(ns, w) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	if hasPhrase(ns, "heart attack") {
		for _, alias := range miAliases {
			if hasPhrase(nt, alias) {
				return true
			}
		}
	}
	return false
}

// FallbackClassifyDiagnosis is the deterministic stand-in for the
// classification oracle.
func FallbackClassifyDiagnosis(submitted, primary string, differentials []string) DiagnosisLabel {
	if diagnosisMatches(submitted, primary) {
		return LabelPrimary
	}
	for _, diff := range differentials {
		if diagnosisMatches(submitted, diff) {
			return LabelDifferential
		}
	}
	return LabelIncorrect
}

// actionMatches reports whether candidate text satisfies a required
// action description. A match needs every keyword of the description in
// the candidate, or a synonym-table bridge, or an action-verb bridge
// over a shared medical term.
func actionMatches(tbl MatchTable, required, candidate string) bool {
	nr := Normalize(required)
	nc := Normalize(candidate)
	if nr == "" || nc == "" {
		return false
	}

	keywords := keywordsOf(tbl, nr)
	if len(keywords) > 0 {
		all := true
		for _, kw := range keywords {
			if !strings.Contains(nc, kw) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	if synonymBridge(tbl, nr, nc) {
		return true
	}
	return verbBridge(tbl, nr, nc)
}

// keywordsOf extracts the non-trivial keywords of a normalized action
// description: words longer than two characters that are not stopwords.
func keywordsOf(tbl MatchTable, normalized string) []string {
	var keywords []string
	for _, w := range strings.Fields(normalized) {
		if len(w) <= 2 || tbl.isStopword(w) {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// synonymBridge reports whether any synonym group has a member on each side.
func synonymBridge(tbl MatchTable, left, right string) bool {
	for _, group := range tbl.Synonyms {
		if hasAnyPhrase(left, group) && hasAnyPhrase(right, group) {
			return true
		}
	}
	return false
}

// verbBridge reports whether both sides use verbs from one action-verb
// group and share at least one medical term.
func verbBridge(tbl MatchTable, left, right string) bool {
	verbs := false
	for _, group := range tbl.ActionVerbs {
		if hasAnyPhrase(left, group) && hasAnyPhrase(right, group) {
			verbs = true
			break
		}
	}
	if !verbs {
		return false
	}
	return sharedMedicalTerm(tbl, left, right)
}

// sharedMedicalTerm reports whether the sides share a content word that
// is neither a stopword nor an action verb, or are synonym-bridged.
func sharedMedicalTerm(tbl MatchTable, left, right string) bool {
	if synonymBridge(tbl, left, right) {
		return true
	}
	for _, w := range contentWords(left) {
		if tbl.isStopword(w) || isActionVerb(tbl, w) {
			continue
		}
		if hasWord(right, w) {
			return true
		}
	}
	return false
}

func isActionVerb(tbl MatchTable, word string) bool {
	for _, group := range tbl.ActionVerbs {
		for _, verb := range group {
			if word == verb {
				return true
			}
		}
	}
	return false
}

func hasAnyPhrase(normalized string, phrases []string) bool {
	for _, p := range phrases {
		if hasPhrase(normalized, p) {
			return true
		}
	}
	return false
}
