package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MatchTable is the hand-curated vocabulary driving the fuzzy action
// matcher. It is configuration data, not logic: deployments can extend
// it per case library without touching the matching algorithm.
type MatchTable struct {
	// Stopwords are skipped when extracting keywords from a critical
	// action description.
	Stopwords []string `yaml:"stopwords"`
	// Synonyms are groups of interchangeable medical terms.
	Synonyms [][]string `yaml:"synonyms"`
	// ActionVerbs are groups of interchangeable clinical verbs.
	ActionVerbs [][]string `yaml:"action_verbs"`
}

// DefaultMatchTable returns the compiled-in vocabulary.
func DefaultMatchTable() MatchTable {
	return MatchTable{
		Stopwords: []string{
			"a", "an", "the", "and", "or", "of", "to", "for", "with",
			"in", "on", "at", "by", "is", "are", "was", "be", "as",
			"patient", "patients",
		},
		Synonyms: [][]string{
			{"ekg", "ecg", "electrocardiogram", "12-lead"},
			{"nitro", "nitroglycerin", "gtn"},
			{"asa", "aspirin", "acetylsalicylic"},
			{"cxr", "chest x-ray", "chest xray", "chest radiograph"},
			{"troponin", "trop", "cardiac enzymes"},
			{"cbc", "complete blood count", "full blood count", "fbc"},
			{"iv", "intravenous", "drip"},
			{"o2", "oxygen", "supplemental oxygen"},
			{"ct", "cat scan", "computed tomography"},
			{"bp", "blood pressure"},
			{"abx", "antibiotics", "antibiotic"},
			{"morphine", "opioid analgesia"},
		},
		ActionVerbs: [][]string{
			{"give", "administer", "provide", "start"},
			{"order", "request", "obtain", "get", "send", "check", "perform"},
			{"monitor", "observe", "watch"},
			{"consult", "refer", "call", "page"},
		},
	}
}

// LoadMatchTable reads a table override from a YAML file. Sections left
// empty in the file keep the defaults.
func LoadMatchTable(path string) (MatchTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MatchTable{}, fmt.Errorf("reading match table: %w", err)
	}

	var loaded MatchTable
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return MatchTable{}, fmt.Errorf("parsing match table: %w", err)
	}

	tbl := DefaultMatchTable()
	if len(loaded.Stopwords) > 0 {
		tbl.Stopwords = loaded.Stopwords
	}
	if len(loaded.Synonyms) > 0 {
		tbl.Synonyms = loaded.Synonyms
	}
	if len(loaded.ActionVerbs) > 0 {
		tbl.ActionVerbs = loaded.ActionVerbs
	}
	return tbl, nil
}

func (t MatchTable) isStopword(word string) bool {
	for _, s := range t.Stopwords {
		if word == s {
			return true
		}
	}
	return false
}
