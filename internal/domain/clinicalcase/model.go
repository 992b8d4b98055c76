package clinicalcase

// RevealPolicy controls when a history fact is disclosed to the learner.
type RevealPolicy string

const (
	// RevealAlways facts are disclosed at encounter start.
	RevealAlways RevealPolicy = "always"
	// RevealOnRequest facts must be actively elicited.
	RevealOnRequest RevealPolicy = "on_request"
)

// Patient describes the scripted patient's identity.
type Patient struct {
	Name       string `yaml:"name" json:"name"`
	Age        int    `yaml:"age" json:"age"`
	Gender     string `yaml:"gender" json:"gender"`
	Occupation string `yaml:"occupation,omitempty" json:"occupation,omitempty"`
}

// HistoryFact is one piece of patient history with its disclosure rule.
type HistoryFact struct {
	ID     string       `yaml:"id" json:"id"`
	Text   string       `yaml:"text" json:"text"`
	Reveal RevealPolicy `yaml:"reveal,omitempty" json:"reveal,omitempty"`
	Topics []string     `yaml:"topics,omitempty" json:"topics,omitempty"`
}

// RedFlag is a time-sensitive required action with a stated consequence.
type RedFlag struct {
	Action            string `yaml:"action" json:"action"`
	TimeWindowMinutes *int   `yaml:"time_window_minutes,omitempty" json:"time_window_minutes,omitempty"`
	Consequence       string `yaml:"consequence,omitempty" json:"consequence,omitempty"`
}

// Findings holds the graded clinical findings for one difficulty level.
type Findings struct {
	Vitals  map[string]string `yaml:"vitals,omitempty" json:"vitals,omitempty"`
	Exam    map[string]string `yaml:"exam,omitempty" json:"exam,omitempty"`
	Labs    map[string]string `yaml:"labs,omitempty" json:"labs,omitempty"`
	Imaging map[string]string `yaml:"imaging,omitempty" json:"imaging,omitempty"`
}

// Definition is an immutable scripted patient scenario with its ground
// truth. Loaded once per encounter start and never mutated afterwards.
type Definition struct {
	ID               string           `yaml:"id" json:"id"`
	Title            string           `yaml:"title" json:"title"`
	Patient          Patient          `yaml:"patient" json:"patient"`
	ChiefComplaint   string           `yaml:"chief_complaint" json:"chief_complaint"`
	History          []HistoryFact    `yaml:"history,omitempty" json:"history,omitempty"`
	PrimaryDiagnosis string           `yaml:"primary_diagnosis" json:"primary_diagnosis"`
	Differentials    []string         `yaml:"differentials,omitempty" json:"differentials,omitempty"`
	CriticalActions  []string         `yaml:"critical_actions,omitempty" json:"critical_actions,omitempty"`
	RedFlags         []RedFlag        `yaml:"red_flags,omitempty" json:"red_flags,omitempty"`
	FindingsByLevel  map[int]Findings `yaml:"findings,omitempty" json:"findings,omitempty"`
}

// Summary is the case listing entry exposed to pickers. It deliberately
// omits ground truth fields so a UI can show it to the learner.
type Summary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Patient        Patient `json:"patient"`
	ChiefComplaint string  `json:"chief_complaint"`
}

// Summary returns the learner-visible view of the case.
func (d *Definition) Summary() Summary {
	return Summary{
		ID:             d.ID,
		Title:          d.Title,
		Patient:        d.Patient,
		ChiefComplaint: d.ChiefComplaint,
	}
}

// AlwaysRevealed returns IDs of history facts disclosed at encounter start.
func (d *Definition) AlwaysRevealed() []string {
	var ids []string
	for _, fact := range d.History {
		if fact.Reveal == RevealAlways {
			ids = append(ids, fact.ID)
		}
	}
	return ids
}

// FindingsForLevel returns the findings for the requested difficulty
// level, falling back to the nearest lower level that defines any.
func (d *Definition) FindingsForLevel(level int) Findings {
	for l := level; l >= 1; l-- {
		if f, ok := d.FindingsByLevel[l]; ok {
			return f
		}
	}
	return Findings{}
}
