package llm

import (
	"fmt"
	"strings"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
	"github.com/probecase/clinsim/internal/domain/encounter"
)

const diagnosisClassifyPrompt = `You grade a medical trainee's diagnosis.
Primary diagnosis: %s
Accepted differentials: %s
Trainee submission: %s

Answer with exactly one word:
PRIMARY if the submission names the primary diagnosis or an equivalent term,
DIFFERENTIAL if it names one of the accepted differentials,
INCORRECT otherwise.`

const interventionClassifyPrompt = `You grade a medical trainee's proposed intervention.
Diagnosis: %s
Proposed intervention: %s

Answer with exactly one word:
APPROPRIATE if the intervention is the standard of care,
PARTIAL if it is helpful but incomplete,
INAPPROPRIATE if it is wrong or harmful.`

const guidancePrompt = `You are a clinical teaching assistant observing a trainee
interviewing a simulated patient. If the trainee's last question shows a gap worth a
gentle nudge, reply with one short hint sentence. If no hint is needed, reply with
exactly NONE.

Trainee asked: %s
Patient answered: %s`

// patientSystemPrompt renders the persona the reply model stays in. Only
// facts the learner has elicited (plus always-revealed ones) are handed
// to the model; everything else stays hidden until asked.
func patientSystemPrompt(def *clinicalcase.Definition, level int, revealed encounter.RevealedFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are role-playing a patient in a clinical training simulation.\n")
	fmt.Fprintf(&b, "You are %s, %d years old, %s.", def.Patient.Name, def.Patient.Age, def.Patient.Gender)
	if def.Patient.Occupation != "" {
		fmt.Fprintf(&b, " You work as %s.", def.Patient.Occupation)
	}
	fmt.Fprintf(&b, "\nYour presenting complaint: %s\n", def.ChiefComplaint)

	var known []string
	for _, fact := range def.History {
		if fact.Reveal == clinicalcase.RevealAlways || revealed.History[fact.ID] {
			known = append(known, fact.Text)
		}
	}
	if len(known) > 0 {
		b.WriteString("Details you have already shared:\n")
		for _, text := range known {
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}

	b.WriteString("Answer in character, in one to three sentences. ")
	b.WriteString("Volunteer nothing beyond what is asked. ")
	if level >= 3 {
		b.WriteString("Be vague and occasionally tangential, as a distressed patient would be. ")
	} else if level == 2 {
		b.WriteString("Answer plainly but do not elaborate unprompted. ")
	} else {
		b.WriteString("Be cooperative and reasonably forthcoming. ")
	}
	b.WriteString("Never reveal the diagnosis or that this is a simulation.")
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, "; ")
}
