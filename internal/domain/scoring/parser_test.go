package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		diagnosis    string
		intervention string
	}{
		{
			name:      "diagnosis only",
			input:     "myocardial infarction",
			diagnosis: "myocardial infarction",
		},
		{
			name:         "diagnosis with intervention prefix",
			input:        "MI | Intervention: aspirin and cath lab",
			diagnosis:    "MI",
			intervention: "aspirin and cath lab",
		},
		{
			name:         "prefix is case insensitive",
			input:        "MI | INTERVENTION: give aspirin",
			diagnosis:    "MI",
			intervention: "give aspirin",
		},
		{
			name:         "delimiter without prefix keeps clause",
			input:        "MI | give aspirin",
			diagnosis:    "MI",
			intervention: "give aspirin",
		},
		{
			name:      "trailing delimiter yields empty intervention",
			input:     "MI |",
			diagnosis: "MI",
		},
		{
			name:  "empty submission",
			input: "",
		},
		{
			name:         "whitespace trimmed on both sides",
			input:        "  unstable angina  |  Intervention:  nitroglycerin  ",
			diagnosis:    "unstable angina",
			intervention: "nitroglycerin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := ParseSubmission(tt.input)
			assert.Equal(t, tt.diagnosis, sub.Diagnosis)
			assert.Equal(t, tt.intervention, sub.Intervention)
		})
	}
}

func TestSubmissionPredicates(t *testing.T) {
	assert.False(t, Submission{}.HasDiagnosis())
	assert.False(t, Submission{Diagnosis: "   "}.HasDiagnosis())
	assert.True(t, Submission{Diagnosis: "MI"}.HasDiagnosis())

	assert.False(t, Submission{Intervention: ""}.HasIntervention())
	assert.True(t, Submission{Intervention: "aspirin"}.HasIntervention())
}
