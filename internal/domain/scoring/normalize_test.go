package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Myocardial Infarction", "myocardial infarction"},
		{"  chest   x-ray!! ", "chest x ray"},
		{"ST-elevation (MI)", "st elevation mi"},
		{"", ""},
		{"...", ""},
		{"Trop 2.3 ng/mL", "trop 2 3 ng ml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), "input %q", tt.input)
	}
}

func TestContentWords(t *testing.T) {
	assert.Equal(t, []string{"myocardial", "infarction"}, contentWords("acute myocardial infarction"))
	assert.Empty(t, contentWords("mi of the"))
}

func TestHasPhrase(t *testing.T) {
	assert.True(t, hasPhrase("patient had a heart attack yesterday", "heart attack"))
	assert.False(t, hasPhrase("sweetheart attacked", "heart attack"))
	assert.True(t, hasPhrase("obtain ecg now", "ecg"))
	assert.False(t, hasPhrase("ecgs ordered", "ecg"))
}
