package scoring

import (
	"strings"
	"time"

	"github.com/probecase/clinsim/internal/domain/encounter"
)

func durationSec(sess *encounter.Session) int {
	return int(endTime(sess).Sub(sess.CreatedAt) / time.Second)
}

// endTime falls back to the last-update timestamp for sessions scored
// before EndedAt was recorded; the analyzer only sees ended sessions,
// so this is belt and braces.
func endTime(sess *encounter.Session) time.Time {
	if sess.EndedAt != nil {
		return *sess.EndedAt
	}
	return sess.UpdatedAt
}

// earliestMatch finds the first logged action matching the description.
func earliestMatch(tbl MatchTable, required string, sess *encounter.Session) (time.Time, bool) {
	for _, action := range sess.Actions {
		if actionMatches(tbl, required, action.Type+" "+action.Details) {
			return action.Timestamp, true
		}
	}
	return time.Time{}, false
}

func containsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
