package encounter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probecase/clinsim/internal/domain/clinicalcase"
)

// countingAnalyzer returns a different score on every invocation, so a
// repeated run shows up in the report it produces.
type countingAnalyzer struct {
	calls int
}

func (a *countingAnalyzer) Analyze(_ context.Context, _ *Session, _ *clinicalcase.Definition) (*FeedbackReport, error) {
	a.calls++
	return &FeedbackReport{SummaryScore: 10 * a.calls}, nil
}

func TestComputeFeedbackStaleSnapshotReturnsMemoizedReport(t *testing.T) {
	store, _ := newTestStore(t, StoreConfig{TTL: time.Hour})
	def := storeTestCase()
	anl := &countingAnalyzer{}
	svc := NewService(store, nil, nil, nil, anl, nil, nil, nil)

	sess := store.Create(CreateParams{Level: 1}, def)
	store.MarkEnded(sess.ID, "myocardial infarction")

	// Snapshot taken after the session ended but before any feedback
	// was computed.
	stale, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.Nil(t, stale.Feedback)

	first, err := svc.Feedback(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, first.SummaryScore)
	assert.Equal(t, 1, anl.calls)

	// A caller still holding the pre-feedback snapshot arrives after the
	// first computation finished and removed its in-flight entry. It must
	// get the memoized report back, not trigger a second analyzer run.
	again, err := svc.computeFeedback(context.Background(), sess.ID, stale, def)
	require.NoError(t, err)
	assert.Equal(t, 10, again.SummaryScore)
	assert.Equal(t, 1, anl.calls, "analyzer runs at most once per session")

	cached, err := store.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, cached.Feedback)
	assert.Equal(t, 10, cached.Feedback.SummaryScore, "memoized report is never overwritten")
}
