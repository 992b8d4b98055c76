package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMatchTableOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	data := []byte(`
synonyms:
  - [salbutamol, albuterol, ventolin]
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	tbl, err := LoadMatchTable(path)
	require.NoError(t, err)

	// Overridden section replaces the default wholesale.
	assert.Len(t, tbl.Synonyms, 1)
	assert.True(t, actionMatches(tbl, "give salbutamol", "administer ventolin nebulizer"))

	// Untouched sections keep the defaults.
	assert.True(t, tbl.isStopword("the"))
	assert.NotEmpty(t, tbl.ActionVerbs)
}

func TestLoadMatchTableMissingFile(t *testing.T) {
	_, err := LoadMatchTable("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadMatchTableBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("synonyms: {not a list"), 0o644))

	_, err := LoadMatchTable(path)
	assert.Error(t, err)
}

func TestDefaultMatchTableCoversCoreVocabulary(t *testing.T) {
	tbl := DefaultMatchTable()
	assert.True(t, actionMatches(tbl, "obtain ECG", "get an ekg"))
	assert.True(t, actionMatches(tbl, "give aspirin", "asa given"))
	assert.True(t, actionMatches(tbl, "order chest x-ray", "cxr"))
}
