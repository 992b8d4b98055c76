package clinicalcase

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader reads case definitions from a directory of YAML files, one case
// per file named <id>.yaml. Definitions are cached after first load and
// treated as immutable.
type Loader struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Definition
}

// NewLoader creates a loader over the given case directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*Definition),
	}
}

// Get returns the validated case definition for the identifier.
func (l *Loader) Get(id string) (*Definition, error) {
	if !validCaseID(id) {
		return nil, ErrCaseNotFound
	}

	l.mu.RLock()
	def, ok := l.cache[id]
	l.mu.RUnlock()
	if ok {
		return def, nil
	}

	def, err := l.loadFile(filepath.Join(l.dir, id+".yaml"))
	if err != nil {
		return nil, err
	}
	if def.ID != id {
		return nil, fmt.Errorf("%w: file %s.yaml declares id %q", ErrInvalidCase, id, def.ID)
	}

	l.mu.Lock()
	l.cache[id] = def
	l.mu.Unlock()

	return def, nil
}

// List returns learner-visible summaries for every case in the directory.
func (l *Loader) List() ([]Summary, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading case directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		id := strings.TrimSuffix(name, ".yaml")
		def, err := l.Get(id)
		if err != nil {
			if l.logger != nil {
				l.logger.Warn("skipping unreadable case file", "file", name, "error", err)
			}
			continue
		}
		summaries = append(summaries, def.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })
	return summaries, nil
}

func (l *Loader) loadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("reading case file: %w", err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// validCaseID rejects identifiers that could escape the case directory.
func validCaseID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
