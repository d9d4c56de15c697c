// Package corpus loads the example corpus that seeds the pattern library:
// spreadsheets contribute learned header/item patterns, template documents
// contribute verbalization example phrases. Loading is best-effort and
// happens at most once per process; the loaded library is read-only and
// safe for unsynchronized concurrent reads.
package corpus

import (
	"log/slog"
	"sync"

	"rubricon/internal/rubric"
)

// Source produces the corpus contents. The concrete filesystem search is one
// implementation; tests substitute a fixed in-memory corpus.
type Source interface {
	Load() ([]rubric.Pattern, []rubric.TemplateDoc, error)
}

// Library memoizes a Source behind a single-flight guard so concurrent first
// requests trigger exactly one load. A failed or empty load leaves the
// library empty; the pipeline then degrades to rule-only classification.
type Library struct {
	source Source
	log    *slog.Logger

	once      sync.Once
	patterns  []rubric.Pattern
	templates []rubric.TemplateDoc
}

// NewLibrary wraps a source. The load is deferred until first use.
func NewLibrary(source Source, log *slog.Logger) *Library {
	if log == nil {
		log = slog.Default()
	}
	return &Library{source: source, log: log}
}

func (l *Library) load() {
	l.once.Do(func() {
		if l.source == nil {
			return
		}
		patterns, templates, err := l.source.Load()
		if err != nil {
			l.log.Warn("corpus load failed, continuing without training data", "error", err)
			return
		}
		l.patterns = patterns
		l.templates = templates
		l.log.Info("corpus loaded", "patterns", len(patterns), "templates", len(templates))
	})
}

// Patterns returns the loaded pattern library, loading it on first use.
func (l *Library) Patterns() []rubric.Pattern {
	l.load()
	return l.patterns
}

// Templates returns the loaded template documents, loading them on first use.
func (l *Library) Templates() []rubric.TemplateDoc {
	l.load()
	return l.templates
}
