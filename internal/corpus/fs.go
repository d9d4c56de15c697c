package corpus

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rubricon/internal/rubric"
)

// DefaultCandidatePaths are tried in order when no explicit corpus location
// is configured; the first existing directory wins.
var DefaultCandidatePaths = []string{
	"corpus",
	"training_data",
	"/usr/local/share/rubricon/corpus",
}

// FSSource searches a list of candidate directories for example sheets
// (*.csv) and template documents (*.txt, *.md). Individual file failures are
// logged and skipped so a partially broken corpus still contributes.
type FSSource struct {
	Candidates []string
	Log        *slog.Logger
}

// NewFSSource builds a filesystem source over the given candidate
// directories, falling back to DefaultCandidatePaths when none are given.
func NewFSSource(candidates []string, log *slog.Logger) *FSSource {
	if len(candidates) == 0 {
		candidates = DefaultCandidatePaths
	}
	if log == nil {
		log = slog.Default()
	}
	return &FSSource{Candidates: candidates, Log: log}
}

// Load implements Source. A missing corpus is not an error: it returns empty
// slices and the pipeline degrades to rule-only classification.
func (s *FSSource) Load() ([]rubric.Pattern, []rubric.TemplateDoc, error) {
	dir := s.firstExisting()
	if dir == "" {
		s.Log.Warn("no corpus directory found", "candidates", strings.Join(s.Candidates, ", "))
		return nil, nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var patterns []rubric.Pattern
	var templates []rubric.TemplateDoc
	for _, name := range names {
		path := filepath.Join(dir, name)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			p, err := loadSheet(path, name)
			if err != nil {
				s.Log.Warn("skipping corpus sheet", "file", name, "error", err)
				continue
			}
			patterns = append(patterns, p...)
		case ".txt", ".md":
			raw, err := os.ReadFile(path)
			if err != nil {
				s.Log.Warn("skipping corpus template", "file", name, "error", err)
				continue
			}
			templates = append(templates, rubric.TemplateDoc{Name: name, Text: string(raw)})
		}
	}
	return patterns, templates, nil
}

func (s *FSSource) firstExisting() string {
	for _, c := range s.Candidates {
		if c == "" {
			continue
		}
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}

// loadSheet classifies every non-blank row of an example sheet into a
// learned pattern. Rows the classifier ignores contribute nothing.
func loadSheet(path, sheetName string) ([]rubric.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var patterns []rubric.Pattern
	for _, row := range rows {
		var parts []string
		for _, cell := range row {
			if v := strings.TrimSpace(cell); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			continue
		}
		text := strings.Join(parts, " ")

		var kind rubric.PatternKind
		switch rubric.Classify(text, row) {
		case rubric.ClassSectionHeader:
			kind = rubric.PatternSectionHeader
		case rubric.ClassItem:
			kind = rubric.PatternItem
		default:
			continue
		}
		patterns = append(patterns, rubric.Pattern{
			Kind:        kind,
			TextSample:  text,
			ColumnShape: append([]string(nil), row...),
			SourceSheet: sheetName,
		})
	}
	return patterns, nil
}
