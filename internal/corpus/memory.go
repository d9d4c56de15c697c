package corpus

import "rubricon/internal/rubric"

// StaticSource serves a fixed in-memory corpus. Used by tests and by
// callers that embed their training data.
type StaticSource struct {
	PatternList  []rubric.Pattern
	TemplateList []rubric.TemplateDoc
}

// Load implements Source.
func (s *StaticSource) Load() ([]rubric.Pattern, []rubric.TemplateDoc, error) {
	return s.PatternList, s.TemplateList, nil
}
