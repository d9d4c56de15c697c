package rubric

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNoInput is returned by Analyze when the caller supplied neither raw
// text nor a structured table. It is the only request-level failure the
// pipeline produces; every other degraded condition is reported through
// AnalysisResult.Warnings.
var ErrNoInput = errors.New("rubric: no input text or table to analyze")

// PatternKind labels the structural role a learned pattern represents.
type PatternKind string

const (
	PatternSectionHeader PatternKind = "section_header"
	PatternItem          PatternKind = "item"
)

// Pattern is a learned structural fact collected from the example corpus.
// Patterns are immutable once loaded and shared read-only across requests.
type Pattern struct {
	Kind        PatternKind `json:"kind"`
	TextSample  string      `json:"text_sample"`
	ColumnShape []string    `json:"column_shape"`
	SourceSheet string      `json:"source_sheet"`
}

// TemplateDoc is a raw template document retained for example-phrase
// harvesting by the example synthesizer.
type TemplateDoc struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// PatternSource exposes the loaded corpus to the analyzer. Implementations
// must be safe for unsynchronized concurrent reads after construction.
type PatternSource interface {
	Patterns() []Pattern
	Templates() []TemplateDoc
}

// Enhancer optionally refines a pattern-based analysis via an external
// completion service. On error the caller keeps the local result, so a
// broken or unreachable service never fails a request.
type Enhancer interface {
	Enhance(ctx context.Context, local *AnalysisResult, sourceText string) (*AnalysisResult, error)
}

// Cell is a single spreadsheet cell value.
type Cell struct {
	Value string `json:"value"`
}

// Sheet is one sheet of a structured table.
type Sheet struct {
	Rows [][]Cell `json:"rows"`
}

// Table is the structured representation an external extraction service
// produces for spreadsheet uploads.
type Table struct {
	Sheets map[string]Sheet `json:"sheets"`
}

// Input carries exactly one of raw text or a structured table.
type Input struct {
	Text  string
	Table *Table
}

// ConfidenceTag marks how a section was recognized.
type ConfidenceTag string

const (
	ConfidenceHigh ConfidenceTag = "high"
	ConfidenceLow  ConfidenceTag = "low"
)

// Item is a single scoreable assessment criterion within a section.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Points      int      `json:"points"`
	Examples    []string `json:"examples"`
	SectionName string   `json:"section"`
}

// Section groups criteria under a named heading with an aggregate point value.
type Section struct {
	Name       string        `json:"name"`
	MaxPoints  int           `json:"maxPoints"`
	Items      []Item        `json:"items"`
	Confidence ConfidenceTag `json:"confidenceTag"`
}

// Metadata describes how an analysis was produced.
type Metadata struct {
	MatchedPatternCount int  `json:"matchedPatternCount"`
	UsedTrainingCorpus  bool `json:"usedTrainingCorpus"`
}

// AnalysisResult is the top-level pipeline output, produced fresh per request.
// Warnings carries the non-fatal degradations that occurred while producing
// the result (missing corpus, default criteria fallback, skipped enhancement).
type AnalysisResult struct {
	Sections    []Section `json:"sections"`
	TotalPoints int       `json:"totalPoints"`
	Metadata    Metadata  `json:"metadata"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Criteria flattens the section tree into the ordered criterion list the
// YAML synthesizer consumes.
func (r *AnalysisResult) Criteria() []Item {
	var out []Item
	for _, s := range r.Sections {
		out = append(out, s.Items...)
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
var spaces = regexp.MustCompile(`\s+`)

// DeriveID produces a deterministic identifier from a criterion name by
// stripping non-alphanumeric characters and collapsing whitespace to
// underscores. Two differently worded names can collapse to the same ID
// within one run; callers tolerate the collision.
func DeriveID(name string) string {
	cleaned := nonAlnum.ReplaceAllString(name, "")
	cleaned = strings.TrimSpace(cleaned)
	return spaces.ReplaceAllString(cleaned, "_")
}
