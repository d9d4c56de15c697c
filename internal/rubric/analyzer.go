package rubric

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

// enhancementExcerptLimit bounds how much of the original text is forwarded
// to the external completion service.
const enhancementExcerptLimit = 4000

// Analyzer runs the full extraction pipeline: segmentation against the
// learned pattern library, point aggregation, example synthesis, and the
// optional external enhancement pass. It holds no per-request state and is
// safe for concurrent use.
type Analyzer struct {
	source   PatternSource
	enhancer Enhancer
	log      *slog.Logger
}

// NewAnalyzer wires the pipeline. source and enhancer may be nil: a nil
// source degrades to rule-only classification, a nil enhancer skips the
// external pass entirely.
func NewAnalyzer(source PatternSource, enhancer Enhancer, log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{source: source, enhancer: enhancer, log: log}
}

// Analyze converts raw text or a structured table into an AnalysisResult.
// Internal failures degrade to a weaker but non-empty result carried with
// warnings; the only error condition is the complete absence of input.
func (a *Analyzer) Analyze(ctx context.Context, input Input) (*AnalysisResult, error) {
	if input.Table == nil && strings.TrimSpace(input.Text) == "" {
		return nil, ErrNoInput
	}

	var patterns []Pattern
	var templates []TemplateDoc
	if a.source != nil {
		patterns = a.source.Patterns()
		templates = a.source.Templates()
	}

	result := &AnalysisResult{}
	if len(patterns) == 0 {
		result.Warnings = append(result.Warnings, "example corpus unavailable; using rule-only classification")
		a.log.Warn("corpus unavailable, degrading to rule-only classification")
	}

	var matched int
	if input.Table != nil {
		result.Sections, matched = SegmentTable(input.Table, patterns)
	} else {
		result.Sections, matched = SegmentText(input.Text, patterns)
	}

	if criteriaCount(result.Sections) == 0 {
		result.Sections = DefaultCriteria()
		result.Warnings = append(result.Warnings, "no criteria recognized; falling back to default criteria set")
		a.log.Warn("no criteria extracted, using default criteria set")
	}

	AggregatePoints(result)

	for si := range result.Sections {
		sec := &result.Sections[si]
		for ii := range sec.Items {
			if len(sec.Items[ii].Examples) == 0 {
				sec.Items[ii].Examples = SynthesizeExamples(sec.Name, templates)
			}
		}
	}

	result.Metadata = Metadata{
		MatchedPatternCount: matched,
		UsedTrainingCorpus:  len(patterns) > 0,
	}

	if a.enhancer != nil {
		enhanced, err := a.enhancer.Enhance(ctx, result, excerpt(input))
		if err != nil {
			result.Warnings = append(result.Warnings, "external enhancement skipped: "+err.Error())
			a.log.Warn("external enhancement failed, keeping local analysis", "error", err)
		} else if enhanced != nil {
			enhanced.Warnings = append(result.Warnings, enhanced.Warnings...)
			result = enhanced
		}
	}

	a.log.Info("analysis complete",
		"sections", len(result.Sections),
		"criteria", criteriaCount(result.Sections),
		"total_points", result.TotalPoints,
		"matched_patterns", matched,
	)
	return result, nil
}

// SynthesizeExamples exposes corpus-backed example synthesis for a single
// section name, for callers re-filling examples after manual edits.
func (a *Analyzer) SynthesizeExamples(sectionName string) []string {
	var templates []TemplateDoc
	if a.source != nil {
		templates = a.source.Templates()
	}
	return SynthesizeExamples(sectionName, templates)
}

func criteriaCount(sections []Section) int {
	n := 0
	for _, s := range sections {
		n += len(s.Items)
	}
	return n
}

func excerpt(input Input) string {
	text := input.Text
	if input.Table != nil {
		names := make([]string, 0, len(input.Table.Sheets))
		for name := range input.Table.Sheets {
			names = append(names, name)
		}
		sort.Strings(names)

		var sb strings.Builder
		for _, name := range names {
			for _, row := range input.Table.Sheets[name].Rows {
				for _, c := range row {
					if v := strings.TrimSpace(c.Value); v != "" {
						sb.WriteString(v)
						sb.WriteString(" | ")
					}
				}
				sb.WriteString("\n")
				if sb.Len() > enhancementExcerptLimit {
					break
				}
			}
		}
		text = sb.String()
	}
	if len(text) > enhancementExcerptLimit {
		cut := enhancementExcerptLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
