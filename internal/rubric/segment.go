package rubric

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// exampleLookahead bounds how many lines past a criterion are scanned for
// verbalization examples in free-text input.
const exampleLookahead = 4

var (
	criteriaLabeled  = regexp.MustCompile(`(?i)^criteria\s*\d+\s*:\s*(.+)$`)
	numberedCriteria = regexp.MustCompile(`^\d+\.\s*(.+)$`)
	bulletCriteria   = regexp.MustCompile(`^[-•*–]\s*(.+)$`)
	exampleMarker    = regexp.MustCompile(`(?i)^(?:examples?|verbalizations?)\s*:?\s*(.*)$`)

	leadingNumbering = regexp.MustCompile(`^\s*(?:\d+[\.\):]|[-•*–])\s*`)
	trailingPoints   = regexp.MustCompile(`(?i)\s*[\(\[]?\s*\d+\s*(?:points?|pts?)\s*[\)\]]?\s*$`)
	trailingPunct    = regexp.MustCompile(`[\s:.\-–]+$`)
)

// segmenter accumulates the section tree while walking input rows in order.
type segmenter struct {
	patterns []Pattern
	sections []Section
	current  *Section
	matched  int
}

func newSegmenter(patterns []Pattern) *segmenter {
	return &segmenter{patterns: patterns}
}

// SegmentTable walks every sheet of a structured table in stable sheet-name
// order and returns the recognized section tree plus the number of rows that
// matched a learned pattern.
func SegmentTable(t *Table, patterns []Pattern) ([]Section, int) {
	seg := newSegmenter(patterns)

	names := make([]string, 0, len(t.Sheets))
	for name := range t.Sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, row := range t.Sheets[name].Rows {
			seg.consumeRow(row)
		}
	}
	seg.close()
	return seg.sections, seg.matched
}

func (s *segmenter) consumeRow(row []Cell) {
	cells := make([]string, 0, len(row))
	var textParts []string
	for _, c := range row {
		cells = append(cells, c.Value)
		if v := strings.TrimSpace(c.Value); v != "" {
			textParts = append(textParts, v)
		}
	}
	if len(textParts) == 0 {
		return
	}
	text := strings.Join(textParts, " ")

	class, fromPattern := s.classifyRow(text, cells)
	switch class {
	case ClassSectionHeader:
		s.openSection(text, cells, fromPattern)
	case ClassItem:
		if s.current != nil {
			s.appendItem(cells)
		}
	}
}

// classifyRow prefers a learned-pattern match over the rule table; the rule
// table is the fallback when the corpus is absent or scores too low.
func (s *segmenter) classifyRow(text string, cells []string) (LineClass, bool) {
	if p, _ := BestMatch(text, countNonEmpty(cells), s.patterns); p != nil {
		s.matched++
		if p.Kind == PatternSectionHeader {
			return ClassSectionHeader, true
		}
		return ClassItem, true
	}
	return Classify(text, cells), false
}

func (s *segmenter) openSection(text string, cells []string, fromPattern bool) {
	s.close()

	name := ""
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if v == "" || isBareInt(v) {
			continue
		}
		name = CleanHeading(v)
		if name != "" {
			break
		}
	}
	if name == "" {
		return
	}

	points := inlinePoints(text)
	for _, c := range cells {
		if isBareInt(c) {
			if n, err := strconv.Atoi(strings.TrimSpace(c)); err == nil && n > points {
				points = n
			}
		}
	}

	confidence := ConfidenceLow
	if fromPattern {
		confidence = ConfidenceHigh
	}
	s.current = &Section{Name: name, MaxPoints: points, Confidence: confidence}
}

func (s *segmenter) appendItem(cells []string) {
	points := 0
	for _, c := range cells {
		if isBareInt(c) {
			points, _ = strconv.Atoi(strings.TrimSpace(c))
			break
		}
	}

	raw := ""
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if len(v) > 2 && !isBareInt(v) {
			raw = v
			break
		}
	}
	if points == 0 {
		points = inlinePoints(raw)
	}

	desc := CleanHeading(raw)
	if desc == "" {
		return
	}
	if points == 0 {
		points = 1
	}

	s.current.Items = append(s.current.Items, Item{
		ID:          DeriveID(desc),
		Name:        desc,
		Description: desc,
		Points:      points,
		SectionName: s.current.Name,
	})
}

func (s *segmenter) close() {
	if s.current == nil {
		return
	}
	s.sections = append(s.sections, *s.current)
	s.current = nil
}

// SegmentText is the purely textual fallback for input lacking column
// structure. Every criterion matched by an explicit marker becomes its own
// single-item section; a bounded look-ahead window past each criterion
// harvests verbalization examples.
func SegmentText(text string, patterns []Pattern) ([]Section, int) {
	lines := strings.Split(text, "\n")
	matched := 0
	var sections []Section

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if p, _ := BestMatch(line, 0, patterns); p != nil {
			matched++
		}

		name, ok := matchCriterion(line)
		if !ok {
			continue
		}
		points := inlinePoints(line)
		cleaned := CleanHeading(name)
		if cleaned == "" {
			continue
		}

		itemPoints := points
		if itemPoints == 0 {
			itemPoints = 1
		}
		item := Item{
			ID:          DeriveID(cleaned),
			Name:        cleaned,
			Description: cleaned,
			Points:      itemPoints,
			Examples:    harvestExamples(lines, i+1),
			SectionName: cleaned,
		}
		sections = append(sections, Section{
			Name:       cleaned,
			MaxPoints:  points,
			Items:      []Item{item},
			Confidence: ConfidenceLow,
		})
	}
	return sections, matched
}

func matchCriterion(line string) (string, bool) {
	if m := criteriaLabeled.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := numberedCriteria.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := bulletCriteria.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// harvestExamples scans from start for an examples/verbalization marker and
// collects comma- or semicolon-delimited phrases until the window closes or
// the next criterion begins.
func harvestExamples(lines []string, start int) []string {
	var out []string
	collecting := false
	for i := start; i < len(lines) && i < start+exampleLookahead; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if _, isCriterion := matchCriterion(line); isCriterion {
			break
		}
		if m := exampleMarker.FindStringSubmatch(line); m != nil {
			collecting = true
			out = append(out, splitPhrases(m[1])...)
			continue
		}
		if collecting {
			out = append(out, splitPhrases(line)...)
		}
	}
	return out
}

func splitPhrases(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "-"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// CleanHeading strips leading numbering or bullet glyphs, trailing point
// annotations, and trailing punctuation from a header or item text.
func CleanHeading(s string) string {
	s = strings.TrimSpace(s)
	for {
		next := leadingNumbering.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = strings.TrimSpace(next)
	}
	s = trailingPoints.ReplaceAllString(s, "")
	s = trailingPunct.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// DefaultCriteria is the graceful-degradation floor: when no heuristic
// extracts a single criterion, the analysis falls back to this fixed
// two-criterion medical assessment set.
func DefaultCriteria() []Section {
	names := []string{"History Taking", "Physical Examination"}
	sections := make([]Section, 0, len(names))
	for _, name := range names {
		sections = append(sections, Section{
			Name:       name,
			MaxPoints:  0,
			Confidence: ConfidenceLow,
			Items: []Item{{
				ID:          DeriveID(name),
				Name:        name,
				Description: name,
				Points:      1,
				Examples:    genericExamples(name),
				SectionName: name,
			}},
		})
	}
	return sections
}
