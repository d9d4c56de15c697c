package rubric

import (
	"regexp"
	"strconv"
	"strings"
)

// LineClass is the structural role the classifier assigns to a line.
type LineClass int

const (
	ClassIgnore LineClass = iota
	ClassSectionHeader
	ClassItem
)

var (
	numberedCapital = regexp.MustCompile(`^\d+\.\s*[A-Z]`)
	numberedPrefix  = regexp.MustCompile(`^\d+\.`)
	pointsPhrase    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:points?|pts?)\b`)
	wordThenPoints  = regexp.MustCompile(`(?i)\w+.*\b\d+\s*(?:points?|pts?)\b`)
)

var bulletGlyphs = []string{"-", "•", "*", "–", "▪", "◦"}

// classifyRule pairs a predicate with the class it assigns. Rules are
// evaluated in order and the first match wins, so header rules always
// shadow item rules for the same line.
type classifyRule struct {
	class LineClass
	match func(text string, cells []string) bool
}

var classifyRules = []classifyRule{
	// Header indicators.
	{ClassSectionHeader, func(text string, _ []string) bool {
		return hasLetter(text) && text == strings.ToUpper(text)
	}},
	{ClassSectionHeader, func(text string, _ []string) bool {
		return numberedCapital.MatchString(text)
	}},
	{ClassSectionHeader, func(text string, _ []string) bool {
		return strings.HasSuffix(strings.TrimSpace(text), ":")
	}},
	// Short rows spanning few columns read as headers, but only for
	// genuinely tabular rows without a bullet: applied to a bare text
	// line it would swallow nearly every bullet item.
	{ClassSectionHeader, func(text string, cells []string) bool {
		n := countNonEmpty(cells)
		return n > 1 && n <= 3 && len(text) < 50 && !startsWithBullet(text)
	}},
	// Item indicators.
	{ClassItem, func(text string, _ []string) bool {
		return startsWithBullet(text)
	}},
	{ClassItem, func(text string, _ []string) bool {
		return numberedPrefix.MatchString(text)
	}},
	{ClassItem, func(text string, _ []string) bool {
		return wordThenPoints.MatchString(text)
	}},
	{ClassItem, func(_ string, cells []string) bool {
		for _, c := range cells {
			if isBareInt(c) {
				return true
			}
		}
		return false
	}},
}

// Classify decides whether a line is a section header or an assessment item.
// A line matching neither is ignored; a line is never both.
func Classify(text string, cells []string) LineClass {
	text = strings.TrimSpace(text)
	if text == "" {
		return ClassIgnore
	}
	for _, rule := range classifyRules {
		if rule.match(text, cells) {
			return rule.class
		}
	}
	return ClassIgnore
}

func hasLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func startsWithBullet(s string) bool {
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(s, g) {
			return true
		}
	}
	return false
}

// isBareInt reports whether a cell holds a plain non-negative integer.
// Point values are never negative, so signed cells do not read as scores.
func isBareInt(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0 && !strings.HasPrefix(s, "+")
}

func countNonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// inlinePoints extracts the first "<N> points" style annotation from text,
// returning 0 when none is present.
func inlinePoints(text string) int {
	m := pointsPhrase.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
