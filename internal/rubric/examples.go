package rubric

import (
	"fmt"
	"regexp"
	"strings"
)

// maxSynthesizedExamples caps how many verbalization examples a criterion
// receives from the corpus.
const maxSynthesizedExamples = 5

var templateExampleMarker = regexp.MustCompile(`(?i)^\s*(?:examples?|verbalizations?)\s*:\s*(.*)$`)

var genericTemplates = []string{
	"Perform %s assessment",
	"I'm going to check your %s",
	"Let me examine the %s now",
}

// SynthesizeExamples harvests verbalization examples for a section name from
// the template corpus, falling back to templated generic phrasing when the
// corpus has nothing to offer. Results are deduplicated and capped.
func SynthesizeExamples(sectionName string, templates []TemplateDoc) []string {
	harvested := harvestFromTemplates(sectionName, templates)
	if len(harvested) > 0 {
		return harvested
	}
	return genericExamples(sectionName)
}

// harvestFromTemplates finds a template block whose heading contains the
// section name (case-insensitive) and collects bullet phrases following an
// examples marker inside that block.
func harvestFromTemplates(sectionName string, templates []TemplateDoc) []string {
	target := strings.ToLower(strings.TrimSpace(sectionName))
	if target == "" {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	add := func(phrase string) bool {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" || seen[phrase] {
			return len(out) < maxSynthesizedExamples
		}
		seen[phrase] = true
		out = append(out, phrase)
		return len(out) < maxSynthesizedExamples
	}

	for _, doc := range templates {
		inBlock := false
		collecting := false
		for _, line := range strings.Split(doc.Text, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}

			if isBlockHeading(trimmed) {
				inBlock = strings.Contains(strings.ToLower(trimmed), target)
				collecting = false
				continue
			}
			if !inBlock {
				continue
			}
			if m := templateExampleMarker.FindStringSubmatch(trimmed); m != nil {
				collecting = true
				for _, phrase := range splitPhrases(m[1]) {
					if !add(phrase) {
						return out
					}
				}
				continue
			}
			if collecting && startsWithBullet(trimmed) {
				phrase := strings.TrimSpace(trimmed[bulletPrefixLen(trimmed):])
				if !add(phrase) {
					return out
				}
			}
		}
	}
	return out
}

// isBlockHeading treats upper-case lines and colon-terminated short lines as
// block boundaries inside a template document.
func isBlockHeading(line string) bool {
	if hasLetter(line) && line == strings.ToUpper(line) {
		return true
	}
	return strings.HasSuffix(line, ":") && !templateExampleMarker.MatchString(line)
}

func bulletPrefixLen(s string) int {
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(s, g) {
			return len(g)
		}
	}
	return 0
}

func genericExamples(sectionName string) []string {
	name := strings.ToLower(strings.TrimSpace(sectionName))
	out := make([]string, 0, len(genericTemplates))
	for _, t := range genericTemplates {
		out = append(out, fmt.Sprintf(t, name))
	}
	return out
}
