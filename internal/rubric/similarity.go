package rubric

import "strings"

// similarityThreshold is exclusive: a pattern scoring exactly the threshold
// is not selected.
const similarityThreshold = 0.5

const columnShapeBonus = 0.2

// Similarity scores how closely a line resembles a learned pattern,
// in [0, 1]. Text dominates; matching column structure adds a flat bonus.
func Similarity(text string, columnCount int, p Pattern) float64 {
	score := textSimilarity(text, p.TextSample)
	if columnCount > 0 && columnCount == len(p.ColumnShape) {
		score += columnShapeBonus
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func textSimilarity(a, b string) float64 {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == "" || lb == "" {
		return 0
	}
	if la == lb {
		return 1.0
	}
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return 0.7
	}

	aw := strings.Fields(la)
	bw := strings.Fields(lb)
	seen := make(map[string]bool, len(bw))
	for _, w := range bw {
		seen[w] = true
	}
	shared := 0
	counted := make(map[string]bool, len(aw))
	for _, w := range aw {
		if seen[w] && !counted[w] {
			shared++
			counted[w] = true
		}
	}
	max := len(aw)
	if len(bw) > max {
		max = len(bw)
	}
	return float64(shared) / float64(max)
}

// BestMatch returns the pattern with the highest similarity to the line,
// or nil when no pattern scores strictly above the threshold. Ties resolve
// to the first pattern reaching the maximum, so selection is stable in
// corpus collection order.
func BestMatch(text string, columnCount int, patterns []Pattern) (*Pattern, float64) {
	var best *Pattern
	bestScore := 0.0
	for i := range patterns {
		s := Similarity(text, columnCount, patterns[i])
		if s > bestScore {
			bestScore = s
			best = &patterns[i]
		}
	}
	if best == nil || bestScore <= similarityThreshold {
		return nil, bestScore
	}
	return best, bestScore
}
