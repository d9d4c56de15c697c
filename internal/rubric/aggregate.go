package rubric

// AggregatePoints back-fills section point totals and recomputes the grand
// total. A section whose MaxPoints is still zero receives the sum of its
// items' points; TotalPoints is always recomputed from section totals, never
// incrementally drifted, so re-running the pass on an aggregated result is
// a no-op.
func AggregatePoints(r *AnalysisResult) {
	total := 0
	for i := range r.Sections {
		s := &r.Sections[i]
		if s.MaxPoints == 0 {
			sum := 0
			for _, it := range s.Items {
				sum += it.Points
			}
			s.MaxPoints = sum
		}
		total += s.MaxPoints
	}
	r.TotalPoints = total
}
