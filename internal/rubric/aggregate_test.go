package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregatePoints(t *testing.T) {
	r := &AnalysisResult{Sections: []Section{
		{Name: "A", MaxPoints: 0, Items: []Item{{Points: 2}, {Points: 3}}},
		{Name: "B", MaxPoints: 10, Items: []Item{{Points: 1}}},
	}}

	AggregatePoints(r)

	assert.Equal(t, 5, r.Sections[0].MaxPoints, "zero MaxPoints backfilled from item sum")
	assert.Equal(t, 10, r.Sections[1].MaxPoints, "explicit MaxPoints kept even when items disagree")
	assert.Equal(t, 15, r.TotalPoints)
}

func TestAggregatePointsIdempotent(t *testing.T) {
	r := &AnalysisResult{Sections: []Section{
		{Name: "A", Items: []Item{{Points: 4}}},
	}}

	AggregatePoints(r)
	first := r.TotalPoints
	AggregatePoints(r)

	assert.Equal(t, first, r.TotalPoints)
	assert.Equal(t, 4, r.Sections[0].MaxPoints)
}
