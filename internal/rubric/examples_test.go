package rubric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardiacTemplate = `CARDIAC EXAMINATION
Examples:
- I'm going to listen to your heart
- I'm going to listen to your heart
- let me check your pulse
- I'll check the rhythm now
- checking capillary refill
- auscultating the valves
- one more phrase past the cap

RESPIRATORY EXAMINATION
Examples:
- take a deep breath for me
`

func TestSynthesizeExamplesFromTemplates(t *testing.T) {
	templates := []TemplateDoc{{Name: "cardiac.txt", Text: cardiacTemplate}}

	got := SynthesizeExamples("Cardiac Examination", templates)

	// Duplicates collapse and the list caps at five.
	require.Len(t, got, 5)
	assert.Equal(t, "I'm going to listen to your heart", got[0])
	assert.NotContains(t, got, "one more phrase past the cap")
	assert.NotContains(t, got, "take a deep breath for me")
}

func TestSynthesizeExamplesMatchesOwnBlock(t *testing.T) {
	templates := []TemplateDoc{{Name: "cardiac.txt", Text: cardiacTemplate}}

	got := SynthesizeExamples("Respiratory Examination", templates)
	assert.Equal(t, []string{"take a deep breath for me"}, got)
}

func TestSynthesizeExamplesGenericFallback(t *testing.T) {
	got := SynthesizeExamples("Neurological Exam", nil)

	require.Len(t, got, 3)
	assert.Equal(t, "Perform neurological exam assessment", got[0])
	assert.Equal(t, "I'm going to check your neurological exam", got[1])
	assert.Equal(t, "Let me examine the neurological exam now", got[2])
}

func TestSynthesizeExamplesUnknownSectionFallsBack(t *testing.T) {
	templates := []TemplateDoc{{Name: "cardiac.txt", Text: cardiacTemplate}}

	got := SynthesizeExamples("Abdominal Exam", templates)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "abdominal exam")
}
