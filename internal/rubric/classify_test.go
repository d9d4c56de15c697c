package rubric

import "testing"

func TestClassifyHeaders(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		cells []string
	}{
		{"uppercase line", "HISTORY TAKING", nil},
		{"numbered capital", "1. Physical Examination", nil},
		{"trailing colon", "Communication skills:", nil},
		{"short tabular row", "Vitals", []string{"Vitals", "10"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.text, tc.cells); got != ClassSectionHeader {
				t.Errorf("Classify(%q) = %v, want ClassSectionHeader", tc.text, got)
			}
		})
	}
}

func TestClassifyItems(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		cells []string
	}{
		{"bulleted with points", "- Checks pulse (2 points)", nil},
		{"bullet glyph", "• washes hands before exam", nil},
		{"points phrase without bullet", "checks blood pressure correctly 3 pts", nil},
		{"bare int cell", "checks capillary refill and explains the finding to the patient 2", []string{"checks capillary refill and explains the finding to the patient", "2"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.text, tc.cells); got != ClassItem {
				t.Errorf("Classify(%q) = %v, want ClassItem", tc.text, got)
			}
		})
	}
}

// A line is never both: header rules run first, so an uppercase bulleted
// line still reads as a header, and a plain bullet never reads as one.
func TestClassifyExclusive(t *testing.T) {
	if got := Classify("HISTORY TAKING", nil); got != ClassSectionHeader {
		t.Fatalf("Classify(HISTORY TAKING) = %v, want ClassSectionHeader", got)
	}
	if got := Classify("- Checks pulse (2 points)", nil); got != ClassItem {
		t.Fatalf("Classify(- Checks pulse (2 points)) = %v, want ClassItem", got)
	}
}

func TestClassifyIgnore(t *testing.T) {
	cases := []string{"", "   ", "some plain descriptive sentence without structure"}
	for _, text := range cases {
		if got := Classify(text, nil); got != ClassIgnore {
			t.Errorf("Classify(%q) = %v, want ClassIgnore", text, got)
		}
	}
}

func TestIsBareInt(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2", true},
		{" 10 ", true},
		{"0", true},
		{"-2", false},
		{"+3", false},
		{"2.5", false},
		{"", false},
		{"abc", false},
	}
	for _, tc := range cases {
		if got := isBareInt(tc.in); got != tc.want {
			t.Errorf("isBareInt(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestInlinePoints(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"- Checks pulse (2 points)", 2},
		{"History Taking (10 points)", 10},
		{"palpates abdomen 1 pt", 1},
		{"5 pts for complete exam", 5},
		{"no score here", 0},
	}
	for _, tc := range cases {
		if got := inlinePoints(tc.text); got != tc.want {
			t.Errorf("inlinePoints(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
