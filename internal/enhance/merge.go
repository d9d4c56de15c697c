package enhance

import (
	"strings"

	"rubricon/internal/rubric"
)

// Merge folds external suggestions into the local analysis. The local result
// stays authoritative for structure and ordering: external data only fills
// gaps (missing points, shorter example lists) and appends sections or items
// the local pass missed entirely. Neither input is mutated.
func Merge(local, external *rubric.AnalysisResult) *rubric.AnalysisResult {
	// Warnings are left empty here; the analyzer carries the local warnings
	// forward itself.
	merged := &rubric.AnalysisResult{
		TotalPoints: local.TotalPoints,
		Metadata:    local.Metadata,
	}

	externalByName := make(map[string]rubric.Section, len(external.Sections))
	for _, sec := range external.Sections {
		externalByName[strings.ToLower(sec.Name)] = sec
	}

	seen := make(map[string]bool, len(local.Sections))
	for _, sec := range local.Sections {
		key := strings.ToLower(sec.Name)
		seen[key] = true
		if ext, ok := externalByName[key]; ok {
			merged.Sections = append(merged.Sections, mergeSection(sec, ext))
		} else {
			merged.Sections = append(merged.Sections, copySection(sec))
		}
	}

	// External-only sections come in after all local ones, in the order the
	// service produced them. They were never seen by the local pass.
	for _, sec := range external.Sections {
		if seen[strings.ToLower(sec.Name)] {
			continue
		}
		appended := copySection(sec)
		appended.Confidence = rubric.ConfidenceLow
		fillDerivedIDs(&appended)
		merged.Sections = append(merged.Sections, appended)
	}

	if external.TotalPoints > merged.TotalPoints {
		merged.TotalPoints = external.TotalPoints
	}
	return merged
}

func mergeSection(local, external rubric.Section) rubric.Section {
	out := copySection(local)
	if out.MaxPoints == 0 && external.MaxPoints > 0 {
		out.MaxPoints = external.MaxPoints
	}

	externalByDesc := make(map[string]rubric.Item, len(external.Items))
	for _, it := range external.Items {
		externalByDesc[strings.ToLower(it.Description)] = it
	}

	seen := make(map[string]bool, len(out.Items))
	for i, it := range out.Items {
		key := strings.ToLower(it.Description)
		seen[key] = true
		ext, ok := externalByDesc[key]
		if !ok {
			continue
		}
		if len(ext.Examples) > len(it.Examples) {
			out.Items[i].Examples = append([]string(nil), ext.Examples...)
		}
		if it.Points == 0 && ext.Points > 0 {
			out.Items[i].Points = ext.Points
		}
	}

	for _, it := range external.Items {
		if seen[strings.ToLower(it.Description)] {
			continue
		}
		added := it
		added.Examples = append([]string(nil), it.Examples...)
		added.SectionName = out.Name
		if added.Name == "" {
			added.Name = added.Description
		}
		if added.ID == "" {
			added.ID = rubric.DeriveID(added.Name)
		}
		out.Items = append(out.Items, added)
	}
	return out
}

func copySection(sec rubric.Section) rubric.Section {
	out := sec
	out.Items = make([]rubric.Item, len(sec.Items))
	for i, it := range sec.Items {
		out.Items[i] = it
		out.Items[i].Examples = append([]string(nil), it.Examples...)
	}
	return out
}

// fillDerivedIDs backfills names and IDs on sections that arrived from the
// external service without them.
func fillDerivedIDs(sec *rubric.Section) {
	for i := range sec.Items {
		if sec.Items[i].Name == "" {
			sec.Items[i].Name = sec.Items[i].Description
		}
		if sec.Items[i].ID == "" {
			sec.Items[i].ID = rubric.DeriveID(sec.Items[i].Name)
		}
		if sec.Items[i].SectionName == "" {
			sec.Items[i].SectionName = sec.Name
		}
	}
}
