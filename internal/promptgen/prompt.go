// Package promptgen renders the final criteria list into the fixed-template
// assessment prompt document. Output is deterministic: identical input
// produces byte-identical YAML, with no timestamps or randomness embedded,
// so downstream consumers can diff and cache rendered prompts.
package promptgen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"rubricon/internal/rubric"
)

// DefaultKey identifies the station when the caller does not supply one.
const DefaultKey = "assessment"

const systemMessage = "You are a helpful assistant tasked with analyzing and scoring a recorded medical examination between a medical student and a patient. Provide your response in JSON format."

const timingInstruction = `Important Instruction:
When determining the start and end times of each examination, focus on the moments where the doctor instructs the patient to perform an action (e.g., "look up at the ceiling", "look straight ahead"). Give these phrases priority for setting the ` + "`start_time`" + ` and ` + "`end_time`" + ` over phrases where the doctor states their own actions (e.g., "I'm going to look at your nose and eyes").`

const noExamInstruction = `If no exam is detected, you can say "No exam was performed", start_time: "nan", end_time: "nan", score: 0.`

const responseSchema = `{
     "statement": "statement extracted from the conversation that supports this specific exam",
     "start_time": "timepoint for start of the exam (ONLY 1 decimal pt)",
     "end_time": "timepoint for end of the exam (ONLY 1 decimal pt)",
     "rationale": "reasoning behind scoring the physical exam",
     "score": "score of the exam (0 to max_points)"
}`

// Document carries everything the synthesizer needs to render a prompt.
type Document struct {
	Key      string
	Criteria []rubric.Item
}

// Render produces the prompt document for a criteria list under the default
// key. The criteria may come straight from an analysis or from a
// caller-edited list; rendering is the same either way.
func Render(criteria []rubric.Item) string {
	return RenderDocument(Document{Key: DefaultKey, Criteria: criteria})
}

// RenderDocument produces the full YAML prompt document.
func RenderDocument(doc Document) string {
	key := strings.TrimSpace(doc.Key)
	if key == "" {
		key = DefaultKey
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "key: %s\n", key)

	sb.WriteString("system_message: |\n")
	writeBlock(&sb, systemMessage)

	sb.WriteString("user_message: |\n")
	writeBlock(&sb, timingInstruction)
	writeBlock(&sb, "")
	writeBlock(&sb, "You need to identify the following physical exams from this conversation:")
	for i, c := range doc.Criteria {
		writeBlock(&sb, criterionLine(i+1, c))
	}
	writeBlock(&sb, "")
	writeBlock(&sb, noExamInstruction)
	writeBlock(&sb, "")
	writeBlock(&sb, "Please provide a response in the following format with keys: "+joinIDs(doc.Criteria))
	writeBlock(&sb, "")
	writeBlock(&sb, "and the schema:")
	writeBlock(&sb, responseSchema)

	sb.WriteString("response_config:\n")
	sb.WriteString("  structured_output: true\n")
	return sb.String()
}

// criterionLine renders one criterion in the fixed enumeration format.
func criterionLine(index int, c rubric.Item) string {
	line := fmt.Sprintf("%d. %s: Did the doctor perform %s?", index, c.ID, strings.ToLower(c.Name))
	if len(c.Examples) > 0 {
		line += " - Verbalization examples: " + strings.Join(c.Examples, ", ")
	}
	return line
}

func joinIDs(criteria []rubric.Item) string {
	ids := make([]string, 0, len(criteria))
	for _, c := range criteria {
		ids = append(ids, c.ID)
	}
	return strings.Join(ids, ", ")
}

// writeBlock writes text into the current literal block scalar, indenting
// every line two spaces. Blank lines stay blank so the block structure
// survives the YAML round trip.
func writeBlock(sb *strings.Builder, text string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// Validate confirms a prompt document is well-formed YAML with the expected
// top-level keys. Used when callers hand back manually edited documents.
func Validate(document string) error {
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(document), &parsed); err != nil {
		return fmt.Errorf("prompt document is not valid YAML: %w", err)
	}
	for _, key := range []string{"key", "system_message", "user_message"} {
		if _, ok := parsed[key]; !ok {
			return fmt.Errorf("prompt document is missing %q", key)
		}
	}
	return nil
}
