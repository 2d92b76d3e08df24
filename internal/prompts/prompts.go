// Package prompts renders the prompt for each generation phase. Rendering is
// pure: task context in, prompt string out, no I/O.
package prompts

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/fable/pkg/models"
)

// NodeContext carries the per-node fields shared by every phase prompt.
type NodeContext struct {
	// Task is the node's writing task description.
	Task string
	// WordBudget is the node's word count target.
	WordBudget int
	// Meta is the root's descriptive metadata.
	Meta models.Metadata
	// Ancestors holds the task descriptions of the node's ancestors, root
	// first. Used to preserve narrative continuity without re-sending the
	// whole tree.
	Ancestors []string
}

// judgePrompt asks whether a task is simple enough to write directly.
const judgePrompt = `You are planning a long-form writing project. Decide whether the following writing task is simple enough to write directly in one pass, or complex enough that it should be split into sub-tasks first.

Writing task:
%s

Target word count: %d words
%s
Return ONLY a JSON object with this exact structure (no other text):
{
  "decompose": true,
  "reasoning": "One or two sentences explaining the decision"
}

Set "decompose" to false only if a single focused pass can cover the task coherently at the target length.`

// Judge renders the complexity-judgment prompt for the AI check.
func Judge(nc NodeContext) string {
	return fmt.Sprintf(judgePrompt, nc.Task, nc.WordBudget, contextBlock(nc))
}

// decomposePrompt asks for an ordered list of sub-tasks with budget shares.
const decomposePrompt = `Break this writing task into ordered sub-tasks. The sub-tasks will be written independently and concatenated in order, so together they must cover the whole task with no gaps and no overlap.

Writing task:
%s

Target word count: %d words
%s
Produce between %d and %d sub-tasks.

Return ONLY a JSON array with this exact structure (no other text):
[
  {"task": "Description of the first sub-task", "share": 0.3},
  {"task": "Description of the second sub-task", "share": 0.7}
]

Guidelines:
- "share" is the fraction of the parent's word count for that sub-task; shares should sum to 1.0
- Order matters: the array order is the reading order of the final text
- Each sub-task description must stand alone: a writer who sees only that description and the shared context must know what to write
- Keep transitions in mind: end each sub-task where the next naturally begins`

// Decompose renders the decomposition prompt.
func Decompose(nc NodeContext, minChildren, maxChildren int) string {
	return fmt.Sprintf(decomposePrompt, nc.Task, nc.WordBudget, contextBlock(nc),
		minChildren, maxChildren)
}

// decomposeRetryPrompt reformulates the request after a failed parse.
const decomposeRetryPrompt = `Split the following writing task into exactly %d to %d parts for independent writing.

Task: %s
Total word count: %d words
%s
Respond with a JSON array ONLY. No prose, no markdown fences, nothing before or after the array. Each element must be an object with a "task" string and a "share" number:

[{"task": "...", "share": 0.5}, {"task": "...", "share": 0.5}]

The shares must sum to 1.0 and the array must have at least %d elements.`

// DecomposeRetry renders the reformulated decomposition prompt used after a
// decomposition failure.
func DecomposeRetry(nc NodeContext, minChildren, maxChildren int) string {
	return fmt.Sprintf(decomposeRetryPrompt, minChildren, maxChildren,
		nc.Task, nc.WordBudget, contextBlock(nc), minChildren)
}

// outlinePrompt asks for a structured writing outline for one leaf.
const outlinePrompt = `Create a structured writing outline for one section of a longer work.

Section task:
%s

Section word count: %d words
%s%s
The outline should cover, in order: the key beats or points of the section, how it opens (connecting from what precedes it), and how it closes (handing off to what follows). Be concrete; the outline is the only guidance the writer of this section receives beyond the shared context above.`

// Outline renders the outline-synthesis prompt for a leaf.
func Outline(nc NodeContext) string {
	return fmt.Sprintf(outlinePrompt, nc.Task, nc.WordBudget, contextBlock(nc),
		ancestorBlock(nc.Ancestors))
}

// writePrompt asks for final prose from an outline.
const writePrompt = `Write one section of a longer work, following the outline below.

Section task:
%s

Outline:
%s

Target length: %d words (staying within about 20%% of the target is fine)
%s
Write the prose only. Do not include headings, the outline, or any commentary; the text will be concatenated directly with neighboring sections.`

// Write renders the prose-writing prompt for a leaf.
func Write(nc NodeContext, outline string) string {
	return fmt.Sprintf(writePrompt, nc.Task, outline, nc.WordBudget, contextBlock(nc))
}

// contextBlock renders the shared metadata as a labeled block, or an empty
// string when no metadata is set.
func contextBlock(nc NodeContext) string {
	m := nc.Meta
	if m.IsZero() {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nShared context:\n")
	writeField(&b, "Setting", m.Setting)
	if len(m.Characters) > 0 {
		writeField(&b, "Characters", strings.Join(m.Characters, ", "))
	}
	writeField(&b, "Theme", m.Theme)
	writeField(&b, "Tone", m.Tone)
	writeField(&b, "Style", m.Style)
	writeField(&b, "Structure", m.Structure)
	writeField(&b, "Plot", m.Plot)
	writeField(&b, "Worldbuilding", m.Worldbuilding)
	writeField(&b, "Goals", m.Goals)
	b.WriteString("\n")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, value)
}

// maxAncestorTaskLen truncates each ancestor task description in the
// condensed summary.
const maxAncestorTaskLen = 200

// ancestorBlock renders a condensed summary of ancestor task descriptions,
// root first.
func ancestorBlock(ancestors []string) string {
	if len(ancestors) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("This section sits inside the following task hierarchy (outermost first):\n")
	for i, task := range ancestors {
		fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", i), truncate(task, maxAncestorTaskLen))
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to maxLen runes. Cutting on rune boundaries keeps
// multi-byte text valid.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
