// Package prompts holds the system instructions sent to generation
// endpoints. Keeping them in one place makes wording changes reviewable
// without touching the pipeline.
package prompts

import "fmt"

// CondenseSystem directs the service to shrink a transcript segment while
// keeping its structure intact. Used for every chunk request during the
// reduction loop.
const CondenseSystem = `You compress a segment of a chat transcript. Produce a shorter version that stays faithful to the original structure and order. Preserve key questions, answers, decisions, and strongly expressed sentiment. Drop greetings, chit-chat, and filler. Keep the speaker letters exactly as they appear. Output only the condensed transcript, no extra commentary.`

// analyzeSystem is the template for the final analysis request. The letter
// legend is part of the content itself, so the instructions only point at it.
const analyzeSystem = `You analyze a chat transcript. Task: %s

The transcript uses single letters for participants; a legend mapping letters to names is included at the top of the content. Refer to participants by name using that legend. Answer in plain text, at most %d characters. No markdown, no preamble, no closing remarks.`

// AnalysisOutputLimit caps the length of the analysis answer, in characters.
const AnalysisOutputLimit = 512

// DefaultTask is used when the caller supplies no task descriptor for the
// final analysis.
const DefaultTask = "Summarize what was discussed, who decided what, and any open questions."

// AnalyzeSystem builds the analyze-mode instructions for a task descriptor.
func AnalyzeSystem(task string) string {
	if task == "" {
		task = DefaultTask
	}
	return fmt.Sprintf(analyzeSystem, task, AnalysisOutputLimit)
}
