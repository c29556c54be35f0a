package services

import (
	"fmt"
	"strings"

	"clarityhub/internal/models"
)

// personaPreamble is prefixed to every prompt. Content policy: professional
// register, no emoji, no colloquialisms.
const personaPreamble = `You are a specialized Requirements Engineering Assistant for ClarityHub.
Your tone is strictly professional, corporate, and technical.
Do NOT use emojis or colloquial language in your output.
Focus on clarity, brevity, and technical accuracy.`

const conservativeEstimationRules = `ESTIMATION RULES (CONSERVATIVE):
- Use Fibonacci sequence (1, 2, 3, 5, 8, 13).
- Be strict and conservative. Scope for an MVP. Do not inflate estimates.
- 1 SP: Trivial text change, config change, or very simple function.
- 2 SP: Simple CRUD operation or UI component without complex logic.
- 3 SP: Standard feature with moderate logic.
- 5 SP: Complex feature involving multiple components or tricky integration.
- 8 SP: Very complex module (consider breaking down if possible).`

const detailedEstimationRules = `ESTIMATION RULES (PRODUCTION-READY):
- Use Fibonacci sequence (1, 2, 3, 5, 8, 13).
- Estimate for a production-ready implementation: include hardening, error handling, observability, and edge cases.
- Break the work down exhaustively rather than collapsing it into large tasks.
- 1 SP: Trivial text change, config change, or very simple function.
- 2 SP: Simple CRUD operation or UI component without complex logic.
- 3 SP: Standard feature with moderate logic.
- 5 SP: Complex feature involving multiple components or tricky integration.
- 8 SP: Very complex module (consider breaking down if possible).`

const cardSchemaDescription = `Return a JSON object with this exact structure:
{
  "description": "Professional technical description of the task (string)",
  "acceptanceCriteria": ["criterion 1", "criterion 2", ...] (array of strings),
  "subtasks": [
    {
      "title": "task title (string)",
      "type": "Backend|Frontend|Testing|DevOps|Docs (string)",
      "storyPoints": 1|2|3|5|8|13 (Fibonacci number)
    }
  ],
  "totalStoryPoints": sum of all subtask story points (number),
  "justification": "Technical justification for the estimate (string)",
  "labels": ["label1", "label2", ...] (array of strings),
  "risks": ["risk1", "risk2", ...] (array of strings)
}`

// DocumentContext carries the extracted (or best-effort) text of one
// attached document for inlining into the summary prompt.
type DocumentContext struct {
	Name string
	Text string
}

func ideasBlock(ideas []models.Idea) string {
	var b strings.Builder
	for _, idea := range ideas {
		b.WriteString("- " + idea.Content + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func nfrsBlock(nfrs []models.NFR) string {
	var b strings.Builder
	for _, nfr := range nfrs {
		fmt.Fprintf(&b, "- [%s - %s Priority] %s: %s\n", nfr.Category, nfr.ImpactLevel, nfr.Title, nfr.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func scopeDirective(label string, required bool, kind string) string {
	if required {
		return fmt.Sprintf("- %s: REQUIRED", label)
	}
	return fmt.Sprintf("- %s: EXCLUDED (Do not generate %s tasks)", label, kind)
}

// SummaryPrompt renders the instruction for the summarize-ideas operation.
// Extracted document text is inlined; remaining attachments are listed by
// name so the model knows the full context it was given.
func SummaryPrompt(ideas []models.Idea, docs []DocumentContext, files []models.Attachment) string {
	var b strings.Builder
	b.WriteString(personaPreamble)
	b.WriteString(`

You are acting as a Product Engineering Architect.
Analyze the provided context, which includes brainstormed text notes and attached files.

Group these concepts into professional Epics or Modules.
Identify functional requirements and potential technical challenges.

Return a clean Markdown report. Do not use emojis.

Brainstormed Notes:
`)
	b.WriteString(ideasBlock(ideas))

	for _, doc := range docs {
		fmt.Fprintf(&b, "\n\nContent of attached document %q:\n%s", doc.Name, doc.Text)
	}

	if len(files) > 0 {
		fmt.Fprintf(&b, "\n\nAttached Files (%d):\n", len(files))
		for _, file := range files {
			fmt.Fprintf(&b, "- %s (%s)\n", file.Name, file.MimeType)
		}
	}

	return b.String()
}

// RiskPrompt renders the instruction for the analyze-risks operation
func RiskPrompt(nfrs []models.NFR) string {
	return personaPreamble + `

Analyze these Non-Functional Requirements. Return a strictly professional Markdown report identifying conflicts and technical risks. Do not use emojis. Use standard bullet points.

` + nfrsBlock(nfrs)
}

// CardPrompt renders the instruction for the generate-card operation
func CardPrompt(title string, ideas []models.Idea, nfrs []models.NFR, options models.GenerationOptions) string {
	scope := strings.Join([]string{
		scopeDirective("Backend Development", options.IncludeBackend, "backend"),
		scopeDirective("Frontend Development", options.IncludeFrontend, "frontend"),
		scopeDirective("Testing/QA", options.IncludeTesting, "testing"),
		scopeDirective("Documentation", options.IncludeDocs, "doc"),
	}, "\n")

	estimation := conservativeEstimationRules
	if options.DetailedEstimation {
		estimation = detailedEstimationRules
	}

	return fmt.Sprintf(`%s

You are acting as a Senior Technical Product Manager.
Create a detailed technical specification for a Jira issue titled: %q.

SCOPE OF WORK:
%s

%s

Context:
%s

Technical Constraints:
%s

%s

Output strictly structured JSON with no markdown formatting, no code fences, and no explanations. Use professional, corporate technical language. Do not use emojis.`,
		personaPreamble, title, scope, estimation, ideasBlock(ideas), nfrsBlock(nfrs), cardSchemaDescription)
}

// NFRsPrompt renders the instruction for the generate-NFRs-from-summary
// operation. The sequential "NFR-N:" numbering is requested here and
// re-applied after decoding since model compliance is not guaranteed.
func NFRsPrompt(summary string, ideas []models.Idea) string {
	return fmt.Sprintf(`%s

Derive the non-functional requirements implied by the following project summary and notes.

Project Summary:
%s

Brainstormed Notes:
%s

Return a JSON object with this exact structure:
{
  "nfrs": [
    {
      "category": "Security|Performance|Scalability|Accessibility|Privacy|Reliability|Storage|Infrastructure (string)",
      "title": "requirement title (string)",
      "description": "requirement description (string)",
      "impactLevel": "Low|Medium|High (string)"
    }
  ]
}

Number each title sequentially with the prefix "NFR-1:", "NFR-2:", and so on.
Output strictly structured JSON with no markdown formatting, no code fences, and no explanations. Do not use emojis.`,
		personaPreamble, summary, ideasBlock(ideas))
}

// CardsPrompt renders the instruction for the generate-cards-from-summary
// operation
func CardsPrompt(summary string, ideas []models.Idea, nfrs []models.NFR) string {
	return fmt.Sprintf(`%s

Derive a backlog of work items from the following project summary, notes, and technical constraints.

Project Summary:
%s

Brainstormed Notes:
%s

Technical Constraints:
%s

Return a JSON object with this exact structure:
{
  "cards": [
    {
      "title": "work item title (string)",
      "description": "professional technical description (string)"
    }
  ]
}

Number each title sequentially with the prefix "1.", "2.", and so on.
Output strictly structured JSON with no markdown formatting, no code fences, and no explanations. Do not use emojis.`,
		personaPreamble, summary, ideasBlock(ideas), nfrsBlock(nfrs))
}
