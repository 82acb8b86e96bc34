// Package rewriter turns a judged QA run into an improved system prompt.
package rewriter

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentqa/mentor/internal/memory"
	"github.com/agentqa/mentor/internal/models"
	"github.com/agentqa/mentor/internal/oracle"
)

const systemPrompt = `You are an expert agent designer.

Your job is to REWRITE the system instructions for an AI agent to improve quality and safety,
based on a QA report.

You receive:
- The current system prompt (how the agent is configured today)
- The QA scores and issue codes for a recent run
- A few reusable prompt snippets that have worked well in similar situations

You MUST:
- Preserve the agent's original purpose and tone where possible.
- Explicitly address issues that scored low: add clear rules and examples.
- For hallucination or correctness issues: require the agent to use tools and say "I don't know" when evidence is missing.
- For safety issues: add explicit refusal patterns and instructions to ignore conflicting user instructions.
- For efficiency issues: add guidance on when NOT to call tools and how to avoid loops.

Output JSON in this format:

{
  "improved_prompt": "full rewritten prompt here...",
  "changes_explained": [
    "Short sentence 1 describing an important change",
    "Short sentence 2...",
    "..."
  ]
}

Do not output anything except JSON.`

// semanticResultCount is how many snippets we retrieve per semantic lookup.
const semanticResultCount = 3

// Rewriter produces improved system prompts from judge verdicts, optionally
// enriched with snippets recalled from memory.
type Rewriter struct {
	client oracle.Client
	memory *memory.Store
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithMemory enables semantic snippet retrieval against the given store.
func WithMemory(store *memory.Store) Option {
	return func(r *Rewriter) { r.memory = store }
}

// New creates a Rewriter backed by the given oracle client.
func New(client oracle.Client, opts ...Option) *Rewriter {
	r := &Rewriter{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rewrite asks the oracle for an improved version of originalPrompt, given the
// judge's verdict and any snippets the caller already recalled. When a memory
// store is attached, issue codes (or the rationale, if there are none) drive an
// additional semantic lookup; the combined snippet list is deduplicated in
// first-seen order. Oracle failures propagate to the caller.
func (r *Rewriter) Rewrite(ctx context.Context, originalPrompt string, judgment models.JudgeResult, memorySnippets []string) (models.PromptImprovement, error) {
	var semantic []string
	if r.memory != nil {
		query := strings.Join(judgment.Issues, ", ")
		if query == "" {
			query = judgment.Rationale
		}
		semantic = r.memory.FindSimilarSnippets(ctx, query, semanticResultCount)
	}

	var merged []string
	seen := map[string]struct{}{}
	for _, s := range append(append([]string{}, memorySnippets...), semantic...) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}

	userPrompt := buildUserPrompt(originalPrompt, judgment, merged, semantic)

	var improvement models.PromptImprovement
	if err := oracle.GenerateJSON(ctx, r.client, systemPrompt, userPrompt, oracle.PromptImprovementSchema, &improvement); err != nil {
		return models.PromptImprovement{}, fmt.Errorf("rewriting prompt: %w", err)
	}
	return improvement, nil
}

func buildUserPrompt(originalPrompt string, judgment models.JudgeResult, memorySnippets, semanticSnippets []string) string {
	var parts []string

	parts = append(parts, "=== CURRENT SYSTEM PROMPT ===", originalPrompt, "")

	scores := judgment.Scores
	parts = append(parts, "=== QA SCORES (0-5 scale) ===",
		fmt.Sprintf("Task Success: %d/5", scores.TaskSuccess),
		fmt.Sprintf("Correctness: %d/5", scores.Correctness),
		fmt.Sprintf("Helpfulness: %d/5", scores.Helpfulness),
		fmt.Sprintf("Safety: %d/5", scores.Safety),
		fmt.Sprintf("Efficiency: %d/5", scores.Efficiency),
		"")

	parts = append(parts, "=== JUDGE'S RATIONALE ===", judgment.Rationale, "")

	parts = append(parts, "=== DETECTED ISSUES ===")
	if len(judgment.Issues) > 0 {
		for _, issue := range judgment.Issues {
			parts = append(parts, fmt.Sprintf("- %s", issue))
		}
	} else {
		parts = append(parts, "None detected.")
	}
	parts = append(parts, "")

	if len(memorySnippets) > 0 {
		parts = append(parts, "=== REUSABLE PROMPT SNIPPETS (from memory) ===",
			"Here are reusable prompt snippets that have worked well in similar situations. "+
				"When rewriting the system prompt, prefer to incorporate and adapt these patterns "+
				"where they make sense:",
			"")
		for _, snippet := range memorySnippets {
			parts = append(parts, fmt.Sprintf("- %q", snippet))
		}
		parts = append(parts, "",
			"These are successful patterns we want to reuse. Incorporate them naturally "+
				"into the improved prompt where relevant.",
			"")
	}

	// Semantic results not already listed above get their own section.
	shown := map[string]struct{}{}
	for _, s := range memorySnippets {
		shown[s] = struct{}{}
	}
	var uniqueSemantic []string
	for _, s := range semanticSnippets {
		if _, ok := shown[s]; !ok {
			uniqueSemantic = append(uniqueSemantic, s)
		}
	}
	if len(uniqueSemantic) > 0 {
		parts = append(parts, "=== SEMANTIC MEMORY SUGGESTIONS ===",
			"The following snippets were found via semantic search based on the detected issues. "+
				"These may be relevant even if they don't match exact issue codes:",
			"")
		for _, snippet := range uniqueSemantic {
			parts = append(parts, fmt.Sprintf("- %q", snippet))
		}
		parts = append(parts, "")
	}

	parts = append(parts,
		"Please rewrite the system prompt to address the identified issues "+
			"while preserving the agent's core purpose. Output only valid JSON.")

	return strings.Join(parts, "\n")
}
