// Package inspector implements the rule-based trajectory analyzer. It scans a
// recorded conversation trace for structural defects (repeated tool calls,
// empty tool arguments, answers that drop the user's key terms) without any
// external calls or state.
package inspector

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/agentqa/mentor/internal/models"
)

// Inspector analyzes conversation traces to detect trajectory issues.
// Analyze is a pure function of the trace; a zero Inspector is ready to use.
type Inspector struct{}

// \w is ASCII-only in RE2, so non-ASCII key terms are never tokenized.
var wordPattern = regexp.MustCompile(`\w+`)

// Short English function words stripped before key-term comparison.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "can": {}, "what": {}, "where": {},
	"when": {}, "who": {}, "why": {}, "how": {}, "which": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "it": {}, "its": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "and": {}, "or": {}, "but": {}, "if": {}, "then": {},
}

// minMissingTerms and minAnswerLength gate the MISSING_KEY_TERMS detector.
// Both thresholds are load-bearing: golden traces depend on them exactly.
const (
	minMissingTerms = 2
	minAnswerLength = 40
)

// Analyze runs all detectors over the trace and returns the combined
// trajectory analysis. Detector outputs are concatenated in a fixed order:
// repeated-call issues, then empty-args issues, then the missing-key-terms
// issue, each preserving its own emission order.
func (Inspector) Analyze(trace *models.ConversationTrace) models.TrajectoryAnalysis {
	events := trace.Events

	var issues []models.TrajectoryIssue
	issues = append(issues, detectRepeatedToolCalls(events)...)
	issues = append(issues, detectEmptyToolArgs(events)...)
	issues = append(issues, detectMissingKeyTerms(events)...)

	return models.TrajectoryAnalysis{
		OrderedEvents: events,
		Issues:        issues,
		Summary:       summarize(len(events), issues),
	}
}

// callSignature normalizes a tool call into a comparable key. Argument values
// are stringified so that maps with arbitrary value types compare structurally
// regardless of key order.
func callSignature(toolName string, args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(toolName)
	for _, k := range keys {
		fmt.Fprintf(&sb, "\x00%s=%v", k, args[k])
	}
	return sb.String()
}

// detectRepeatedToolCalls flags tool calls whose name and arguments exactly
// repeat an earlier call. Each repeat pairs with the first earlier match found
// in scan order and stops there, so a third identical call produces one more
// issue rather than a pair for every prior duplicate. That pairing policy is
// relied on downstream; do not report all pairs.
func detectRepeatedToolCalls(events []models.TraceEvent) []models.TrajectoryIssue {
	var issues []models.TrajectoryIssue

	type seenCall struct {
		index     int
		signature string
	}
	var seen []seenCall

	for idx, ev := range events {
		if ev.Role != models.RoleToolCall || ev.ToolName == "" || len(ev.Args) == 0 {
			continue
		}

		sig := callSignature(ev.ToolName, ev.Args)
		for _, prev := range seen {
			if prev.signature == sig {
				issues = append(issues, models.TrajectoryIssue{
					Code: models.IssueRepeatedToolCall,
					Description: fmt.Sprintf(
						"Tool '%s' called twice with identical arguments at steps %d and %d",
						ev.ToolName, prev.index, idx),
					StepIndices: []int{prev.index, idx},
				})
				break
			}
		}
		seen = append(seen, seenCall{index: idx, signature: sig})
	}

	return issues
}

// detectEmptyToolArgs flags every tool call with nil or empty arguments. This
// runs independently of repeat detection; a call can trigger both.
func detectEmptyToolArgs(events []models.TraceEvent) []models.TrajectoryIssue {
	var issues []models.TrajectoryIssue

	for idx, ev := range events {
		if ev.Role != models.RoleToolCall || len(ev.Args) > 0 {
			continue
		}

		name := ev.ToolName
		if name == "" {
			name = "unknown"
		}
		issues = append(issues, models.TrajectoryIssue{
			Code: models.IssueEmptyToolArgs,
			Description: fmt.Sprintf(
				"Tool '%s' called with empty or missing arguments at step %d",
				name, idx),
			StepIndices: []int{idx},
		})
	}

	return issues
}

// detectMissingKeyTerms compares the last user message against the last
// assistant message and flags the answer when it drops two or more of the
// user's key terms. Skipped when no assistant event follows the last user
// event, or when either side lacks text content.
func detectMissingKeyTerms(events []models.TraceEvent) []models.TrajectoryIssue {
	userIdx, asstIdx := -1, -1
	for idx, ev := range events {
		switch ev.Role {
		case models.RoleUser:
			userIdx = idx
		case models.RoleAssistant:
			asstIdx = idx
		}
	}

	if userIdx < 0 || asstIdx < 0 || asstIdx < userIdx {
		return nil
	}

	userText := strings.ToLower(events[userIdx].Content)
	asstText := strings.ToLower(events[asstIdx].Content)
	if userText == "" || asstText == "" {
		return nil
	}

	userTerms := keyTermSet(userText)
	asstTerms := keyTermSet(asstText)

	var missing []string
	for term := range userTerms {
		if _, ok := asstTerms[term]; !ok {
			missing = append(missing, term)
		}
	}
	sort.Strings(missing)

	if len(missing) < minMissingTerms || len(asstText) <= minAnswerLength {
		return nil
	}

	return []models.TrajectoryIssue{{
		Code: models.IssueMissingKeyTerms,
		Description: fmt.Sprintf(
			"Final answer at step %d is missing key terms from last user query: %s",
			asstIdx, strings.Join(missing, ", ")),
		StepIndices: []int{asstIdx},
	}}
}

// keyTermSet tokenizes lowercased text into word-boundary alphanumeric runs
// and drops stopwords and tokens of length <= 2.
func keyTermSet(text string) map[string]struct{} {
	terms := map[string]struct{}{}
	for _, tok := range wordPattern.FindAllString(text, -1) {
		if len(tok) <= 2 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		terms[tok] = struct{}{}
	}
	return terms
}

func summarize(totalEvents int, issues []models.TrajectoryIssue) string {
	if len(issues) == 0 {
		return fmt.Sprintf("Trajectory analysis completed. Found no issues in %d events.", totalEvents)
	}

	distinct := map[string]struct{}{}
	var codes []string
	for _, issue := range issues {
		if _, ok := distinct[issue.Code]; !ok {
			distinct[issue.Code] = struct{}{}
			codes = append(codes, issue.Code)
		}
	}

	return fmt.Sprintf(
		"Trajectory analysis completed. Found %d issue(s) across %d events. Issue types: %s",
		len(issues), totalEvents, strings.Join(codes, ", "))
}
