package orchestration

import "strings"

// Lines containing any of these markers are treated as strong behavioral
// rules worth remembering.
var strongRuleKeywords = []string{
	"must",
	"never",
	"refuse",
	"safety",
	"must not",
	"do not",
	"always",
	"required",
	"avoid",
	"ignore",
	"don't know",
}

const (
	minSnippetLength = 20
	maxSnippetLength = 200
)

// extractHelpfulSnippets picks up to two short lines from the improved prompt
// that state strong rules, preserving prompt order. When fewer than two rule
// lines exist, the first other lines of qualifying length fill the remainder.
func extractHelpfulSnippets(improvedPrompt string) []string {
	lines := strings.Split(improvedPrompt, "\n")

	var snippets []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !qualifyingLength(line) {
			continue
		}
		lower := strings.ToLower(line)
		for _, keyword := range strongRuleKeywords {
			if strings.Contains(lower, keyword) {
				snippets = append(snippets, line)
				break
			}
		}
		if len(snippets) >= helpfulSnippetCount {
			return snippets
		}
	}

	for _, line := range lines {
		if len(snippets) >= helpfulSnippetCount {
			break
		}
		line = strings.TrimSpace(line)
		if !qualifyingLength(line) || contains(snippets, line) {
			continue
		}
		snippets = append(snippets, line)
	}

	return snippets
}

func qualifyingLength(line string) bool {
	return len(line) >= minSnippetLength && len(line) <= maxSnippetLength
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
