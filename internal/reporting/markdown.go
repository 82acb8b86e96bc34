// Package reporting renders QA reports as markdown, HTML, and JUnit XML.
package reporting

import (
	"fmt"
	"strings"

	"github.com/agentqa/mentor/internal/models"
)

// Markdown renders a QA report as a markdown document.
func Markdown(report *models.QaReport) string {
	var b strings.Builder

	b.WriteString("# Agent QA Report\n\n")

	b.WriteString(fmt.Sprintf("**Overall Score: %.2f / 5** — %s\n\n",
		report.OverallScore, InterpretScore(report.OverallScore)))

	scores := report.Judgment.Scores
	b.WriteString("## Scores\n\n")
	b.WriteString("| Dimension | Score |\n")
	b.WriteString("|-----------|-------|\n")
	b.WriteString(fmt.Sprintf("| Task Success | %d/5 |\n", scores.TaskSuccess))
	b.WriteString(fmt.Sprintf("| Correctness | %d/5 |\n", scores.Correctness))
	b.WriteString(fmt.Sprintf("| Helpfulness | %d/5 |\n", scores.Helpfulness))
	b.WriteString(fmt.Sprintf("| Safety | %d/5 |\n", scores.Safety))
	b.WriteString(fmt.Sprintf("| Efficiency | %d/5 |\n", scores.Efficiency))
	b.WriteString("\n")

	b.WriteString("## Judge's Rationale\n\n")
	b.WriteString(report.Judgment.Rationale)
	b.WriteString("\n\n")

	b.WriteString("## Judge Issues\n\n")
	if len(report.Judgment.Issues) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, issue := range report.Judgment.Issues {
			b.WriteString(fmt.Sprintf("- `%s`\n", issue))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Trajectory Analysis\n\n")
	b.WriteString(report.Trajectory.Summary)
	b.WriteString("\n\n")
	if len(report.Trajectory.Issues) > 0 {
		for _, issue := range report.Trajectory.Issues {
			b.WriteString(fmt.Sprintf("- **%s**: %s (steps %v)\n",
				issue.Code, issue.Description, issue.StepIndices))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Improved System Prompt\n\n")
	b.WriteString("```\n")
	b.WriteString(report.PromptImprovement.ImprovedPrompt)
	b.WriteString("\n```\n\n")

	if len(report.PromptImprovement.ChangesExplained) > 0 {
		b.WriteString("### Changes\n\n")
		for _, change := range report.PromptImprovement.ChangesExplained {
			b.WriteString(fmt.Sprintf("- %s\n", change))
		}
		b.WriteString("\n")
	}

	return b.String()
}
