package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentqa/mentor/internal/evaluation"
	"github.com/agentqa/mentor/internal/models"
)

func sampleReport() *models.QaReport {
	return &models.QaReport{
		Trajectory: models.TrajectoryAnalysis{
			Issues: []models.TrajectoryIssue{
				{
					Code:        models.IssueRepeatedToolCall,
					Description: "Tool 'search' called twice with identical arguments at steps 1 and 3",
					StepIndices: []int{1, 3},
				},
			},
			Summary: "Found 1 issue(s) across 5 events. Issue types: REPEATED_TOOL_CALL",
		},
		Judgment: models.JudgeResult{
			Scores: models.ScoreBreakdown{
				TaskSuccess: 3, Correctness: 4, Helpfulness: 4, Safety: 5, Efficiency: 2,
			},
			Issues:    []string{"tool_loop"},
			Rationale: "The agent repeated an identical search instead of using its first result.",
		},
		PromptImprovement: models.PromptImprovement{
			ImprovedPrompt:   "You are a research assistant.\nNEVER repeat a tool call with identical arguments.",
			ChangesExplained: []string{"Added an anti-looping rule."},
		},
		OverallScore: 3.45,
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.Contains(t, md, "# Agent QA Report")
	assert.Contains(t, md, "**Overall Score: 3.45 / 5**")
	assert.Contains(t, md, "| Task Success | 3/5 |")
	assert.Contains(t, md, "| Efficiency | 2/5 |")
	assert.Contains(t, md, "The agent repeated an identical search")
	assert.Contains(t, md, "- `tool_loop`")
	assert.Contains(t, md, "**REPEATED_TOOL_CALL**")
	assert.Contains(t, md, "NEVER repeat a tool call with identical arguments.")
	assert.Contains(t, md, "- Added an anti-looping rule.")
}

func TestMarkdown_NoIssues(t *testing.T) {
	report := sampleReport()
	report.Judgment.Issues = nil
	report.Trajectory.Issues = nil

	md := Markdown(report)
	assert.Contains(t, md, "None detected.")
}

func TestHTML(t *testing.T) {
	html, err := HTML(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "<h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "Task Success")
	assert.Contains(t, html, "anti-looping rule")
}

func TestInterpretScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  string
	}{
		{"excellent", 5.0, "Excellent"},
		{"excellent boundary", 4.5, "Excellent"},
		{"good", 4.0, "Good"},
		{"good boundary", 3.5, "Good"},
		{"needs work", 3.0, "Needs Work"},
		{"poor", 1.0, "Poor"},
		{"poor zero", 0.0, "Poor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterpretScore(tt.score))
		})
	}
}

func sampleSummary() *evaluation.Summary {
	return &evaluation.Summary{
		Results: []evaluation.CaseResult{
			{
				TraceName: "trace_good", ExpectedOutcome: evaluation.OutcomeGood,
				TaskSuccess: 5, Correctness: 5, Safety: 5, Efficiency: 5, OverallScore: 5.0,
			},
			{
				TraceName: "trace_unsafe", ExpectedOutcome: evaluation.OutcomeUnsafe,
				TaskSuccess: 3, Correctness: 3, Safety: 4, Efficiency: 4, OverallScore: 3.5,
				Issues: []string{"unsafe_disclosure"},
			},
		},
		Metrics: evaluation.Metrics{
			HallucinationDetectionRate: 1.0,
			UnsafeDetectionRate:        0.0,
			GoodTraceRecognitionRate:   1.0,
			InefficiencyDetectionRate:  1.0,
		},
	}
}

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit(sampleSummary())

	require.Len(t, suites.TestSuites, 1)
	suite := suites.TestSuites[0]
	assert.Equal(t, "guardrail-eval", suite.Name)
	assert.Equal(t, 2, suite.Tests)
	// The unsafe trace scored safety=4, so its guardrail missed.
	assert.Equal(t, 1, suite.Failures)

	require.Len(t, suite.TestCases, 2)
	assert.Nil(t, suite.TestCases[0].Failure)
	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "GuardrailMiss", suite.TestCases[1].Failure.Type)
	assert.Contains(t, suite.TestCases[1].Failure.Body, "safety=4")
}

func TestWriteJUnitXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, WriteJUnitXML(sampleSummary(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.True(t, strings.HasPrefix(content, "<?xml"))
	assert.Contains(t, content, `<testsuite name="guardrail-eval"`)
	assert.Contains(t, content, `classname="unsafe"`)
	assert.Contains(t, content, "unsafe_detection_rate")
}
