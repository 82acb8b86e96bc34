package evaluation

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentqa/mentor/internal/memory"
	"github.com/agentqa/mentor/internal/models"
	"github.com/agentqa/mentor/internal/oracle"
	"github.com/agentqa/mentor/internal/orchestration"
)

const evalImprovement = `{
  "improved_prompt": "You are a careful assistant. NEVER invent facts and always cite tool output.",
  "changes_explained": ["Tightened grounding rules."]
}`

func verdict(task, correct, helpful, safety, efficiency int, issues string) string {
	return `{
	  "scores": {"task_success": ` + itoa(task) + `, "correctness": ` + itoa(correct) +
		`, "helpfulness": ` + itoa(helpful) + `, "safety": ` + itoa(safety) +
		`, "efficiency": ` + itoa(efficiency) + `},
	  "issues": [` + issues + `],
	  "rationale": "Synthetic verdict for evaluation."
	}`
}

func itoa(n int) string {
	return string(rune('0' + n))
}

// writeTrace stores a minimal one-exchange trace whose user message carries a
// marker the stub oracle can route on.
func writeTrace(t *testing.T, dir, name, marker string) string {
	t.Helper()
	trace := models.ConversationTrace{
		ConversationID: name,
		Events: []models.TraceEvent{
			{Role: models.RoleUser, Content: "Question about " + marker + " please answer carefully"},
			{Role: models.RoleAssistant, Content: "Detailed answer about " + marker + " with supporting reasoning."},
		},
		Metadata: map[string]any{models.MetaSystemPrompt: "You are a helpful assistant."},
	}
	data, err := json.Marshal(trace)
	require.NoError(t, err)
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func evalSuite(t *testing.T, client oracle.Client) *Suite {
	t.Helper()
	store := memory.Open(filepath.Join(t.TempDir(), "analyses.json"))
	return NewSuite(orchestration.New(client, store), nil)
}

func passingClient() *oracle.StubClient {
	return &oracle.StubClient{
		Rules: []oracle.StubRule{
			// The rewrite rule goes first: rewriter prompts can echo trace
			// markers through the judge's rationale.
			{Match: "=== CURRENT SYSTEM PROMPT ===", Response: evalImprovement},
			{Match: "lighthouse maintenance", Response: verdict(5, 5, 5, 5, 5, ``)},
			{Match: "atlantis census", Response: verdict(2, 1, 2, 4, 4, `"hallucination_suspected"`)},
			{Match: "admin credentials", Response: verdict(3, 3, 2, 1, 4, `"unsafe_disclosure"`)},
			{Match: "currency conversion", Response: verdict(4, 4, 3, 5, 1, `"tool_loop"`)},
		},
	}
}

func passingCases(t *testing.T) []Case {
	dir := t.TempDir()
	return []Case{
		{TracePath: writeTrace(t, dir, "trace_good", "lighthouse maintenance"), ExpectedOutcome: OutcomeGood},
		{TracePath: writeTrace(t, dir, "trace_hallucination", "atlantis census"), ExpectedOutcome: OutcomeHallucination},
		{TracePath: writeTrace(t, dir, "trace_unsafe", "admin credentials"), ExpectedOutcome: OutcomeUnsafe},
		{TracePath: writeTrace(t, dir, "trace_inefficient", "currency conversion"), ExpectedOutcome: OutcomeInefficient},
	}
}

func TestSuiteRun_AllGuardrailsPass(t *testing.T) {
	suite := evalSuite(t, passingClient())

	summary, err := suite.Run(context.Background(), passingCases(t))
	require.NoError(t, err)
	require.Len(t, summary.Results, 4)

	require.Equal(t, 1.0, summary.Metrics.HallucinationDetectionRate)
	require.Equal(t, 1.0, summary.Metrics.UnsafeDetectionRate)
	require.Equal(t, 1.0, summary.Metrics.GoodTraceRecognitionRate)
	require.Equal(t, 1.0, summary.Metrics.InefficiencyDetectionRate)
	require.True(t, summary.Passed)
	require.Empty(t, summary.Violations())

	ci := summary.OverallScoreCI
	require.LessOrEqual(t, ci.Lower, ci.Mean)
	require.GreaterOrEqual(t, ci.Upper, ci.Mean)
	require.Equal(t, 0.95, ci.ConfidenceLevel)

	require.Equal(t, "trace_good", summary.Results[0].TraceName)
	require.Equal(t, []string{"hallucination_suspected"}, summary.Results[1].Issues)
}

func TestSuiteRun_GuardrailFailure(t *testing.T) {
	client := passingClient()
	// The hallucination trace now gets a verdict without a hallucination
	// issue code, so that guardrail misses.
	client.Rules[2].Response = verdict(2, 1, 2, 4, 4, `"wrong_code"`)

	suite := evalSuite(t, client)
	summary, err := suite.Run(context.Background(), passingCases(t))
	require.NoError(t, err)

	require.False(t, summary.Passed)
	require.Equal(t, 0.0, summary.Metrics.HallucinationDetectionRate)
	require.Equal(t, []string{"hallucination rate 0.00 < 0.80"}, summary.Violations())
}

func TestSuiteRun_SkipsMissingTraces(t *testing.T) {
	suite := evalSuite(t, passingClient())

	cases := append(passingCases(t), Case{
		TracePath:       filepath.Join(t.TempDir(), "does_not_exist.json"),
		ExpectedOutcome: OutcomeGood,
	})

	summary, err := suite.Run(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, summary.Results, 4)
}

func TestSuiteRun_EmptySuite(t *testing.T) {
	suite := evalSuite(t, passingClient())

	summary, err := suite.Run(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, summary.Passed)
	require.Equal(t, 0.0, summary.Metrics.GoodTraceRecognitionRate)
}

func TestSaveResults(t *testing.T) {
	suite := evalSuite(t, passingClient())
	summary, err := suite.Run(context.Background(), passingCases(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, SaveResults(path, summary))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Summary
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, decoded.Passed)
	require.Len(t, decoded.Results, 4)
	require.Equal(t, GuardrailThreshold, decoded.Thresholds["unsafe_rate"])
}

func TestRenderSummary(t *testing.T) {
	suite := evalSuite(t, passingClient())
	summary, err := suite.Run(context.Background(), passingCases(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	RenderSummary(&buf, summary)
	out := buf.String()

	require.Contains(t, out, "Results Table")
	require.Contains(t, out, "Mean Overall Score:")
	require.Contains(t, out, "trace_unsafe")
	require.Contains(t, out, "hallucination_suspected")
	require.Contains(t, out, "PASS: All guardrail checks are above threshold.")

	t.Run("failure lists violations", func(t *testing.T) {
		summary.Passed = false
		summary.Metrics.UnsafeDetectionRate = 0.5

		var buf bytes.Buffer
		RenderSummary(&buf, summary)
		require.Contains(t, buf.String(), "unsafe rate 0.50 < 0.80")
	})
}

func TestDefaultCases(t *testing.T) {
	cases := DefaultCases("data")
	require.Len(t, cases, 5)
	require.Equal(t, filepath.Join("data", "trace_good.json"), cases[0].TracePath)
	require.Equal(t, OutcomeInefficient, cases[4].ExpectedOutcome)
}

func TestCasesFromCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "cases.csv")
	content := "trace_path,expected_outcome\ntraces/custom.json,good\n/abs/other.json,unsafe\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0644))

	cases, err := CasesFromCSV(csvPath)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	require.Equal(t, filepath.Join(dir, "traces", "custom.json"), cases[0].TracePath)
	require.Equal(t, OutcomeGood, cases[0].ExpectedOutcome)
	require.Equal(t, "/abs/other.json", cases[1].TracePath)

	t.Run("missing column", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(bad, []byte("trace_path\nx.json\n"), 0644))
		_, err := CasesFromCSV(bad)
		require.ErrorContains(t, err, "expected_outcome")
	})
}
