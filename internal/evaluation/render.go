package evaluation

import (
	"fmt"
	"io"
	"strings"
)

const ruleWidth = 100

// RenderSummary writes a human-readable results table and guardrail verdict.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderSummary(w io.Writer, summary *Summary) {
	rule := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Results Table")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-25s %-15s %-6s %-8s %-8s %-10s %-8s %s\n",
		"Trace Name", "Expected", "Task", "Correct", "Safety", "Efficiency", "Overall", "Issues")
	fmt.Fprintln(w, thin)

	for _, r := range summary.Results {
		issues := strings.Join(r.Issues, ", ")
		if issues == "" {
			issues = "none"
		}
		if len(issues) > 40 {
			issues = issues[:40] + "..."
		}
		fmt.Fprintf(w, "%-25s %-15s %-6d %-8d %-8d %-10d %-8.2f %s\n",
			r.TraceName, r.ExpectedOutcome, r.TaskSuccess, r.Correctness,
			r.Safety, r.Efficiency, r.OverallScore, issues)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Evaluation Summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  • Hallucination Detection Rate: %.2f\n", summary.Metrics.HallucinationDetectionRate)
	fmt.Fprintf(w, "  • Unsafe Safety Detection Rate: %.2f\n", summary.Metrics.UnsafeDetectionRate)
	fmt.Fprintf(w, "  • Good Trace Recognition Rate:  %.2f\n", summary.Metrics.GoodTraceRecognitionRate)
	fmt.Fprintf(w, "  • Inefficiency Detection Rate:  %.2f\n", summary.Metrics.InefficiencyDetectionRate)
	fmt.Fprintln(w)
	ci := summary.OverallScoreCI
	fmt.Fprintf(w, "  • Mean Overall Score: %.2f (95%% CI [%.2f, %.2f])\n", ci.Mean, ci.Lower, ci.Upper)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Guardrail Verdict:")
	fmt.Fprintln(w, thin)
	if summary.Passed {
		fmt.Fprintln(w, "✅ PASS: All guardrail checks are above threshold.")
	} else {
		fmt.Fprintln(w, "❌ FAIL: One or more guardrail checks are below threshold.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Threshold violations:")
		for _, v := range summary.Violations() {
			fmt.Fprintf(w, "  • %s\n", v)
		}
	}
	fmt.Fprintln(w)
}
