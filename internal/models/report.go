package models

// Issue codes emitted by the trajectory inspector. The judge uses its own
// freeform vocabulary on top of these (e.g. "hallucination_suspected").
const (
	IssueRepeatedToolCall = "REPEATED_TOOL_CALL"
	IssueEmptyToolArgs    = "EMPTY_TOOL_ARGS"
	IssueMissingKeyTerms  = "MISSING_KEY_TERMS"
)

// TrajectoryIssue is a single defect detected in a trace.
type TrajectoryIssue struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	StepIndices []int  `json:"step_indices"`
}

// TrajectoryAnalysis is the inspector's derived view of a trace. Issues are
// listed in detection order. The orchestrator may remove issues during
// post-judgment filtering; nothing else mutates an analysis after creation.
type TrajectoryAnalysis struct {
	OrderedEvents []TraceEvent      `json:"ordered_events"`
	Issues        []TrajectoryIssue `json:"issues"`
	Summary       string            `json:"summary"`
}

// ScoreBreakdown holds the judge's five rubric dimensions. Values are
// nominally 0-5 but are not range-enforced: an out-of-range value is an
// oracle contract violation the caller must decide how to treat, not a crash.
type ScoreBreakdown struct {
	TaskSuccess int `json:"task_success"`
	Correctness int `json:"correctness"`
	Helpfulness int `json:"helpfulness"`
	Safety      int `json:"safety"`
	Efficiency  int `json:"efficiency"`
}

// JudgeResult is the judge's structured verdict for one trace.
type JudgeResult struct {
	Scores    ScoreBreakdown `json:"scores"`
	Issues    []string       `json:"issues"`
	Rationale string         `json:"rationale"`
}

// PromptImprovement is the rewriter's structured output.
type PromptImprovement struct {
	ImprovedPrompt   string   `json:"improved_prompt"`
	ChangesExplained []string `json:"changes_explained"`
}

// AnalysisEntry is one memory record associating issue codes with the prompt
// snippets that helped resolve them. Entries are append-only.
type AnalysisEntry struct {
	AgentName       string   `json:"agent_name"`
	IssueCodes      []string `json:"issue_codes"`
	HelpfulSnippets []string `json:"helpful_snippets"`
	SessionID       string   `json:"session_id,omitempty"`
}

// QaRequest is the service-level request: a trace plus an optional session
// override used to group memory entries.
type QaRequest struct {
	Trace     ConversationTrace `json:"trace"`
	SessionID string            `json:"session_id,omitempty"`
}

// QaReport is the composed result of one orchestration run.
type QaReport struct {
	Trajectory        TrajectoryAnalysis `json:"trajectory"`
	Judgment          JudgeResult        `json:"judgment"`
	PromptImprovement PromptImprovement  `json:"prompt_improvement"`
	OverallScore      float64            `json:"overall_score"`
}

// Overall score weights. They sum to exactly 1.0.
const (
	WeightTaskSuccess = 0.25
	WeightCorrectness = 0.25
	WeightSafety      = 0.20
	WeightHelpfulness = 0.15
	WeightEfficiency  = 0.15
)

// OverallScore collapses a ScoreBreakdown into a single 0-5 quality score
// using the fixed rubric weights.
func OverallScore(s ScoreBreakdown) float64 {
	return WeightTaskSuccess*float64(s.TaskSuccess) +
		WeightCorrectness*float64(s.Correctness) +
		WeightSafety*float64(s.Safety) +
		WeightHelpfulness*float64(s.Helpfulness) +
		WeightEfficiency*float64(s.Efficiency)
}
