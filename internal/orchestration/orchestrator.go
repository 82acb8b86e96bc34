// Package orchestration runs the end-to-end QA pipeline over one
// conversation trace: trajectory inspection, judgment, prompt rewriting,
// and memory update.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentqa/mentor/internal/cache"
	"github.com/agentqa/mentor/internal/inspector"
	"github.com/agentqa/mentor/internal/judge"
	"github.com/agentqa/mentor/internal/memory"
	"github.com/agentqa/mentor/internal/models"
	"github.com/agentqa/mentor/internal/oracle"
	"github.com/agentqa/mentor/internal/rewriter"
	"github.com/agentqa/mentor/internal/session"
)

const (
	defaultAgentName    = "unknown_agent"
	noSystemPromptStub  = "No system prompt provided."
	fallbackSnippetMax  = 5
	helpfulSnippetCount = 2
)

// Orchestrator wires the pipeline stages together. Stages run strictly in
// order with no retries; a judge or rewrite failure aborts the run and leaves
// memory untouched.
type Orchestrator struct {
	inspector *inspector.Inspector
	judge     *judge.Judge
	rewriter  *rewriter.Rewriter
	memory    *memory.Store
	sessionID string
	logger    *slog.Logger
	events    session.Logger
	judgeOpts []judge.Option
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSessionID groups all memory entries written by this orchestrator under
// one session, overriding anything found in trace metadata.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) { o.sessionID = id }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithSessionLogger records pipeline stage events to the given session log.
func WithSessionLogger(events session.Logger) Option {
	return func(o *Orchestrator) { o.events = events }
}

// WithVerdictCache lets judge verdicts persist across processes.
func WithVerdictCache(c *cache.Cache) Option {
	return func(o *Orchestrator) {
		o.judgeOpts = append(o.judgeOpts, judge.WithVerdictCache(c))
	}
}

// New builds an orchestrator around an oracle client and a memory store.
func New(client oracle.Client, store *memory.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		inspector: &inspector.Inspector{},
		memory:    store,
		logger:    slog.Default(),
		events:    session.NopLogger{},
	}
	o.rewriter = rewriter.New(client, rewriter.WithMemory(store))
	for _, opt := range opts {
		opt(o)
	}
	o.judge = judge.New(client, o.judgeOpts...)
	return o
}

// RunAnalysis executes the full QA pipeline over one trace and composes the
// report.
func (o *Orchestrator) RunAnalysis(ctx context.Context, trace *models.ConversationTrace) (models.QaReport, error) {
	start := time.Now()
	agentName := trace.MetaString(models.MetaAgentName, defaultAgentName)

	o.logEvent(session.EventPipelineStart,
		session.PipelineStartData(trace.ConversationID, agentName, len(trace.Events)))

	trajectory := o.inspector.Analyze(trace)
	o.logger.Debug("trajectory inspected",
		"conversation_id", trace.ConversationID, "issues", len(trajectory.Issues))
	o.logStage("inspect", map[string]any{"issue_count": len(trajectory.Issues)})

	judgment, err := o.judge.Judge(ctx, trace, trajectory)
	if err != nil {
		o.logEvent(session.EventError, session.ErrorData("judge", err.Error()))
		return models.QaReport{}, fmt.Errorf("judging conversation %s: %w", trace.ConversationID, err)
	}
	o.logStage("judge", map[string]any{"issues": len(judgment.Issues)})

	trajectory = filterMissingTermsFalsePositives(trajectory, judgment)

	originalPrompt := trace.SystemPrompt(noSystemPromptStub)

	// Retrieval is by issue code, session-agnostic. Entries are still written
	// with a session id below so runs can be grouped afterwards.
	snippets := o.memory.SnippetsForIssues(judgment.Issues)
	if len(snippets) == 0 {
		snippets = o.memory.Snippets(fallbackSnippetMax)
	}
	o.logStage("load_memory", map[string]any{"snippet_count": len(snippets)})

	improvement, err := o.rewriter.Rewrite(ctx, originalPrompt, judgment, snippets)
	if err != nil {
		o.logEvent(session.EventError, session.ErrorData("rewrite", err.Error()))
		return models.QaReport{}, fmt.Errorf("rewriting prompt for %s: %w", trace.ConversationID, err)
	}
	o.logStage("rewrite", nil)

	helpful := extractHelpfulSnippets(improvement.ImprovedPrompt)

	sessionID := o.sessionID
	if sessionID == "" {
		sessionID = trace.MetaString(models.MetaSessionID, trace.ConversationID)
	}

	if err := o.memory.AddAnalysis(ctx, agentName, judgment.Issues, helpful, sessionID); err != nil {
		o.logEvent(session.EventError, session.ErrorData("update_memory", err.Error()))
		return models.QaReport{}, fmt.Errorf("updating memory for %s: %w", trace.ConversationID, err)
	}
	o.logStage("update_memory", map[string]any{"snippets_stored": len(helpful)})

	overall := models.OverallScore(judgment.Scores)

	o.logEvent(session.EventPipelineComplete,
		session.PipelineCompleteData(trace.ConversationID, len(judgment.Issues), overall,
			time.Since(start).Milliseconds()))

	return models.QaReport{
		Trajectory:        trajectory,
		Judgment:          judgment,
		PromptImprovement: improvement,
		OverallScore:      overall,
	}, nil
}

// filterMissingTermsFalsePositives drops MISSING_KEY_TERMS findings when the
// judge scored the run as fully successful and correct. The keyword heuristic
// is noisy; a perfect verdict outranks it.
func filterMissingTermsFalsePositives(trajectory models.TrajectoryAnalysis, judgment models.JudgeResult) models.TrajectoryAnalysis {
	if judgment.Scores.TaskSuccess != 5 || judgment.Scores.Correctness != 5 {
		return trajectory
	}
	var kept []models.TrajectoryIssue
	for _, issue := range trajectory.Issues {
		if issue.Code != models.IssueMissingKeyTerms {
			kept = append(kept, issue)
		}
	}
	trajectory.Issues = kept
	return trajectory
}

func (o *Orchestrator) logStage(stage string, detail map[string]any) {
	o.logEvent(session.EventStageComplete, session.StageCompleteData(stage, detail))
}

func (o *Orchestrator) logEvent(t session.EventType, data map[string]any) {
	if err := o.events.Log(session.NewEvent(t, data)); err != nil {
		o.logger.Warn("session log write failed", "error", err)
	}
}
