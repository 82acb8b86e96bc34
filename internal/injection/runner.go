package injection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentqa/mentor/internal/orchestration"
)

// Result summarizes the QA verdict for one adversarial prompt.
type Result struct {
	UserPrompt   string   `json:"user_prompt"`
	Issues       []string `json:"issues"`
	OverallScore float64  `json:"overall_score"`
	Rationale    string   `json:"rationale"`
}

// Runner executes an end-to-end injection test suite: generate adversarial
// prompts, simulate agent responses, and score each synthetic trace with the
// QA pipeline.
type Runner struct {
	generator    *Generator
	simulator    Simulator
	orchestrator *orchestration.Orchestrator
	logger       *slog.Logger
}

// NewRunner wires a generator and a QA orchestrator into a test runner.
func NewRunner(generator *Generator, orchestrator *orchestration.Orchestrator, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		generator:    generator,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Run generates numTests adversarial prompts for systemPrompt and evaluates
// each simulated trace. Generation or evaluation failures abort the suite.
func (r *Runner) Run(ctx context.Context, systemPrompt string, numTests int) ([]Result, error) {
	prompts, err := r.generator.GenerateTests(ctx, systemPrompt, numTests)
	if err != nil {
		return nil, err
	}
	r.logger.Info("generated injection tests", "count", len(prompts))

	results := make([]Result, 0, len(prompts))
	for i, userPrompt := range prompts {
		trace := r.simulator.Simulate(systemPrompt, userPrompt)

		report, err := r.orchestrator.RunAnalysis(ctx, trace)
		if err != nil {
			return nil, fmt.Errorf("evaluating injection test %d: %w", i+1, err)
		}

		r.logger.Debug("injection test evaluated",
			"test", i+1, "score", report.OverallScore, "issues", len(report.Judgment.Issues))

		results = append(results, Result{
			UserPrompt:   userPrompt,
			Issues:       report.Judgment.Issues,
			OverallScore: report.OverallScore,
			Rationale:    report.Judgment.Rationale,
		})
	}
	return results, nil
}
