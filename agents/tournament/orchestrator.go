/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tournament

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/mike-khor/llm-tournament-widget/agents/agenttrace"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/throttled"
	"github.com/mike-khor/llm-tournament-widget/agents/judge"
	"github.com/mike-khor/llm-tournament-widget/agents/provider"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "llmtournament.agents.tournament"

// Orchestrator runs tournaments. Every model call it makes goes through
// the shared executor; it holds no other mutable state and is safe for
// concurrent use.
type Orchestrator struct {
	exec      *throttled.Executor
	generator provider.Interface
	evaluator provider.Interface
	newID     func() string
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithIDGenerator overrides how result identifiers are minted.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) error {
		if newID == nil {
			return errors.New("id generator cannot be nil")
		}
		o.newID = newID
		return nil
	}
}

// WithClock overrides the time source used for timestamps and timings.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// New creates an Orchestrator. The generator and evaluator may be the same
// provider.
func New(exec *throttled.Executor, generator, evaluator provider.Interface, opts ...Option) (*Orchestrator, error) {
	if exec == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if generator == nil || evaluator == nil {
		return nil, errors.New("generator and evaluator are required")
	}
	o := &Orchestrator{
		exec:      exec,
		generator: generator,
		evaluator: evaluator,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return o, nil
}

func tracer() oteltrace.Tracer {
	return otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// EvaluateMultiplePrompts evaluates every prompt concurrently and ranks them
// by total score, best first, keeping input order among ties. Failures
// inside a prompt's evaluation never fail the batch: the only error is an
// invalid request, wrapped in ErrInvalidRequest.
func (o *Orchestrator) EvaluateMultiplePrompts(ctx context.Context, req Request) (*BatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	ctx, span := tracer().Start(ctx, "tournament.batch", oteltrace.WithAttributes(
		attribute.Int("prompts", len(req.Prompts)),
		attribute.Int("generation_count", req.GenerationCount),
		attribute.Int("evaluation_count", req.EvaluationCount),
		attribute.Int("criteria", len(req.Criteria)),
	))
	defer span.End()

	start := o.now()
	batchID := o.newID()
	ctx, trace := agenttrace.StartTrace(ctx, batchID)
	defer trace.Complete()

	log := clog.FromContext(ctx).With("batch_id", batchID)
	log.With("prompts", len(req.Prompts)).
		With("generation_count", req.GenerationCount).
		With("evaluation_count", req.EvaluationCount).
		Info("Starting tournament")

	results := make([]PromptResult, len(req.Prompts))
	var g errgroup.Group
	for i, prompt := range req.Prompts {
		pctx := agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{BatchID: batchID, PromptIndex: i})
		g.Go(func() error {
			results[i] = o.EvaluatePrompt(pctx, prompt, req)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(results, func(a, b PromptResult) int {
		return cmp.Compare(b.TotalScore, a.TotalScore)
	})
	recordRanking(results)

	batch := &BatchResult{
		ID:                 batchID,
		CreatedAt:          start,
		TestInput:          req.TestInput,
		ExpectedOutput:     req.ExpectedOutput,
		Criteria:           slices.Clone(req.Criteria),
		GenerationProvider: o.generator.Name(),
		GenerationModel:    o.generator.Model(),
		EvaluationProvider: o.evaluator.Name(),
		EvaluationModel:    o.evaluator.Model(),
		Results:            results,
		ExecutionTime:      o.now().Sub(start),
	}
	log.With("best_score", results[0].TotalScore).
		With("execution_time", batch.ExecutionTime).
		Info("Tournament complete")
	return batch, nil
}

// EvaluatePrompt generates, judges and aggregates one prompt. A failure
// anywhere in the prompt's evaluation yields a zero-scored result.
func (o *Orchestrator) EvaluatePrompt(ctx context.Context, prompt string, req Request) PromptResult {
	ctx, span := tracer().Start(ctx, "tournament.prompt")
	defer span.End()

	res, err := o.evaluatePrompt(ctx, prompt, req)
	if err != nil {
		clog.FromContext(ctx).With("error", err).
			With("prompt_length", len(prompt)).
			Error("Prompt evaluation failed, recording zero score")
		span.RecordError(err)
		promptsEvaluated.WithLabelValues("absorbed").Inc()
		return PromptResult{
			ID:              o.newID(),
			Prompt:          prompt,
			Generations:     []GenerationEvaluationResult{},
			FinalScores:     zeroScores(req.Criteria),
			GenerationCount: req.GenerationCount,
			EvaluationCount: req.EvaluationCount,
		}
	}
	promptsEvaluated.WithLabelValues("scored").Inc()
	span.SetAttributes(attribute.Float64("total_score", res.TotalScore))
	return res
}

func (o *Orchestrator) evaluatePrompt(ctx context.Context, prompt string, req Request) (PromptResult, error) {
	if err := ctx.Err(); err != nil {
		return PromptResult{}, err
	}
	start := o.now()

	generations := o.GenerateMultipleResponses(ctx, prompt, req.TestInput, req.GenerationCount)

	evaluated := make([]GenerationEvaluationResult, len(generations))
	errs := make([]error, len(generations))
	var g errgroup.Group
	for i, gen := range generations {
		g.Go(func() error {
			evaluated[i], errs[i] = o.evaluateGeneration(ctx, gen, req)
			return nil
		})
	}
	_ = g.Wait()
	if err := errors.Join(errs...); err != nil {
		return PromptResult{}, err
	}

	final, total, err := aggregateGenerations(req.Criteria, evaluated)
	if err != nil {
		return PromptResult{}, err
	}
	return PromptResult{
		ID:              o.newID(),
		Prompt:          prompt,
		Generations:     evaluated,
		FinalScores:     final,
		TotalScore:      total,
		ExecutionTime:   o.now().Sub(start),
		GenerationCount: req.GenerationCount,
		EvaluationCount: req.EvaluationCount,
	}, nil
}

// GenerateMultipleResponses runs k generations concurrently. It always
// returns k results in launch order; a failed generation carries a
// placeholder output and the time spent before it failed.
func (o *Orchestrator) GenerateMultipleResponses(ctx context.Context, prompt, testInput string, k int) []GenerationResult {
	ctx, span := tracer().Start(ctx, "tournament.generate", oteltrace.WithAttributes(attribute.Int("count", k)))
	defer span.End()

	results := make([]GenerationResult, k)
	var g errgroup.Group
	for i := range k {
		g.Go(func() error {
			results[i] = o.generate(ctx, prompt, testInput)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) generate(ctx context.Context, prompt, testInput string) GenerationResult {
	id := o.newID()
	exec := agenttrace.GetExecutionContext(ctx)
	exec.GenerationID = id
	ctx = agenttrace.WithExecutionContext(ctx, exec)

	start := o.now()
	out, err := throttled.Run(ctx, o.exec, throttled.Call[string]{
		Label:                "generate",
		InputText:            prompt + "\n" + testInput,
		EstimatedOutputChars: provider.EstimatedGenerationChars,
		Fn: func(ctx context.Context) (string, error) {
			return o.generator.Generate(ctx, prompt, testInput)
		},
	})
	elapsed := o.now().Sub(start)
	if err != nil {
		clog.FromContext(ctx).With("generation_id", id).
			With("error", err).
			Error("Generation failed, recording placeholder")
		generationPlaceholders.WithLabelValues(o.generator.Name(), o.generator.Model()).Inc()
		return GenerationResult{
			ID:             id,
			Output:         provider.GenerationFailed(err),
			GenerationTime: elapsed,
			Failure:        err.Error(),
		}
	}
	return GenerationResult{ID: id, Output: out, GenerationTime: elapsed}
}

// EvaluateGenerationMultipleTimes judges one generation j times against
// every criterion. All j×|criteria| judge calls run concurrently.
func (o *Orchestrator) EvaluateGenerationMultipleTimes(ctx context.Context, gen GenerationResult, req Request) GenerationEvaluationResult {
	res, err := o.evaluateGeneration(ctx, gen, req)
	if err != nil {
		// Only reachable with an empty criteria list or zero passes.
		clog.FromContext(ctx).With("generation_id", gen.ID).With("error", err).
			Error("Could not aggregate judging passes")
	}
	return res
}

func (o *Orchestrator) evaluateGeneration(ctx context.Context, gen GenerationResult, req Request) (GenerationEvaluationResult, error) {
	ctx, span := tracer().Start(ctx, "tournament.judge_runs", oteltrace.WithAttributes(
		attribute.String("generation_id", gen.ID),
		attribute.Int("runs", req.EvaluationCount),
	))
	defer span.End()

	exec := agenttrace.GetExecutionContext(ctx)
	exec.GenerationID = gen.ID
	ctx = agenttrace.WithExecutionContext(ctx, exec)

	criteria := req.Criteria
	n := len(criteria)

	// Task r*n+c is pass r of criterion c; slots are written by index so the
	// grouping below never depends on completion order.
	outcomes := make([]JudgeOutcome, req.EvaluationCount*n)
	var g errgroup.Group
	for r := range req.EvaluationCount {
		for c, criterion := range criteria {
			g.Go(func() error {
				outcomes[r*n+c] = o.EvaluateSingleWithTiming(ctx, gen.Output, criterion, req.TestInput, req.ExpectedOutput)
				return nil
			})
		}
	}
	_ = g.Wait()

	runs := make([]EvaluationResult, req.EvaluationCount)
	for r := range runs {
		run := EvaluationResult{
			ID:        o.newID(),
			Scores:    make(map[string]float64, n),
			Reasoning: make(map[string]string, n),
		}
		for c, criterion := range criteria {
			outcome := outcomes[r*n+c]
			if !outcome.valid() {
				clog.FromContext(ctx).With("generation_id", gen.ID).
					With("criterion", criterion.Name).
					With("score", outcome.Score).
					Error("Discarding malformed judge outcome")
				judgeFallbacks.WithLabelValues(o.evaluator.Name(), o.evaluator.Model()).Inc()
				outcome = JudgeOutcome{
					Score:     judge.NeutralScore,
					Reasoning: fmt.Sprintf("Result unpacking error: score %v is outside [0, 1]", outcome.Score),
				}
			}
			run.Scores[criterion.Name] = outcome.Score
			run.Reasoning[criterion.Name] = outcome.Reasoning
			run.EvaluationTime += outcome.Elapsed
		}
		runs[r] = run
	}

	scores, reasoning, err := aggregateRuns(criteria, runs)
	return GenerationEvaluationResult{
		Generation:          gen,
		Evaluations:         runs,
		AggregatedScores:    scores,
		AggregatedReasoning: reasoning,
	}, err
}

// JudgeOutcome is one timed judge call.
type JudgeOutcome struct {
	Score     float64
	Reasoning string
	Elapsed   time.Duration
}

func (j JudgeOutcome) valid() bool {
	return !math.IsNaN(j.Score) && j.Score >= 0 && j.Score <= 1 && j.Elapsed >= 0
}

// EvaluateSingleWithTiming judges output against one criterion. Any failure
// is reported as the neutral score with the reason, never as an error.
func (o *Orchestrator) EvaluateSingleWithTiming(ctx context.Context, output string, c Criterion, testInput, expectedOutput string) JudgeOutcome {
	req := judge.Request{
		Response:             output,
		CriterionName:        c.Name,
		CriterionDescription: c.Description,
		TestInput:            testInput,
		ExpectedOutput:       expectedOutput,
	}

	exec := agenttrace.GetExecutionContext(ctx)
	exec.Criterion = c.Name
	ctx = agenttrace.WithExecutionContext(ctx, exec)

	// The window is charged for the rendered judging prompt, not just the
	// values bound into it.
	input, err := judge.BuildPrompt(req)
	if err != nil {
		input = output + c.Name + c.Description + testInput + expectedOutput
	}

	start := o.now()
	j, err := throttled.Run(ctx, o.exec, throttled.Call[judge.Judgement]{
		Label:                "judge",
		InputText:            input,
		EstimatedOutputChars: provider.EstimatedJudgeChars,
		Fn: func(ctx context.Context) (judge.Judgement, error) {
			return o.evaluator.Judge(ctx, req)
		},
	})
	elapsed := o.now().Sub(start)
	if err != nil {
		clog.FromContext(ctx).With("criterion", c.Name).
			With("error", err).
			Error("Evaluation failed, using neutral score")
		judgeFallbacks.WithLabelValues(o.evaluator.Name(), o.evaluator.Model()).Inc()
		return JudgeOutcome{
			Score:     judge.NeutralScore,
			Reasoning: fmt.Sprintf("Evaluation failed: %v", err),
			Elapsed:   elapsed,
		}
	}
	return JudgeOutcome{Score: j.Score, Reasoning: j.Reasoning, Elapsed: elapsed}
}
