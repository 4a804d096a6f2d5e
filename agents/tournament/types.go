/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tournament

import (
	"errors"
	"fmt"
	"time"
)

// ScoreType describes how a criterion is meant to be scored. Judges always
// answer on the 0.0 to 1.0 scale; the type guides how scores are read.
type ScoreType string

const (
	Continuous ScoreType = "continuous"
	Binary     ScoreType = "binary"
	Likert     ScoreType = "likert"
)

// Criterion is a named, weighted dimension of quality.
type Criterion struct {
	Name        string    `json:"name" yaml:"name" jsonschema:"required,minLength=1,description=Unique name the judge scores against"`
	Description string    `json:"description" yaml:"description" jsonschema:"description=What the judge should look for"`
	Weight      float64   `json:"weight" yaml:"weight" jsonschema:"required,minimum=0,maximum=1,description=Share of the total score"`
	ScoreType   ScoreType `json:"score_type,omitempty" yaml:"score_type,omitempty" jsonschema:"enum=continuous,enum=binary,enum=likert"`
}

// DefaultCriteria are used when a request names none.
func DefaultCriteria() []Criterion {
	return []Criterion{{
		Name:        "accuracy",
		Description: "How factually accurate and correct is the response?",
		Weight:      0.4,
		ScoreType:   Continuous,
	}, {
		Name:        "helpfulness",
		Description: "How helpful and useful is the response to the user?",
		Weight:      0.3,
		ScoreType:   Continuous,
	}, {
		Name:        "safety",
		Description: "Is the response safe and free from harmful content?",
		Weight:      0.3,
		ScoreType:   Continuous,
	}}
}

// ErrInvalidRequest wraps every precondition violation reported by
// EvaluateMultiplePrompts.
var ErrInvalidRequest = errors.New("invalid evaluation request")

// Request is one tournament: every prompt is run against the same test
// input and judged on the same criteria.
type Request struct {
	Prompts         []string    `json:"prompts" yaml:"prompts" jsonschema:"required,minItems=1,description=Candidate system prompts"`
	TestInput       string      `json:"test_input" yaml:"test_input" jsonschema:"required,description=User message sent with every prompt"`
	ExpectedOutput  string      `json:"expected_output,omitempty" yaml:"expected_output,omitempty" jsonschema:"description=Optional reference answer shown to the judge"`
	Criteria        []Criterion `json:"criteria" yaml:"criteria" jsonschema:"description=Weighted criteria; accuracy/helpfulness/safety when omitted"`
	GenerationCount int         `json:"generation_count" yaml:"generation_count" jsonschema:"minimum=1,maximum=10,description=Responses sampled per prompt"`
	EvaluationCount int         `json:"evaluation_count" yaml:"evaluation_count" jsonschema:"minimum=1,maximum=10,description=Judge passes per criterion per response"`
}

// Validate checks the preconditions the aggregation relies on.
func (r Request) Validate() error {
	if len(r.Prompts) == 0 {
		return errors.New("at least one prompt is required")
	}
	if len(r.Criteria) == 0 {
		return errors.New("at least one criterion is required")
	}
	if r.GenerationCount < 1 {
		return fmt.Errorf("generation count must be at least 1, got %d", r.GenerationCount)
	}
	if r.EvaluationCount < 1 {
		return fmt.Errorf("evaluation count must be at least 1, got %d", r.EvaluationCount)
	}
	seen := make(map[string]struct{}, len(r.Criteria))
	for _, c := range r.Criteria {
		if c.Name == "" {
			return errors.New("criterion name cannot be empty")
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate criterion %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Weight < 0 || c.Weight > 1 {
			return fmt.Errorf("criterion %q weight %v is outside [0, 1]", c.Name, c.Weight)
		}
		switch c.ScoreType {
		case "", Continuous, Binary, Likert:
		default:
			return fmt.Errorf("criterion %q has unknown score type %q", c.Name, c.ScoreType)
		}
	}
	return nil
}

// GenerationResult is one completion of a prompt. Failure is set when the
// generation call failed, in which case Output holds a placeholder.
type GenerationResult struct {
	ID             string        `json:"id" yaml:"id"`
	Output         string        `json:"output" yaml:"output"`
	GenerationTime time.Duration `json:"generation_time" yaml:"generation_time"`
	Failure        string        `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// EvaluationResult is one judging pass over all criteria.
type EvaluationResult struct {
	ID             string             `json:"id" yaml:"id"`
	Scores         map[string]float64 `json:"scores" yaml:"scores"`
	Reasoning      map[string]string  `json:"reasoning" yaml:"reasoning"`
	EvaluationTime time.Duration      `json:"evaluation_time" yaml:"evaluation_time"`
}

// GenerationEvaluationResult is a generation and its judging passes.
type GenerationEvaluationResult struct {
	Generation          GenerationResult    `json:"generation" yaml:"generation"`
	Evaluations         []EvaluationResult  `json:"evaluations" yaml:"evaluations"`
	AggregatedScores    map[string]float64  `json:"aggregated_scores" yaml:"aggregated_scores"`
	AggregatedReasoning map[string][]string `json:"aggregated_reasoning" yaml:"aggregated_reasoning"`
}

// PromptResult is the aggregate for one prompt.
type PromptResult struct {
	ID              string                       `json:"id" yaml:"id"`
	Prompt          string                       `json:"prompt" yaml:"prompt"`
	Generations     []GenerationEvaluationResult `json:"generations" yaml:"generations"`
	FinalScores     map[string]float64           `json:"final_scores" yaml:"final_scores"`
	TotalScore      float64                      `json:"total_score" yaml:"total_score"`
	ExecutionTime   time.Duration                `json:"execution_time" yaml:"execution_time"`
	GenerationCount int                          `json:"generation_count" yaml:"generation_count"`
	EvaluationCount int                          `json:"evaluation_count" yaml:"evaluation_count"`
}

// BatchResult ranks the prompts of one request, best first.
type BatchResult struct {
	ID                 string         `json:"id" yaml:"id"`
	CreatedAt          time.Time      `json:"created_at" yaml:"created_at"`
	TestInput          string         `json:"test_input" yaml:"test_input"`
	ExpectedOutput     string         `json:"expected_output,omitempty" yaml:"expected_output,omitempty"`
	Criteria           []Criterion    `json:"criteria" yaml:"criteria"`
	GenerationProvider string         `json:"generation_provider" yaml:"generation_provider"`
	GenerationModel    string         `json:"generation_model" yaml:"generation_model"`
	EvaluationProvider string         `json:"evaluation_provider" yaml:"evaluation_provider"`
	EvaluationModel    string         `json:"evaluation_model" yaml:"evaluation_model"`
	Results            []PromptResult `json:"results" yaml:"results"`
	ExecutionTime      time.Duration  `json:"execution_time" yaml:"execution_time"`
}
