/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mike-khor/llm-tournament-widget/agents/result"
)

const (
	// NeutralScore is assigned whenever a judgement cannot be obtained.
	NeutralScore = 0.5

	// NoReasoning stands in for a judgement without a reasoning field.
	NoReasoning = "No reasoning provided"
)

// ErrEmptyResponse is returned by Parse for blank judge output.
var ErrEmptyResponse = errors.New("empty response from evaluator model")

// Request contains the context for one judgement.
type Request struct {
	// Response is the generated text under evaluation.
	Response string `json:"response"`

	// CriterionName and CriterionDescription define what is being scored.
	CriterionName        string `json:"criterion_name"`
	CriterionDescription string `json:"criterion_description"`

	// TestInput is the user input the response was generated for.
	TestInput string `json:"test_input"`

	// ExpectedOutput is an optional reference answer.
	ExpectedOutput string `json:"expected_output,omitempty"`
}

// Judgement is the score and explanation for one criterion.
type Judgement struct {
	// Score runs from 0.0 (fails the criterion) to 1.0 (perfect).
	Score float64 `json:"score"`

	// Reasoning explains the score.
	Reasoning string `json:"reasoning"`
}

// String returns a one-line rendering of the judgement.
func (j Judgement) String() string {
	if j.Reasoning == "" {
		return fmt.Sprintf("Grade: %.2f", j.Score)
	}
	return fmt.Sprintf("Grade: %.2f - %s", j.Score, j.Reasoning)
}

// Neutral returns the fallback judgement carrying a diagnostic reasoning.
func Neutral(reasoning string) Judgement {
	return Judgement{Score: NeutralScore, Reasoning: reasoning}
}

// answer is the JSON object judges are asked to produce.
type answer struct {
	Reasoning *string    `json:"reasoning"`
	Score     *flexFloat `json:"score"`
}

// flexFloat accepts a JSON number or a quoted number.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("score %s is not a number", b)
	}
	*f = flexFloat(v)
	return nil
}

// Parse interprets a judge answer. A missing score defaults to NeutralScore,
// a missing reasoning to NoReasoning, and the score is clamped into [0, 1].
func Parse(content string) (Judgement, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Judgement{}, ErrEmptyResponse
	}
	if !strings.Contains(content, "{") {
		return Judgement{}, errors.New("no JSON object in judge response")
	}
	content = result.ExtractJSON(content)
	if i := strings.Index(content, `{"reasoning":`); i > 0 {
		content = content[i:]
	}

	a, err := result.Extract[answer](content)
	if err != nil {
		return Judgement{}, err
	}

	j := Judgement{Score: NeutralScore, Reasoning: NoReasoning}
	if a.Score != nil {
		j.Score = float64(*a.Score)
	}
	if a.Reasoning != nil {
		j.Reasoning = *a.Reasoning
	}
	if math.IsNaN(j.Score) {
		return Judgement{}, errors.New("score is not a number")
	}
	j.Score = max(0, min(1, j.Score))
	return j, nil
}

// Recover is Parse that never fails: unusable answers become a neutral
// judgement explaining what went wrong.
func Recover(content string) Judgement {
	j, err := Parse(content)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return Neutral("Evaluation failed: Empty response from evaluator model")
	case err != nil:
		return Neutral("Evaluation parsing failed: " + err.Error())
	default:
		return j
	}
}
