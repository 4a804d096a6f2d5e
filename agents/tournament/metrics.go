/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package tournament

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promptsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_prompts_evaluated_total",
			Help: "Prompts evaluated, by outcome (scored or absorbed as zero-scored)",
		},
		[]string{"outcome"},
	)

	generationPlaceholders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_generation_placeholders_total",
			Help: "Failed generations replaced with a placeholder output",
		},
		[]string{"provider", "model"},
	)

	judgeFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tournament_judge_fallbacks_total",
			Help: "Judge calls replaced with the neutral score",
		},
		[]string{"provider", "model"},
	)

	rankedScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tournament_ranked_total_score",
			Help: "Total score at each leaderboard position of the most recent batch",
		},
		[]string{"rank"},
	)
)

func recordRanking(results []PromptResult) {
	for i, r := range results {
		rankedScore.WithLabelValues(strconv.Itoa(i + 1)).Set(r.TotalScore)
	}
}
