/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package tournament ranks candidate system prompts.

For every prompt the Orchestrator samples GenerationCount responses to the
shared test input, has the evaluator judge each response EvaluationCount
times against every criterion, and averages bottom-up:

  - judge passes of one criterion on one response
  - responses of one prompt, per criterion
  - criteria of one prompt, weighted into TotalScore

All model calls go through one throttled.Executor, so every level of the
fan-out shares the same token budget and concurrency cap. Failures are
absorbed where they happen: a failed generation keeps its slot with a
placeholder output, a failed judge call scores 0.5, and a prompt whose
evaluation cannot complete is ranked with zero scores. Only an invalid
Request fails a batch.
*/
package tournament
