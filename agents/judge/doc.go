/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package judge builds LLM-as-a-judge prompts and interprets their answers.
//
// A judge scores one response against one criterion on a 0.0 to 1.0 scale
// and explains the score in a sentence or two. The prompt follows the G-Eval
// layout: criterion, original input, the response under evaluation, an
// optional expected output, scoring guidelines and an exact JSON answer
// format.
//
// Judge models do not always answer cleanly. Parse tolerates commentary
// before the JSON object, markdown fences and a missing closing brace, and
// clamps the score into range. Recover never fails: anything Parse cannot
// handle becomes a neutral 0.5 judgement whose reasoning records why.
//
// # Thread Safety
//
// Everything in this package is stateless and safe for concurrent use.
package judge
