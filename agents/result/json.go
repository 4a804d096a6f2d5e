/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package result extracts JSON objects from free-form model responses.
//
// Models wrap JSON in markdown fences, prefix it with commentary and
// occasionally stop before the closing brace. ExtractJSON isolates the
// object and Extract decodes it, repairing truncated or sloppy JSON with
// github.com/kaptinlin/jsonrepair when strict decoding fails.
package result

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when a response contains nothing to decode.
var ErrNoJSON = errors.New("no JSON content in response")

// ExtractJSON returns the JSON candidate inside a model response. The first
// fenced block (```json or bare ```) wins; otherwise the whole response is
// used. Anything before the first opening brace is discarded.
func ExtractJSON(responseText string) string {
	body, fenced := fencedBlock(responseText)
	if !fenced {
		body = strings.TrimSpace(responseText)
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
	}
	if i := strings.IndexByte(body, '{'); i > 0 {
		body = body[i:]
	}
	return strings.TrimSpace(body)
}

// fencedBlock returns the contents of the first non-empty fenced code block
// whose opening line is ```json or ```. An unterminated block runs to the end.
// A fence with nothing after it is a stray closer and is skipped.
func fencedBlock(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		opener := strings.TrimSpace(line)
		if opener != "```json" && opener != "```" {
			continue
		}
		var body []string
		for _, l := range lines[i+1:] {
			if strings.TrimSpace(l) == "```" {
				break
			}
			body = append(body, l)
		}
		joined := strings.Join(body, "\n")
		if strings.TrimSpace(joined) == "" {
			continue
		}
		return joined, true
	}
	return "", false
}

// Extract isolates the JSON object in a response and decodes it into T.
// Trailing text after the object is ignored. When strict decoding fails the
// candidate is repaired and decoded again.
func Extract[T any](responseText string) (T, error) {
	var out T

	candidate := ExtractJSON(responseText)
	if candidate == "" {
		return out, ErrNoJSON
	}

	err := decodeFirst(candidate, &out)
	if err == nil {
		return out, nil
	}

	repaired, rerr := jsonrepair.JSONRepair(candidate)
	if rerr != nil {
		// Last resort for a response cut off right before its closing brace.
		repaired = candidate + "}"
	}
	out = *new(T)
	if derr := decodeFirst(repaired, &out); derr != nil {
		return out, fmt.Errorf("decoding JSON: %w", err)
	}
	return out, nil
}

// decodeFirst decodes the first JSON value in s.
func decodeFirst(s string, v any) error {
	return json.NewDecoder(bytes.NewReader([]byte(s))).Decode(v)
}
