/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package schema_test

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mike-khor/llm-tournament-widget/agents/schema"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
)

func TestRequestSchema(t *testing.T) {
	s := schema.ReflectType[tournament.Request]()

	got := slices.Sorted(slices.Values(s.Required))
	if diff := cmp.Diff([]string{"prompts", "test_input"}, got); diff != "" {
		t.Errorf("required mismatch (-want +got):\n%s", diff)
	}

	prompts, ok := s.Properties.Get("prompts")
	if !ok {
		t.Fatal("schema has no prompts property")
	}
	if prompts.MinItems == nil || *prompts.MinItems != 1 {
		t.Errorf("prompts.minItems = %v, want 1", prompts.MinItems)
	}

	criteria, ok := s.Properties.Get("criteria")
	if !ok || criteria.Items == nil {
		t.Fatal("schema has no criteria items")
	}
	scoreType, ok := criteria.Items.Properties.Get("score_type")
	if !ok {
		t.Fatal("criterion schema has no score_type")
	}
	if diff := cmp.Diff([]any{"continuous", "binary", "likert"}, scoreType.Enum); diff != "" {
		t.Errorf("score_type enum mismatch (-want +got):\n%s", diff)
	}
}

func TestDocument(t *testing.T) {
	b, err := schema.Document[tournament.Request]("Tournament request")
	if err != nil {
		t.Fatalf("Document() = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("Document() is not JSON: %v", err)
	}
	if doc["title"] != "Tournament request" {
		t.Errorf("title = %v", doc["title"])
	}
	if doc["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", doc["additionalProperties"])
	}
}
