/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package googleprovider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mike-khor/llm-tournament-widget/agents/executor/retry"
	"github.com/mike-khor/llm-tournament-widget/agents/judge"
	"github.com/mike-khor/llm-tournament-widget/agents/provider/googleprovider"
)

type part struct {
	Text string `json:"text"`
}

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	} `json:"contents"`
	SystemInstruction *struct {
		Parts []part `json:"parts"`
	} `json:"systemInstruction"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func candidate(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": "STOP",
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 9, "candidatesTokenCount": 3, "totalTokenCount": 12},
	}
}

func newServer(t *testing.T, handler func(path string, req generateRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, body := handler(r.URL.Path, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	var gotPath string
	var got generateRequest
	srv := newServer(t, func(path string, req generateRequest) (int, any) {
		gotPath, got = path, req
		return http.StatusOK, candidate("Hi!")
	})

	p, err := googleprovider.New(context.Background(), "test-key", googleprovider.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	out, err := p.Generate(context.Background(), "Be cheerful.", "Greet me")
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if out != "Hi!" {
		t.Errorf("Generate() = %q", out)
	}
	if !strings.Contains(gotPath, googleprovider.DefaultModel) {
		t.Errorf("path = %q, want model %q", gotPath, googleprovider.DefaultModel)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "Be cheerful." {
		t.Errorf("system instruction = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Parts[0].Text != "Greet me" {
		t.Errorf("contents = %+v", got.Contents)
	}
	if got.GenerationConfig.MaxOutputTokens != 500 {
		t.Errorf("maxOutputTokens = %d, want 500", got.GenerationConfig.MaxOutputTokens)
	}
}

func TestJudge(t *testing.T) {
	var got generateRequest
	srv := newServer(t, func(_ string, req generateRequest) (int, any) {
		got = req
		return http.StatusOK, candidate("```json\n{\"reasoning\": \"Accurate.\", \"score\": 0.9}\n```")
	})

	p, err := googleprovider.New(context.Background(), "test-key",
		googleprovider.WithBaseURL(srv.URL),
		googleprovider.WithModel("gemini-2.5-pro"))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	if p.Model() != "gemini-2.5-pro" {
		t.Errorf("Model() = %q", p.Model())
	}

	j, err := p.Judge(context.Background(), judge.Request{
		Response:             "Hi!",
		CriterionName:        "accuracy",
		CriterionDescription: "Is it accurate?",
		TestInput:            "Greet me",
	})
	if err != nil {
		t.Fatalf("Judge() = %v", err)
	}
	if j.Score != 0.9 || j.Reasoning != "Accurate." {
		t.Errorf("Judge() = %+v", j)
	}
	if got.SystemInstruction != nil {
		t.Errorf("judge call sent a system instruction: %+v", got.SystemInstruction)
	}
	if got.GenerationConfig.MaxOutputTokens != 200 {
		t.Errorf("maxOutputTokens = %d, want 200", got.GenerationConfig.MaxOutputTokens)
	}
}

func TestThrottledErrorIsClassified(t *testing.T) {
	srv := newServer(t, func(string, generateRequest) (int, any) {
		return http.StatusTooManyRequests, map[string]any{
			"error": map[string]any{"code": 429, "message": "Resource has been exhausted (e.g. check quota).", "status": "RESOURCE_EXHAUSTED"},
		}
	})

	p, err := googleprovider.New(context.Background(), "test-key", googleprovider.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	_, err = p.Generate(context.Background(), "p", "u")
	if err == nil {
		t.Fatal("Generate() succeeded against a throttling server")
	}
	if !retry.IsThrottling(err) {
		t.Errorf("IsThrottling(%v) = false", err)
	}
}
