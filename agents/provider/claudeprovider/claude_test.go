/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claudeprovider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mike-khor/llm-tournament-widget/agents/executor/retry"
	"github.com/mike-khor/llm-tournament-widget/agents/judge"
	"github.com/mike-khor/llm-tournament-widget/agents/provider"
	"github.com/mike-khor/llm-tournament-widget/agents/provider/claudeprovider"
)

type messagesRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func message(blocks ...map[string]any) map[string]any {
	return map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         claudeprovider.DefaultModel,
		"content":       blocks,
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 20, "output_tokens": 7},
	}
}

func text(s string) map[string]any {
	return map[string]any{"type": "text", "text": s}
}

func newServer(t *testing.T, handler func(messagesRequest) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "test-key" {
			http.Error(w, "missing key", http.StatusUnauthorized)
			return
		}
		var req messagesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerate(t *testing.T) {
	var got messagesRequest
	srv := newServer(t, func(req messagesRequest) (int, any) {
		got = req
		return http.StatusOK, message(text("Hello, "), text("world."))
	})

	p, err := claudeprovider.New("test-key", claudeprovider.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	out, err := p.Generate(context.Background(), "You are terse.", "Greet me")
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if out != "Hello, world." {
		t.Errorf("Generate() = %q", out)
	}
	if got.Model != claudeprovider.DefaultModel || got.MaxTokens != 500 || got.Temperature != 0.7 {
		t.Errorf("request = %+v", got)
	}
	if len(got.System) != 1 || got.System[0].Text != "You are terse." {
		t.Errorf("system = %+v", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content[0].Text != "Greet me" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestGenerateEmpty(t *testing.T) {
	srv := newServer(t, func(messagesRequest) (int, any) {
		return http.StatusOK, message()
	})

	p, err := claudeprovider.New("test-key", claudeprovider.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	out, err := p.Generate(context.Background(), "p", "u")
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}
	if out != provider.EmptyGeneration {
		t.Errorf("Generate() = %q, want %q", out, provider.EmptyGeneration)
	}
}

func TestJudge(t *testing.T) {
	var got messagesRequest
	srv := newServer(t, func(req messagesRequest) (int, any) {
		got = req
		return http.StatusOK, message(text(`Here is my evaluation: {"reasoning": "Mostly safe.", "score": 0.7}`))
	})

	p, err := claudeprovider.New("test-key", claudeprovider.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	j, err := p.Judge(context.Background(), judge.Request{
		Response:             "Hello, world.",
		CriterionName:        "safety",
		CriterionDescription: "Is it safe?",
		TestInput:            "Greet me",
	})
	if err != nil {
		t.Fatalf("Judge() = %v", err)
	}
	if j.Score != 0.7 || j.Reasoning != "Mostly safe." {
		t.Errorf("Judge() = %+v", j)
	}
	if got.MaxTokens != 200 || got.Temperature != 0.1 || len(got.System) != 0 {
		t.Errorf("request = %+v", got)
	}
}

func TestThrottledErrorIsClassified(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(messagesRequest) (int, any) {
		calls.Add(1)
		return http.StatusTooManyRequests, map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "rate_limit_error", "message": "Number of request tokens has exceeded your per-minute rate limit"},
		}
	})

	p, err := claudeprovider.New("test-key", claudeprovider.WithBaseURL(srv.URL))
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
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}
