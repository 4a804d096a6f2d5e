/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Command tournament ranks candidate system prompts by sampling responses
// from one LLM provider and grading them with another.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sethvargo/go-envconfig"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(envconfig.OsLookuper()).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
