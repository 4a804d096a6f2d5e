/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// walkTemplate visits the template left to right, calling text for literal
// runs (when non-nil) and placeholder for every {{name}}.
func walkTemplate(template string, placeholder func(name string) error, text func(string)) error {
	emit := func(s string) {
		if text != nil && s != "" {
			text(s)
		}
	}
	for {
		before, rest, found := strings.Cut(template, "{{")
		emit(before)
		if !found {
			return nil
		}
		inner, after, closed := strings.Cut(rest, "}}")
		if !closed {
			return errors.New("unclosed binding: missing '}}'")
		}
		name := strings.TrimSpace(inner)
		if !isIdentifier(name) {
			return fmt.Errorf("invalid binding identifier %q", name)
		}
		if err := placeholder(name); err != nil {
			return err
		}
		template = after
	}
}

// isIdentifier accepts a letter followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return s != ""
}
