/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder fills {{name}} placeholders in developer-authored
// prompt templates. Values that originate from users are only accepted as
// marshaled XML elements so they cannot be confused with template text.
package promptbuilder

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
)

// stringLiteral only accepts untyped string constants, so templates and
// literal bindings cannot be built from runtime (user) strings.
type stringLiteral string

// Prompt is an immutable template plus the values bound so far.
type Prompt struct {
	template string
	values   map[string]*string // nil while unbound
}

// NewPrompt parses the placeholders of a template literal.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	values := make(map[string]*string)
	err := walkTemplate(string(template), func(name string) error {
		values[name] = nil
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Prompt{template: string(template), values: values}, nil
}

// MustNewPrompt is NewPrompt for package-level templates; it panics on error.
func MustNewPrompt(template stringLiteral) *Prompt {
	p, err := NewPrompt(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Placeholders returns the placeholder names in sorted order.
func (p *Prompt) Placeholders() []string {
	return slices.Sorted(maps.Keys(p.values))
}

// BindLiteral binds a developer-supplied literal to a placeholder.
func (p *Prompt) BindLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, string(value))
}

// BindXML binds data to a placeholder as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	b, err := xml.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal XML for %q: %w", name, err)
	}
	return p.bind(name, string(b))
}

func (p *Prompt) bind(name, value string) (*Prompt, error) {
	current, ok := p.values[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if current != nil {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	values := maps.Clone(p.values)
	values[name] = &value
	return &Prompt{template: p.template, values: values}, nil
}

// Build renders the template, failing if any placeholder is unbound.
func (p *Prompt) Build() (string, error) {
	var out []byte
	err := walkTemplate(p.template, func(name string) error {
		v := p.values[name]
		if v == nil {
			return fmt.Errorf("unbound placeholder: %s", name)
		}
		out = append(out, *v...)
		return nil
	}, func(text string) {
		out = append(out, text...)
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
