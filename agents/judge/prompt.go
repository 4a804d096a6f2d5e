/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package judge

import (
	"encoding/xml"
	"errors"

	"github.com/mike-khor/llm-tournament-widget/agents/promptbuilder"
)

// evaluationPrompt is the G-Eval style judging prompt.
var evaluationPrompt = promptbuilder.MustNewPrompt(`You are an expert evaluator. Please evaluate the following response based on this criterion:

{{criterion}}

{{original_input}}

{{response}}
{{expected_output}}

Please provide:
1. A score from 0.0 to 1.0 (where 1.0 is perfect; 1 decimal only)
2. Brief reasoning for your score (maximum 2 sentences, no newline)

Consider the following scoring guidelines:
- 0.9-1.0: Exceptional quality, meets all requirements perfectly
- 0.7-0.8: Good quality, meets most requirements with minor issues
- 0.5-0.6: Average quality, meets some requirements but has notable issues
- 0.3-0.4: Below average, significant issues or gaps
- 0.0-0.2: Poor quality, fails to meet basic requirements

Respond in this exact JSON format:
{"reasoning": "First sentence describing adherence. A second sentence describing deviation.", "score": 0.0}`)

type criterionXML struct {
	XMLName     xml.Name `xml:"criterion"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
}

type textXML struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

func element(name, text string) textXML {
	return textXML{XMLName: xml.Name{Local: name}, Text: text}
}

// BuildPrompt renders the judging prompt for a request. User-supplied values
// are embedded as escaped XML elements.
func BuildPrompt(req Request) (string, error) {
	if req.CriterionName == "" {
		return "", errors.New("criterion name is required")
	}

	p, err := evaluationPrompt.BindXML("criterion", criterionXML{
		Name:        req.CriterionName,
		Description: req.CriterionDescription,
	})
	if err != nil {
		return "", err
	}
	if p, err = p.BindXML("original_input", element("original_input", req.TestInput)); err != nil {
		return "", err
	}
	if p, err = p.BindXML("response", element("response_to_evaluate", req.Response)); err != nil {
		return "", err
	}
	if req.ExpectedOutput == "" {
		p, err = p.BindLiteral("expected_output", "")
	} else {
		p, err = p.BindXML("expected_output", element("expected_output", req.ExpectedOutput))
	}
	if err != nil {
		return "", err
	}
	return p.Build()
}
