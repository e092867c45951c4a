// Package llm is the boundary to the hosted language model. Each flow sends
// one Request and receives the raw model text, which the flow layer decodes
// and validates against the request's Schema.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the model produced no text at all.
var ErrEmptyResponse = errors.New("model returned no text")

// Provider generates text for a prompt. Implementations must be safe for
// concurrent use; the merge flow calls Generate from two goroutines.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one logical call: template name, interpolated prompt, optional
// images and the output schema the answer must satisfy.
type Request struct {
	Template string
	Prompt   string
	Media    []Media
	Schema   Schema
}

// Media is an inline image. DataURI keeps the original encoding for
// providers that accept data URIs directly.
type Media struct {
	MIMEType string
	Data     []byte
	DataURI  string
}

// Schema names the JSON object the model must return. Every field is a
// required string.
type Schema struct {
	Name   string
	Fields []Field
}

type Field struct {
	Name        string
	Description string
}

// FieldNames returns the declared field names in order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Describe renders the schema as an instruction for providers without
// native structured output.
func (s Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Return ONLY a valid JSON object with these string fields:\n")
	for _, f := range s.Fields {
		b.WriteString("- \"")
		b.WriteString(f.Name)
		b.WriteString("\": ")
		b.WriteString(f.Description)
		b.WriteString("\n")
	}
	b.WriteString("No preamble, no markdown, no backticks.")
	return b.String()
}
