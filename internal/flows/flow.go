// Package flows holds the prompt flows. A flow validates its input record,
// interpolates a fixed prompt template, makes exactly one provider call and
// validates the structured answer. Results are complete or the call fails.
package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"spandi-backend/internal/llm"
)

// Input is a flow input record.
type Input interface {
	Validate() error
}

// mediaInput is implemented by inputs that carry images.
type mediaInput interface {
	Media() ([]llm.Media, error)
}

// Runner is anything that maps an input record to an output record.
type Runner[In any, Out any] interface {
	Run(ctx context.Context, in In) (Out, error)
}

// Flow is one prompt template bound to its input and output records.
type Flow[In Input, Out any] struct {
	name     string
	template *template.Template
	schema   llm.Schema
	build    func(values map[string]string) Out
	provider llm.Provider
	logger   *zap.Logger
}

func newFlow[In Input, Out any](
	name, prompt string,
	schema llm.Schema,
	build func(map[string]string) Out,
	provider llm.Provider,
	logger *zap.Logger,
) *Flow[In, Out] {
	return &Flow[In, Out]{
		name:     name,
		template: template.Must(template.New(name).Option("missingkey=error").Parse(prompt)),
		schema:   schema,
		build:    build,
		provider: provider,
		logger:   logger,
	}
}

func (f *Flow[In, Out]) Name() string { return f.name }

// Run executes the flow once. It never retries.
func (f *Flow[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	var zero Out
	start := time.Now()

	if err := in.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Flow = f.name
		}
		return zero, err
	}

	req, err := f.request(in)
	if err != nil {
		return zero, err
	}

	text, err := f.provider.Generate(ctx, req)
	if err != nil {
		perr := &ProviderError{Flow: f.name, Provider: f.provider.Name(), Err: err}
		f.logFailure(perr, start)
		return zero, perr
	}

	values, err := decodeOutput(f.name, f.schema, text)
	if err != nil {
		f.logFailure(err, start)
		return zero, err
	}

	f.logger.Debug("flow completed",
		zap.String("flow", f.name),
		zap.Duration("duration", time.Since(start)),
	)
	return f.build(values), nil
}

func (f *Flow[In, Out]) request(in In) (llm.Request, error) {
	var prompt bytes.Buffer
	if err := f.template.Execute(&prompt, in); err != nil {
		return llm.Request{}, &ValidationError{Flow: f.name, Fields: map[string]string{"input": "cannot be interpolated"}}
	}

	req := llm.Request{
		Template: f.name + "Prompt",
		Prompt:   prompt.String(),
		Schema:   f.schema,
	}

	if mi, ok := any(in).(mediaInput); ok {
		media, err := mi.Media()
		if err != nil {
			return llm.Request{}, err
		}
		req.Media = media
	}
	return req, nil
}

func (f *Flow[In, Out]) logFailure(err error, start time.Time) {
	f.logger.Warn("flow failed",
		zap.String("flow", f.name),
		zap.String("kind", Kind(err)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
}

// decodeOutput checks the model text against schema and returns every
// declared field. Any missing or non-string field fails the whole result.
func decodeOutput(flow string, schema llm.Schema, text string) (map[string]string, error) {
	raw := stripCodeFence(text)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		// Models sometimes wrap the object in prose
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < 0 || end <= start || json.Unmarshal([]byte(raw[start:end+1]), &obj) != nil {
			return nil, &ContractViolation{Flow: flow, Reason: "response is not a JSON object"}
		}
	}
	if obj == nil {
		return nil, &ContractViolation{Flow: flow, Reason: "response is not a JSON object"}
	}

	values := make(map[string]string, len(schema.Fields))
	for _, field := range schema.Fields {
		rawVal, ok := obj[field.Name]
		if !ok {
			return nil, &ContractViolation{Flow: flow, Field: field.Name, Reason: "is missing"}
		}
		var s string
		if err := json.Unmarshal(rawVal, &s); err != nil {
			return nil, &ContractViolation{Flow: flow, Field: field.Name, Reason: "is not a string"}
		}
		values[field.Name] = s
	}
	return values, nil
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// DecodeInput parses a JSON request body into a flow input record and
// validates it. Type mismatches are reported per field.
func DecodeInput[In Input](flow string, body []byte) (In, error) {
	var in In
	if err := json.Unmarshal(body, &in); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return in, &ValidationError{Flow: flow, Fields: map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}}
		}
		return in, &ValidationError{Flow: flow, Fields: map[string]string{"body": "must be a JSON object"}}
	}
	if err := in.Validate(); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.Flow = flow
		}
		return in, err
	}
	return in, nil
}
