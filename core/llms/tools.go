// Package llms holds the provider independent pieces of talking to language
// models: function tools and the calls a model makes to them.
package llms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrToolNotFound = errors.New("tool not found")

// Tool is a function the model may call. It marshals to the OpenAI compatible
// tool definition.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`

	execute func(ctx context.Context, arguments string) (string, error)
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string                   `json:"type"`
	Properties map[string]ParameterBase `json:"properties"`
	Required   []string                 `json:"required,omitempty"`
}

type ParameterBase struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	// Optional parameters are left out of the required list.
	Optional bool `json:"-"`
}

// NewTool describes a function tool. The model's JSON arguments are decoded
// into T before execute runs.
func NewTool[T any](name, description string, parameters map[string]ParameterBase, execute func(ctx context.Context, arguments T) (string, error)) Tool {
	if parameters == nil {
		parameters = map[string]ParameterBase{}
	}
	var required []string
	for _, parameter := range slices.Sorted(maps.Keys(parameters)) {
		if !parameters[parameter].Optional {
			required = append(required, parameter)
		}
	}

	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters: ToolParameters{
				Type:       "object",
				Properties: parameters,
				Required:   required,
			},
		},
		execute: func(ctx context.Context, rawArguments string) (string, error) {
			var arguments T
			if rawArguments == "" {
				rawArguments = "{}"
			}
			if err := json.Unmarshal([]byte(rawArguments), &arguments); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			return execute(ctx, arguments)
		},
	}
}

func (t Tool) Name() string { return t.Function.Name }

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
	Response  string
}

// CallTool runs the tool the call names and returns the call with its
// response filled in.
func CallTool(ctx context.Context, tools []Tool, toolCall ToolCall) (ToolCall, error) {
	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", toolCall.Name))

	for _, tool := range tools {
		if tool.Function.Name != toolCall.Name || tool.execute == nil {
			continue
		}

		response, err := tool.execute(ctx, toolCall.Arguments)
		if err != nil {
			err = fmt.Errorf("failed to execute tool %q: %w", toolCall.Name, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return toolCall, err
		}
		toolCall.Response = response
		span.SetAttributes(attribute.Int("tool.response_length", len(response)))
		return toolCall, nil
	}

	err := fmt.Errorf("%w: %s", ErrToolNotFound, toolCall.Name)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return toolCall, err
}
