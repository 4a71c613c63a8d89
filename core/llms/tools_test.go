package llms

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type cityArguments struct {
	City string `json:"city"`
}

func newEchoTool() Tool {
	return NewTool("echo_city", "Echoes the city",
		map[string]ParameterBase{
			"city":  {Type: "string", Description: "City name"},
			"units": {Type: "string", Description: "Units", Optional: true},
		},
		func(_ context.Context, arguments cityArguments) (string, error) {
			if arguments.City == "" {
				return "", errors.New("city missing")
			}
			return "city:" + arguments.City, nil
		})
}

func TestToolMarshalsAsFunctionDefinition(t *testing.T) {
	encoded, err := json.Marshal(newEchoTool())
	if err != nil {
		t.Fatalf("expected tool to marshal, got %v", err)
	}

	var decoded struct {
		Type     string `json:"type"`
		Function struct {
			Name       string `json:"name"`
			Parameters struct {
				Type       string                    `json:"type"`
				Properties map[string]map[string]any `json:"properties"`
				Required   []string                  `json:"required"`
			} `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("expected tool json to decode, got %v", err)
	}

	if decoded.Type != "function" || decoded.Function.Name != "echo_city" {
		t.Fatalf("unexpected tool definition %s", encoded)
	}
	if decoded.Function.Parameters.Type != "object" || len(decoded.Function.Parameters.Properties) != 2 {
		t.Fatalf("unexpected parameters %s", encoded)
	}
	if required := decoded.Function.Parameters.Required; len(required) != 1 || required[0] != "city" {
		t.Fatalf("expected only city to be required, got %v", required)
	}
}

func TestCallTool(t *testing.T) {
	tools := []Tool{newEchoTool()}

	testCases := []struct {
		name         string
		call         ToolCall
		wantResponse string
		wantErr      error
		wantAnyErr   bool
	}{
		{name: "decodes arguments", call: ToolCall{ID: "1", Name: "echo_city", Arguments: `{"city":"Delhi"}`}, wantResponse: "city:Delhi"},
		{name: "unknown tool", call: ToolCall{ID: "2", Name: "send_email", Arguments: `{}`}, wantErr: ErrToolNotFound},
		{name: "invalid arguments", call: ToolCall{ID: "3", Name: "echo_city", Arguments: `{"city":`}, wantAnyErr: true},
		{name: "tool error", call: ToolCall{ID: "4", Name: "echo_city"}, wantAnyErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result, err := CallTool(context.Background(), tools, testCase.call)
			switch {
			case testCase.wantErr != nil:
				if !errors.Is(err, testCase.wantErr) {
					t.Fatalf("expected %v, got %v", testCase.wantErr, err)
				}
			case testCase.wantAnyErr:
				if err == nil {
					t.Fatalf("expected an error")
				}
			default:
				if err != nil {
					t.Fatalf("expected tool to succeed, got %v", err)
				}
			}
			if result.ID != testCase.call.ID {
				t.Fatalf("expected call id %q to be kept, got %q", testCase.call.ID, result.ID)
			}
			if result.Response != testCase.wantResponse {
				t.Fatalf("expected response %q, got %q", testCase.wantResponse, result.Response)
			}
		})
	}
}
