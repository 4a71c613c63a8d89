package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxToolRounds = 4

// resolveToolCalls lets the model call tools until it stops asking for them
// and returns the conversation extended with the calls and their results.
// Tool failures are reported back to the model as the tool's response.
func resolveToolCalls(
	ctx context.Context,
	client *http.Client,
	endpoint string,
	apiKey string,
	settings modelSettings,
	tools []llms.Tool,
	messages []message,
) ([]message, error) {
	ctx, span := tracer.Start(ctx, "resolve tool calls")
	defer span.End()

	toolNames := make([]string, 0, len(tools))
	for _, tool := range tools {
		toolNames = append(toolNames, tool.Name())
	}
	span.SetAttributes(attribute.StringSlice("request.available_tools", toolNames))

	for round := range maxToolRounds {
		toolCalls, err := promptTools(ctx, client, endpoint, apiKey, settings, tools, messages)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return messages, err
		}
		if len(toolCalls) == 0 {
			span.SetAttributes(attribute.Int("response.tool_rounds", round))
			return messages, nil
		}

		messages = append(messages, message{Role: messageRoleAssistant, ToolCalls: toolCalls})
		for _, call := range toolCalls {
			result, err := llms.CallTool(ctx, tools, llms.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			})
			if err != nil {
				logger.Warn("tool call failed", "tool", call.Function.Name, "error", err)
				result.Response = "Error: " + err.Error()
			}
			messages = append(messages, message{
				Role:       messageRoleTool,
				ToolCallID: call.ID,
				Content:    result.Response,
			})
		}
	}

	logger.Warn("tool call limit reached, answering with the results so far", "rounds", maxToolRounds)
	span.SetAttributes(attribute.Int("response.tool_rounds", maxToolRounds))
	return messages, nil
}

func promptTools(
	ctx context.Context,
	client *http.Client,
	endpoint string,
	apiKey string,
	settings modelSettings,
	tools []llms.Tool,
	messages []message,
) ([]toolCall, error) {
	reqBody := toolRequestBody{
		Messages:   messages,
		Tools:      tools,
		ToolChoice: utils.Ptr("auto"),
	}
	if err := copier.Copy(&reqBody, &settings); err != nil {
		return nil, fmt.Errorf("error applying model settings: %w", err)
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			logger.Warn("tool prompt rejected", "status", resp.Status, "body", string(errorBody))
		}
		return nil, fmt.Errorf("non-OK HTTP status: %s", resp.Status)
	}

	var responseBody toolResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return nil, fmt.Errorf("error unmarshalling response body: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	return responseBody.Choices[0].Message.ToolCalls, nil
}

type toolRequestBody struct {
	Model               string      `json:"model"`
	Messages            []message   `json:"messages"`
	Temperature         *float64    `json:"temperature,omitempty"`
	TopP                *float64    `json:"top_p,omitempty"`
	MaxCompletionTokens int         `json:"max_completion_tokens,omitempty"`
	ReasoningEffort     string      `json:"reasoning_effort,omitempty"`
	Tools               []llms.Tool `json:"tools"`
	ToolChoice          *string     `json:"tool_choice,omitempty"`
}

type toolResponseBody struct {
	Choices []struct {
		Message struct {
			Role      string     `json:"role,omitempty"`
			Content   string     `json:"content,omitempty"`
			ToolCalls []toolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason *string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}
