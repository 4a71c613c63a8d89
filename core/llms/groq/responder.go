package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/koscakluka/ema-voice/core/llms"
	"github.com/koscakluka/ema-voice/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel    = "openai/gpt-oss-120b"
)

const DefaultInstructions = `# Persona
You are a personal assistant named Friday, inspired by the AI from the movie Iron Man.

# Personality
- Speak like a classy, sarcastic butler.
- Acknowledge requests politely with phrases like "Will do, Sir.", "Roger Boss." or "Check!".
- Be confident, precise, and efficient.
- When a tool fits the request, call it instead of answering from memory.
- Never make up fee submission steps; they come from the fee_submission_guide tool.

# Response Format
- Your reply is read out loud, so keep it to one or two short sentences.
- Do not use markdown, lists or emoji.`

var (
	ErrAPIKeyMissing = errors.New("groq api key not found")
	ErrEmptyReply    = errors.New("model returned an empty reply")
)

type modelSettings struct {
	Model               string
	Temperature         *float64
	TopP                *float64
	MaxCompletionTokens int
	ReasoningEffort     string
}

// reply is the shape the model is asked to answer in.
type reply struct {
	Response string `json:"response" jsonschema:"description=What the assistant says out loud in one or two short sentences"`
}

// Responder answers user transcripts with Groq chat completions.
type Responder struct {
	apiKey       string
	endpoint     string
	instructions string
	settings     modelSettings
	client       *http.Client
	tools        []llms.Tool
}

type ResponderOption func(*Responder)

func WithAPIKey(apiKey string) ResponderOption {
	return func(r *Responder) { r.apiKey = apiKey }
}

func WithModel(model string) ResponderOption {
	return func(r *Responder) {
		if model != "" {
			r.settings.Model = model
		}
	}
}

func WithTemperature(temperature float64) ResponderOption {
	return func(r *Responder) { r.settings.Temperature = utils.Ptr(temperature) }
}

func WithInstructions(instructions string) ResponderOption {
	return func(r *Responder) { r.instructions = instructions }
}

func WithEndpoint(endpoint string) ResponderOption {
	return func(r *Responder) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// WithTools makes the tools available to the model. Tool calls are resolved
// before the reply is composed.
func WithTools(tools ...llms.Tool) ResponderOption {
	return func(r *Responder) { r.tools = append(r.tools, tools...) }
}

// WithHTTPClient replaces the default client. Its transport is used as is,
// without tracing instrumentation.
func WithHTTPClient(client *http.Client) ResponderOption {
	return func(r *Responder) {
		if client != nil {
			r.client = client
		}
	}
}

func NewResponder(opts ...ResponderOption) (*Responder, error) {
	responder := &Responder{
		endpoint:     defaultEndpoint,
		instructions: DefaultInstructions,
		settings: modelSettings{
			Model:               DefaultModel,
			Temperature:         utils.Ptr(1.0),
			TopP:                utils.Ptr(1.0),
			MaxCompletionTokens: 8192,
			ReasoningEffort:     "medium",
		},
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	if apiKey, ok := os.LookupEnv("GROQ_API_KEY"); ok {
		responder.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(responder)
	}

	if responder.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	return responder, nil
}

func (r *Responder) Generate(ctx context.Context, transcript string) (string, error) {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.model", r.settings.Model),
		attribute.Int("request.length", len(transcript)),
	)

	messages := toMessages(r.instructions, transcript)
	if len(r.tools) > 0 {
		var err error
		messages, err = resolveToolCalls(ctx, r.client, r.endpoint, r.apiKey, r.settings, r.tools, messages)
		if err != nil {
			return "", fmt.Errorf("failed to resolve tool calls: %w", err)
		}
	}

	output, err := promptJSONSchema[reply](ctx, r.client, r.endpoint, r.apiKey, r.settings, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	response := strings.TrimSpace(output.Response)
	if response == "" {
		return "", ErrEmptyReply
	}
	return response, nil
}
