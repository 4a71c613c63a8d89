package llms

import (
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-voice/core/llms"

var tracer = otel.Tracer(scopeName)
