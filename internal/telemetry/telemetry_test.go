package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpointKeepsGlobalProvider(t *testing.T) {
	before := otel.GetTracerProvider()

	shutdown, err := Setup(context.Background(), "", "ema-voice")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	assert.Equal(t, before, otel.GetTracerProvider())
}

func TestNewTracerProviderBuildsWithoutConnecting(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), "http://127.0.0.1:4318", "ema-voice")
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}
