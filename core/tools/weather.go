package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/koscakluka/ema-voice/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	WeatherName = "get_weather"

	defaultWeatherURL = "https://wttr.in"
)

type weatherTool struct {
	baseURL string
	client  *http.Client
}

type WeatherOption func(*weatherTool)

func WithWeatherURL(baseURL string) WeatherOption {
	return func(w *weatherTool) {
		if baseURL != "" {
			w.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

func WithWeatherHTTPClient(client *http.Client) WeatherOption {
	return func(w *weatherTool) {
		if client != nil {
			w.client = client
		}
	}
}

// Weather reports current conditions for a city using wttr.in's one line
// format.
func Weather(opts ...WeatherOption) llms.Tool {
	w := &weatherTool{
		baseURL: defaultWeatherURL,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(w)
	}

	return llms.NewTool(WeatherName,
		"Current weather for a city. Use it only for city specific weather questions.",
		map[string]llms.ParameterBase{
			"city": {Type: "string", Description: "Name of the city"},
		},
		func(ctx context.Context, arguments struct {
			City string `json:"city"`
		}) (string, error) {
			return w.lookup(ctx, arguments.City)
		})
}

func (w *weatherTool) lookup(ctx context.Context, city string) (report string, err error) {
	ctx, span := tracer.Start(ctx, "get weather")
	defer span.End()
	span.SetAttributes(attribute.String("weather.city", city))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city is required")
	}

	requestURL := w.baseURL + "/" + url.PathEscape(city) + "?format=3"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating weather request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error requesting weather: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		logger.Warn("weather lookup failed", "city", city, "status", resp.Status)
		return fmt.Sprintf("Could not retrieve weather for %s.", city), nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading weather response: %w", err)
	}
	report = strings.TrimSpace(string(body))
	logger.Info("retrieved weather", "city", city, "report", report)
	return report, nil
}
