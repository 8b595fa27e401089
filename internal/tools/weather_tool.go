// In file: internal/tools/weather_tool.go
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dileep-u-k/weather-agents/internal/weather"
)

// --- Weather Tool Implementations ---

const (
	CurrentWeatherToolName = "get_current_weather"
	ForecastToolName       = "get_weather_forecast"

	locationDescription = "The city and state, e.g., San Francisco, CA or country e.g., France"
)

// WeatherProvider is the subset of the weather adapter the tools depend on.
type WeatherProvider interface {
	Current(ctx context.Context, location string) (*weather.Current, error)
	Forecast(ctx context.Context, location string, days int) (*weather.Forecast, error)
}

// CurrentWeatherTool reports the current conditions for a location.
type CurrentWeatherTool struct {
	provider WeatherProvider
}

// Statically verify that CurrentWeatherTool implements the ToolExecutor interface.
var _ ToolExecutor = (*CurrentWeatherTool)(nil)

// NewCurrentWeatherTool creates the current-conditions tool.
func NewCurrentWeatherTool(provider WeatherProvider) *CurrentWeatherTool {
	return &CurrentWeatherTool{provider: provider}
}

// Definition describes the tool to the LLM.
func (t *CurrentWeatherTool) Definition() Tool {
	return NewFunctionTool(
		CurrentWeatherToolName,
		"Get the current weather in a given location",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"location": {Type: "string", Description: locationDescription},
			},
			Required: []string{"location"},
		},
	)
}

// Execute fetches the current conditions and returns them as a JSON object.
// Network and provider failures come back as displayable error text.
func (t *CurrentWeatherTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Location string `json:"location"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for weather tool: %w", err)
	}
	if args.Location == "" {
		return errorResult("Location cannot be empty."), nil
	}

	current, err := t.provider.Current(ctx, args.Location)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return encodeResult(current)
}

// ForecastTool reports a multi-day forecast for a location.
type ForecastTool struct {
	provider WeatherProvider
}

var _ ToolExecutor = (*ForecastTool)(nil)

// NewForecastTool creates the forecast tool.
func NewForecastTool(provider WeatherProvider) *ForecastTool {
	return &ForecastTool{provider: provider}
}

// Definition describes the tool to the LLM. The days bounds are enforced by
// the registry's argument validation before Execute runs.
func (t *ForecastTool) Definition() Tool {
	return NewFunctionTool(
		ForecastToolName,
		"Get the weather forecast for a location for a specific number of days",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"location": {Type: "string", Description: locationDescription},
				"days": {
					Type:        "integer",
					Description: "The number of days to forecast (1-10)",
					Minimum:     bound(weather.MinForecastDays),
					Maximum:     bound(weather.MaxForecastDays),
				},
			},
			Required: []string{"location"},
		},
	)
}

// Execute fetches the forecast and returns it as a JSON object.
func (t *ForecastTool) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Location string `json:"location"`
		Days     *int   `json:"days"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("invalid arguments for forecast tool: %w", err)
	}
	if args.Location == "" {
		return errorResult("Location cannot be empty."), nil
	}
	days := weather.DefaultForecastDays
	if args.Days != nil {
		days = *args.Days
	}

	forecast, err := t.provider.Forecast(ctx, args.Location, days)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return encodeResult(forecast)
}

func encodeResult(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(b), nil
}
