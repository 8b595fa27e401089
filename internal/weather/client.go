// In file: internal/weather/client.go

// Package weather is the adapter for the WeatherAPI.com REST service. It exposes
// the two read-only queries the agents need, current conditions and an N-day
// forecast, and flattens the provider's nested payload into the small records
// handed to the model.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the public WeatherAPI.com v1 endpoint.
	DefaultBaseURL = "http://api.weatherapi.com/v1"

	// MinForecastDays and MaxForecastDays bound the forecast horizon.
	MinForecastDays = 1
	MaxForecastDays = 10
	// DefaultForecastDays is used when the caller does not ask for a horizon.
	DefaultForecastDays = 3
)

// ErrDaysOutOfRange is returned by Forecast for a horizon outside [MinForecastDays, MaxForecastDays].
var ErrDaysOutOfRange = fmt.Errorf("days must be between %d and %d", MinForecastDays, MaxForecastDays)

// APIError is a provider-reported logical error, such as an unknown location.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Current holds the current conditions for a location.
type Current struct {
	Location     string  `json:"location"`
	TemperatureC float64 `json:"temperature_c"`
	TemperatureF float64 `json:"temperature_f"`
	Condition    string  `json:"condition"`
	Humidity     int     `json:"humidity"`
	WindKPH      float64 `json:"wind_kph"`
}

// ForecastDay is one day of a forecast.
type ForecastDay struct {
	Date         string  `json:"date"`
	MaxTempC     float64 `json:"max_temp_c"`
	MinTempC     float64 `json:"min_temp_c"`
	Condition    string  `json:"condition"`
	ChanceOfRain int     `json:"chance_of_rain"`
}

// Forecast holds a multi-day forecast for a location.
type Forecast struct {
	Location string        `json:"location"`
	Days     []ForecastDay `json:"forecast"`
}

// Client talks to the weather endpoint. It performs a single attempt per query
// and relies on the HTTP client's defaults and the caller's context for timeouts.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a weather client. The API key is mandatory.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("weather API key cannot be empty")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// --- Provider payloads ---

type apiLocation struct {
	Name string `json:"name"`
}

type apiCondition struct {
	Text string `json:"text"`
}

type apiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type currentResponse struct {
	Location apiLocation `json:"location"`
	Current  struct {
		TempC     float64      `json:"temp_c"`
		TempF     float64      `json:"temp_f"`
		Condition apiCondition `json:"condition"`
		Humidity  int          `json:"humidity"`
		WindKPH   float64      `json:"wind_kph"`
	} `json:"current"`
}

type forecastResponse struct {
	Location apiLocation `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC          float64      `json:"maxtemp_c"`
				MinTempC          float64      `json:"mintemp_c"`
				Condition         apiCondition `json:"condition"`
				DailyChanceOfRain json.Number  `json:"daily_chance_of_rain"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Current returns the current conditions for location.
func (c *Client) Current(ctx context.Context, location string) (*Current, error) {
	params := url.Values{}
	params.Set("q", location)

	var resp currentResponse
	if err := c.get(ctx, "current.json", params, &resp); err != nil {
		return nil, err
	}
	return &Current{
		Location:     resp.Location.Name,
		TemperatureC: resp.Current.TempC,
		TemperatureF: resp.Current.TempF,
		Condition:    resp.Current.Condition.Text,
		Humidity:     resp.Current.Humidity,
		WindKPH:      resp.Current.WindKPH,
	}, nil
}

// Forecast returns a days-long forecast for location. Out-of-range horizons are
// rejected locally instead of being passed through to the provider.
func (c *Client) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return nil, fmt.Errorf("%w (got %d)", ErrDaysOutOfRange, days)
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))

	var resp forecastResponse
	if err := c.get(ctx, "forecast.json", params, &resp); err != nil {
		return nil, err
	}

	out := &Forecast{
		Location: resp.Location.Name,
		Days:     make([]ForecastDay, 0, len(resp.Forecast.ForecastDay)),
	}
	for _, d := range resp.Forecast.ForecastDay {
		out.Days = append(out.Days, ForecastDay{
			Date:         d.Date,
			MaxTempC:     d.Day.MaxTempC,
			MinTempC:     d.Day.MinTempC,
			Condition:    d.Day.Condition.Text,
			ChanceOfRain: chanceOfRain(d.Day.DailyChanceOfRain),
		})
	}
	return out, nil
}

// get performs one GET against the provider and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)
	params.Set("aqi", "no")
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create weather API request: %w", err)
	}
	req.Header.Set("User-Agent", "Weather-Agents/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call weather API: %w", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read weather API response: %w", err)
	}

	// The provider reports logical errors in the body, usually alongside a 4xx.
	var apiErr apiErrorBody
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != nil {
		log.Printf("Weather API error %d for %s: %s", apiErr.Error.Code, endpoint, apiErr.Error.Message)
		return &APIError{StatusCode: resp.StatusCode, Code: apiErr.Error.Code, Message: apiErr.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("weather API returned status %d", resp.StatusCode)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse weather API response: %w", err)
	}
	return nil
}

// chanceOfRain accepts both the numeric and the quoted form the provider has used.
func chanceOfRain(n json.Number) int {
	if n == "" {
		return 0
	}
	if v, err := n.Int64(); err == nil {
		return int(v)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}

// redactKey keeps the API key, which travels in the query string, out of transport errors.
func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}
