package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
}

func TestCurrent(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "no", r.URL.Query().Get("aqi"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"location":{"name":"Paris"},"current":{"temp_c":18.0,"temp_f":64.4,"condition":{"text":"Partly cloudy"},"humidity":72,"wind_kph":11.2}}`)
	})

	got, err := client.Current(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, &Current{
		Location:     "Paris",
		TemperatureC: 18.0,
		TemperatureF: 64.4,
		Condition:    "Partly cloudy",
		Humidity:     72,
		WindKPH:      11.2,
	}, got)
}

func TestCurrentProviderError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":1006,"message":"No matching location found."}}`)
	})

	_, err := client.Current(context.Background(), "Atlantis")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 1006, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "No matching location found.", err.Error())
}

func TestCurrentNon2xxWithoutBody(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Current(context.Background(), "Paris")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestForecast(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast.json", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("days"))
		fmt.Fprint(w, `{"location":{"name":"London"},"forecast":{"forecastday":[
			{"date":"2026-10-18","day":{"maxtemp_c":14.1,"mintemp_c":8.3,"condition":{"text":"Light rain"},"daily_chance_of_rain":86}},
			{"date":"2026-10-19","day":{"maxtemp_c":15.0,"mintemp_c":9.0,"condition":{"text":"Sunny"},"daily_chance_of_rain":"0"}}
		]}}`)
	})

	got, err := client.Forecast(context.Background(), "London", 2)
	require.NoError(t, err)
	assert.Equal(t, "London", got.Location)
	require.Len(t, got.Days, 2)
	assert.Equal(t, ForecastDay{Date: "2026-10-18", MaxTempC: 14.1, MinTempC: 8.3, Condition: "Light rain", ChanceOfRain: 86}, got.Days[0])
	assert.Equal(t, 0, got.Days[1].ChanceOfRain)
}

func TestForecastRejectsOutOfRangeDays(t *testing.T) {
	called := false
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	for _, days := range []int{0, 11, -3} {
		_, err := client.Forecast(context.Background(), "London", days)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDaysOutOfRange))
	}
	assert.False(t, called, "out-of-range requests must not reach the provider")
}

func TestTransportErrorRedactsKey(t *testing.T) {
	client, err := NewClient("secret-key", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = client.Current(context.Background(), "Paris")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}
