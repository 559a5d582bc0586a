package nswgov_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/airquality/nswgov"
)

func newTestClient(serverURL string) *nswgov.Client {
	return nswgov.NewClient(nswgov.ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/air-quality/current", r.URL.Path)
		assert.Equal(t, "2000", r.URL.Query().Get("postcode"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"location": {"latitude": -33.8688, "longitude": 151.2093},
				"measurements": {"pm25": 18.2, "pm10": 40.5, "ozone": 22.0, "no2": 12.5, "so2": 1.1}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	raw, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2000"})
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, "2000", raw.Postcode)
	assert.Equal(t, nswgov.ProviderName, raw.Source)
	assert.Equal(t, -33.8688, raw.Lat)
	assert.Equal(t, 151.2093, raw.Lon)
	assert.Equal(t, 18.2, raw.Pollutants.PM25)
	assert.Equal(t, 40.5, raw.Pollutants.PM10)
	assert.Equal(t, 22.0, raw.Pollutants.Ozone)
	assert.Equal(t, 12.5, raw.Pollutants.NO2)
	assert.Equal(t, 1.1, raw.Pollutants.SO2)
}

func TestClient_Fetch_MissingAndUnknownFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// pm10 and so2 absent, extra fields present: neither may fail the fetch.
		w.Write([]byte(`{
			"data": {
				"location": {"latitude": -33.9, "longitude": 151.2, "region": "Sydney East"},
				"measurements": {"pm25": 5.5, "ozone": 10.0, "no2": 4.0, "co": 0.3, "visibility_km": 12}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	raw, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2010"})
	require.NoError(t, err)

	assert.Equal(t, 5.5, raw.Pollutants.PM25)
	assert.Zero(t, raw.Pollutants.PM10, "missing field defaults to 0.0")
	assert.Zero(t, raw.Pollutants.SO2, "missing field defaults to 0.0")
}

func TestClient_Fetch_EmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2999"})
	assert.ErrorIs(t, err, airquality.ErrNoData)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "0000"})
	assert.ErrorIs(t, err, airquality.ErrNoData)
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2000"})
	assert.ErrorIs(t, err, airquality.ErrParse)
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2000"})
	assert.ErrorIs(t, err, airquality.ErrNetwork)
}

func TestClient_Fetch_EnforcesOwnDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := nswgov.NewClient(nswgov.ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: http.DefaultClient,
		Timeout:    50 * time.Millisecond,
	})

	// Caller context has no deadline; the adapter's own must fire.
	start := time.Now()
	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2000"})
	require.Error(t, err)
	assert.ErrorIs(t, err, airquality.ErrNetwork)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestClient_Name(t *testing.T) {
	client := nswgov.NewClient(nswgov.ClientConfig{})
	assert.Equal(t, "nsw_government", client.Name())
}
