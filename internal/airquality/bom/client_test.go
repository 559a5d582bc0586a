package bom_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/airquality/bom"
)

func newTestClient(serverURL string) *bom.Client {
	return bom.NewClient(bom.ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/air-quality/current", r.URL.Path)
		assert.Equal(t, "2500", r.URL.Query().Get("postcode"))

		// BOM field names differ from the canonical set.
		w.Write([]byte(`{
			"observations": {
				"location": {"lat": -34.4278, "lon": 150.8931},
				"air_quality": {"pm25": 9.0, "pm10": 60.0, "ozone": 15.0, "no2": 8.0, "so2": 2.0}
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	raw, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2500"})
	require.NoError(t, err)

	assert.Equal(t, "2500", raw.Postcode)
	assert.Equal(t, bom.ProviderName, raw.Source)
	assert.Equal(t, -34.4278, raw.Lat)
	assert.Equal(t, 150.8931, raw.Lon)
	assert.Equal(t, 9.0, raw.Pollutants.PM25)
	assert.Equal(t, 60.0, raw.Pollutants.PM10)
}

func TestClient_Fetch_MissingFieldsDefaultToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": {"location": {"lat": -33.0, "lon": 151.0}, "air_quality": {}}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	raw, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2300"})
	require.NoError(t, err)
	assert.Equal(t, airquality.Pollutants{}, raw.Pollutants)
}

func TestClient_Fetch_EmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2300"})
	assert.ErrorIs(t, err, airquality.ErrNoData)
}

func TestClient_Fetch_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"observations": "oops"`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Fetch(context.Background(), airquality.Location{Postcode: "2300"})
	assert.ErrorIs(t, err, airquality.ErrParse)
}

func TestClient_Name(t *testing.T) {
	client := bom.NewClient(bom.ClientConfig{})
	assert.Equal(t, "bom", client.Name())
}
