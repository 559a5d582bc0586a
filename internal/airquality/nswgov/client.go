// Package nswgov provides the primary source adapter, backed by the NSW
// government air quality API.
package nswgov

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/provider/resilience"
)

const (
	// ProviderName identifies this provider in reading provenance.
	ProviderName = "nsw_government"

	// DefaultBaseURL is the NSW government air quality API base URL.
	DefaultBaseURL = "https://api.airquality.nsw.gov.au"

	// defaultTimeout is the adapter's own request deadline, enforced
	// regardless of any caller-level timeout.
	defaultTimeout = 30 * time.Second
)

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the NSW government client.
type ClientConfig struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient executes requests. If nil, a resilient client with
	// defaults is created.
	HTTPClient HTTPDoer

	// Timeout is the per-fetch deadline (default: 30s).
	Timeout time.Duration

	// Registry receives success/failure health signals (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is the NSW government air quality API adapter.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	timeout    time.Duration
	registry   *resilience.Registry
	logger     zerolog.Logger
}

// NewClient creates a new NSW government adapter.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rc := resilience.DefaultClientConfig(ProviderName)
		rc.Timeout = timeout
		client := resilience.NewClient(rc)
		if cfg.Registry != nil {
			cfg.Registry.Register(ProviderName, client)
		}
		httpClient = client
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		registry:   cfg.Registry,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return ProviderName }

// API response types (NSW government format).

type currentResponse struct {
	Data *observationData `json:"data"`
}

type observationData struct {
	Location     locationData     `json:"location"`
	Measurements measurementsData `json:"measurements"`
}

type locationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// measurementsData maps the provider's field names onto the canonical
// pollutant set. Absent fields decode to zero; unknown fields are ignored.
type measurementsData struct {
	PM25  float64 `json:"pm25"`
	PM10  float64 `json:"pm10"`
	Ozone float64 `json:"ozone"`
	NO2   float64 `json:"no2"`
	SO2   float64 `json:"so2"`
}

// Fetch retrieves the current observation for a postcode.
func (c *Client) Fetch(ctx context.Context, loc airquality.Location) (*airquality.RawMeasurement, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v1/air-quality/current?postcode=%s&format=json", c.baseURL, loc.Postcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %v: %w", err, airquality.ErrNetwork)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(err)
		return nil, fmt.Errorf("fetch current air quality: %v: %w", err, airquality.ErrNetwork)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, fmt.Errorf("postcode %s: %w", loc.Postcode, airquality.ErrNoData)
	default:
		err := fmt.Errorf("unexpected status %d: %w", resp.StatusCode, airquality.ErrNetwork)
		c.recordFailure(err)
		return nil, err
	}

	var result currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		err := fmt.Errorf("decode response: %v: %w", err, airquality.ErrParse)
		c.recordFailure(err)
		return nil, err
	}

	if result.Data == nil {
		return nil, fmt.Errorf("postcode %s: empty payload: %w", loc.Postcode, airquality.ErrNoData)
	}

	c.recordSuccess()
	return c.toRawMeasurement(result.Data, loc), nil
}

// toRawMeasurement converts an API observation to the canonical form.
func (c *Client) toRawMeasurement(data *observationData, loc airquality.Location) *airquality.RawMeasurement {
	return &airquality.RawMeasurement{
		Postcode: loc.Postcode,
		Lat:      data.Location.Latitude,
		Lon:      data.Location.Longitude,
		Pollutants: airquality.Pollutants{
			PM25:  data.Measurements.PM25,
			PM10:  data.Measurements.PM10,
			Ozone: data.Measurements.Ozone,
			NO2:   data.Measurements.NO2,
			SO2:   data.Measurements.SO2,
		},
		Source:     ProviderName,
		ObservedAt: time.Now().UTC(),
	}
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}
