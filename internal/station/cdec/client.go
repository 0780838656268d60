// Package cdec provides a client for the California Data Exchange Center
// station services.
package cdec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wxdb/wxdb/internal/provider/resilience"
	"github.com/wxdb/wxdb/internal/station"
)

const (
	// DefaultBaseURL is the base URL for the CDEC station servlet.
	DefaultBaseURL = "http://cdec.water.ca.gov/cdecstation2/CDecServlet"

	// ProviderName identifies this provider.
	ProviderName = "cdec"
)

// ClientConfig holds configuration for the CDEC client.
type ClientConfig struct {
	// BaseURL is the servlet base URL (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use for all calls. If nil,
	// resilient clients are created: the directory call retries on
	// transient failures, per-station calls are single-attempt so a run
	// never hammers the service about one station.
	HTTPClient HTTPDoer

	// Timeout for individual requests (default: 15s).
	Timeout time.Duration
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a CDEC station service client.
type Client struct {
	baseURL         string
	directoryClient HTTPDoer
	stationClient   HTTPDoer
}

// NewClient creates a new CDEC client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	directoryClient := cfg.HTTPClient
	stationClient := cfg.HTTPClient
	if cfg.HTTPClient == nil {
		directoryClient = resilience.NewClient(resilience.ClientConfig{
			Name:            "cdec-directory",
			Timeout:         timeout,
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		})
		stationClient = resilience.NewClient(resilience.ClientConfig{
			Name:       "cdec-station",
			Timeout:    timeout,
			MaxRetries: 0,
		})
	}

	return &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		directoryClient: directoryClient,
		stationClient:   stationClient,
	}
}

// API response types. Both endpoints return the same top-level shape: an
// array of station field dictionaries under the STATION key. Numeric
// fields arrive as JSON numbers or quoted numbers depending on the
// station, so they decode through looseFloat.

type stationListResponse struct {
	Station []stationRecord `json:"STATION"`
}

type stationRecord struct {
	StationID string     `json:"STATION_ID"`
	Name      *string    `json:"STATION_NAME"`
	Latitude  looseFloat `json:"LATITUDE"`
	Longitude looseFloat `json:"LONGITUDE"`
	Elevation looseFloat `json:"ELEVATION"`
	Agency    *string    `json:"AGENCY_NAME"`
}

// FetchStationIDs retrieves the full station directory and returns the
// identifiers in directory order. Any failure here is fatal to a run;
// without the directory nothing downstream can proceed.
func (c *Client) FetchStationIDs(ctx context.Context) ([]string, error) {
	reqURL := c.baseURL + "/getAllStations"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.directoryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from station directory endpoint", resp.StatusCode)
	}

	var result stationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode station directory response: %w", err)
	}

	ids := make([]string, 0, len(result.Station))
	for _, s := range result.Station {
		if s.StationID == "" {
			continue
		}
		ids = append(ids, s.StationID)
	}

	return ids, nil
}

// FetchStationInfo retrieves the sensor configuration records for one
// station. A non-success status wraps station.ErrStationUnavailable so the
// caller can classify the omission.
func (c *Client) FetchStationInfo(ctx context.Context, stationID string) ([]*station.Record, error) {
	reqURL := fmt.Sprintf("%s/getStationInfo?stationID=%s", c.baseURL, url.QueryEscape(stationID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.stationClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch station %s: %w", stationID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for station %s", station.ErrStationUnavailable, resp.StatusCode, stationID)
	}

	var result stationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode station %s response: %w", stationID, err)
	}

	records := make([]*station.Record, 0, len(result.Station))
	for _, s := range result.Station {
		records = append(records, toRecord(&s))
	}

	return records, nil
}

// toRecord converts an API station record to the domain Record.
func toRecord(s *stationRecord) *station.Record {
	return &station.Record{
		StationID: strings.TrimSpace(s.StationID),
		Name:      nonEmpty(s.Name),
		Latitude:  s.Latitude.value(),
		Longitude: s.Longitude.value(),
		Elevation: s.Elevation.value(),
		Agency:    nonEmpty(s.Agency),
	}
}

// nonEmpty normalizes blank strings to the no-value marker.
func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// Ensure Client implements the provider interface.
var _ station.Provider = (*Client)(nil)
