package cdec_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxdb/wxdb/internal/station"
	"github.com/wxdb/wxdb/internal/station/cdec"
)

func newTestClient(serverURL string) *cdec.Client {
	return cdec.NewClient(cdec.ClientConfig{
		BaseURL:    serverURL,
		HTTPClient: http.DefaultClient,
	})
}

func TestClient_FetchStationIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getAllStations", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"STATION": [
			{"STATION_ID": "AGP", "STATION_NAME": "ARGENTINE PEAK"},
			{"STATION_ID": "BLC", "STATION_NAME": "BLUE CANYON"},
			{"STATION_ID": "", "STATION_NAME": "UNNAMED"},
			{"STATION_ID": "CSL", "STATION_NAME": "CENTRAL SIERRA LAB"}
		]}`))
	}))
	defer server.Close()

	ids, err := newTestClient(server.URL).FetchStationIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AGP", "BLC", "CSL"}, ids)
}

func TestClient_FetchStationIDs_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStationIDs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestClient_FetchStationIDs_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStationIDs(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode station directory response")
}

func TestClient_FetchStationInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getStationInfo", r.URL.Path)
		assert.Equal(t, "AGP", r.URL.Query().Get("stationID"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"STATION": [{
			"STATION_ID": "AGP",
			"STATION_NAME": "ARGENTINE PEAK",
			"LATITUDE": 39.1234,
			"LONGITUDE": -120.5678,
			"ELEVATION": 8200,
			"AGENCY_NAME": "CA Dept of Water Resources"
		}]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "AGP")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "AGP", rec.StationID)
	require.NotNil(t, rec.Name)
	assert.Equal(t, "ARGENTINE PEAK", *rec.Name)
	require.NotNil(t, rec.Latitude)
	assert.Equal(t, 39.1234, *rec.Latitude)
	require.NotNil(t, rec.Longitude)
	assert.Equal(t, -120.5678, *rec.Longitude)
	require.NotNil(t, rec.Elevation)
	assert.Equal(t, 8200.0, *rec.Elevation)
	require.NotNil(t, rec.Agency)
}

func TestClient_FetchStationInfo_QuotedAndMissingNumbers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Numeric fields arrive quoted for some stations, empty or null
		// for others.
		_, _ = w.Write([]byte(`{"STATION": [{
			"STATION_ID": "BLC",
			"STATION_NAME": "",
			"LATITUDE": "39.276",
			"LONGITUDE": null,
			"ELEVATION": "",
			"AGENCY_NAME": null
		}]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "BLC")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "BLC", rec.StationID)
	assert.Nil(t, rec.Name, "blank name normalizes to no value")
	require.NotNil(t, rec.Latitude)
	assert.Equal(t, 39.276, *rec.Latitude)
	assert.Nil(t, rec.Longitude)
	assert.Nil(t, rec.Elevation)
	assert.Nil(t, rec.Agency)
}

func TestClient_FetchStationInfo_MultipleSensorRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"STATION": [
			{"STATION_ID": "CSL", "LATITUDE": 39.3, "LONGITUDE": -120.4},
			{"STATION_ID": "CSL", "LATITUDE": 39.3, "LONGITUDE": -120.4}
		]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "CSL")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, records[0].StationID, records[1].StationID)
}

func TestClient_FetchStationInfo_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "AGP")
	require.ErrorIs(t, err, station.ErrStationUnavailable)
}

func TestClient_FetchStationInfo_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"STATION": [{"STATION_ID": "AGP", "LATITUDE": "not-a-number"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "AGP")
	require.Error(t, err)
	assert.NotErrorIs(t, err, station.ErrStationUnavailable)
}
