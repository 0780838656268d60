// Package station provides station metadata retrieval and normalization.
package station

import (
	"errors"
)

// Pipeline errors.
var (
	// ErrNoMetadata is returned when every per-station fetch failed and
	// there is nothing to hand to the sink.
	ErrNoMetadata = errors.New("no station metadata retrieved")

	// ErrStationUnavailable marks a per-station response that came back
	// with an unexpected HTTP status or an empty body.
	ErrStationUnavailable = errors.New("station unavailable")
)

// Record is one reported station/sensor configuration record as received
// from a provider, before projection into the canonical schema. A station
// with several sensor configurations yields several records sharing the
// same StationID.
//
// Optional fields are pointers; nil is the explicit "no value" marker and
// reaches the sink as SQL NULL.
type Record struct {
	StationID string
	Name      *string
	Latitude  *float64
	Longitude *float64
	Elevation *float64
	Agency    *string
}

// MetadataRow is one row of the canonical tbl_metadata relation. The
// column set is fixed regardless of which source fields were present.
type MetadataRow struct {
	PrimaryID       string
	StationName     *string
	Latitude        *float64
	Longitude       *float64
	Elevation       *float64
	PrimaryProvider *string

	// ReportedLat/ReportedLong record the coordinates as originally
	// submitted by the source. They start equal to Latitude/Longitude and
	// may be corrected downstream when a station is found to be mislocated.
	ReportedLat  *float64
	ReportedLong *float64

	Source   string
	State    string
	Timezone string
}

// isUnavailable reports whether err marks a station the service answered
// for but had nothing usable on.
func isUnavailable(err error) bool {
	return errors.Is(err, ErrStationUnavailable)
}

// FetchStatus classifies the outcome of a single per-station fetch.
type FetchStatus string

const (
	// FetchOK means the station's records were retrieved and parsed.
	FetchOK FetchStatus = "ok"

	// FetchSkipped means the service answered but had nothing usable for
	// the station (unexpected status, empty record list).
	FetchSkipped FetchStatus = "skipped"

	// FetchFailed means the request or the payload parse failed.
	FetchFailed FetchStatus = "failed"
)

// FetchOutcome is the typed per-station result of the bulk fetch. Stations
// that did not produce records are omitted from the output table; the
// outcome records why.
type FetchOutcome struct {
	StationID string
	Status    FetchStatus
	Records   []*Record
	Err       error
}
