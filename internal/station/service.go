package station

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Provider defines the interface for station metadata providers.
type Provider interface {
	// FetchStationIDs retrieves the identifiers of every known station
	// from the provider's directory endpoint.
	FetchStationIDs(ctx context.Context) ([]string, error)

	// FetchStationInfo retrieves the sensor configuration records for a
	// single station. A non-success status is reported by wrapping
	// ErrStationUnavailable.
	FetchStationInfo(ctx context.Context, stationID string) ([]*Record, error)
}

// Mode selects how many records per station survive normalization.
type Mode string

const (
	// ModeSummary keeps only the first record per station. This is the
	// default for a full-directory run.
	ModeSummary Mode = "summary"

	// ModeFields keeps every record per station, one row per sensor
	// configuration.
	ModeFields Mode = "fields"
)

// Config holds configuration for the station metadata service.
type Config struct {
	// Provider is the station metadata source.
	Provider Provider

	// Repository is the persistence sink.
	Repository Repository

	// Logger for pipeline operations.
	Logger zerolog.Logger

	// Concurrency caps the number of in-flight per-station requests.
	// The source service degrades under parallel load, so the default is 1.
	Concurrency int

	// Mode selects summary or fields normalization (default: ModeSummary).
	Mode Mode

	// Source tags every output row (default: "cdec").
	Source string

	// State tags every output row (default: "CA").
	State string

	// Timezone tags every output row (default: "PDT"). The source does
	// not report timezones per station, so this is an operator-supplied
	// value rather than derived data.
	Timezone string
}

// Service runs the station metadata pipeline: directory fetch, throttled
// per-station fetch, normalization, projection, sink handoff.
type Service struct {
	provider    Provider
	repo        Repository
	logger      zerolog.Logger
	concurrency int
	mode        Mode
	source      string
	state       string
	timezone    string
}

// NewService creates a new station metadata service.
func NewService(cfg Config) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeSummary
	}

	source := cfg.Source
	if source == "" {
		source = "cdec"
	}

	state := cfg.State
	if state == "" {
		state = "CA"
	}

	timezone := cfg.Timezone
	if timezone == "" {
		timezone = "PDT"
	}

	return &Service{
		provider:    cfg.Provider,
		repo:        cfg.Repository,
		logger:      cfg.Logger,
		concurrency: concurrency,
		mode:        mode,
		source:      source,
		state:       state,
		timezone:    timezone,
	}
}

// SyncResult summarizes one metadata run.
type SyncResult struct {
	RunID     string
	StartTime time.Time
	Duration  time.Duration
	Stations  int
	Rows      int
	Outcomes  []FetchOutcome
}

// Succeeded returns the number of stations that produced records.
func (r *SyncResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == FetchOK {
			n++
		}
	}
	return n
}

// SyncMetadata runs the full pipeline once. A directory fetch failure or a
// run in which no station produced records is fatal; individual station
// failures are absorbed and reported only through the result's outcomes.
func (s *Service) SyncMetadata(ctx context.Context) (*SyncResult, error) {
	runID := uuid.NewString()
	logger := s.logger.With().Str("run_id", runID).Str("source", s.source).Logger()

	result := &SyncResult{
		RunID:     runID,
		StartTime: time.Now(),
	}

	logger.Info().Msg("obtaining station metadata")

	ids, err := s.provider.FetchStationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch station directory: %w", err)
	}
	result.Stations = len(ids)

	logger.Info().
		Int("stations", len(ids)).
		Int("concurrency", s.concurrency).
		Str("mode", string(s.mode)).
		Msg("fetching per-station info")

	result.Outcomes = s.fetchAll(ctx, logger, ids)

	rows := s.project(result.Outcomes)
	if len(rows) == 0 {
		return nil, ErrNoMetadata
	}
	result.Rows = len(rows)

	description := strings.ToUpper(s.source) + " metadata"
	if err := s.repo.InsertData(ctx, rows, description, true); err != nil {
		return nil, fmt.Errorf("insert metadata: %w", err)
	}

	result.Duration = time.Since(result.StartTime)

	logger.Info().
		Dur("duration", result.Duration).
		Int("rows", result.Rows).
		Int("succeeded", result.Succeeded()).
		Int("omitted", result.Stations-result.Succeeded()).
		Msg("station metadata run completed")

	return result, nil
}

// fetchAll dispatches one request per station id through a bounded worker
// pool. The ceiling keeps writers off the outcomes slice; accumulation
// happens on the collector side regardless, so raising the ceiling stays
// safe.
func (s *Service) fetchAll(ctx context.Context, logger zerolog.Logger, ids []string) []FetchOutcome {
	idsChan := make(chan string, len(ids))
	outcomesChan := make(chan FetchOutcome, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idsChan {
				select {
				case <-ctx.Done():
					return
				default:
					outcomesChan <- s.fetchStation(ctx, logger, id)
				}
			}
		}()
	}

	for _, id := range ids {
		idsChan <- id
	}
	close(idsChan)

	go func() {
		wg.Wait()
		close(outcomesChan)
	}()

	outcomes := make([]FetchOutcome, 0, len(ids))
	for outcome := range outcomesChan {
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// fetchStation fetches one station and classifies the result. Nothing here
// aborts the run; a station that cannot be fetched is simply absent from
// the output.
func (s *Service) fetchStation(ctx context.Context, logger zerolog.Logger, id string) FetchOutcome {
	records, err := s.provider.FetchStationInfo(ctx, id)
	switch {
	case err != nil && isUnavailable(err):
		return FetchOutcome{StationID: id, Status: FetchSkipped, Err: err}
	case err != nil:
		return FetchOutcome{StationID: id, Status: FetchFailed, Err: err}
	case len(records) == 0:
		return FetchOutcome{StationID: id, Status: FetchSkipped, Err: ErrStationUnavailable}
	}

	logger.Debug().Str("station_id", id).Msg("got station metadata")

	return FetchOutcome{StationID: id, Status: FetchOK, Records: records}
}

// project merges successful outcomes into the canonical row set. Summary
// mode keeps the first record per station, fields mode keeps them all.
// Records without a station identifier are dropped; every emitted row has
// a non-empty primary_id.
func (s *Service) project(outcomes []FetchOutcome) []*MetadataRow {
	var rows []*MetadataRow
	for _, outcome := range outcomes {
		if outcome.Status != FetchOK {
			continue
		}

		records := outcome.Records
		if s.mode == ModeSummary && len(records) > 1 {
			records = records[:1]
		}

		for _, rec := range records {
			if rec.StationID == "" {
				continue
			}
			rows = append(rows, s.projectRecord(rec))
		}
	}
	return rows
}

// projectRecord maps one source record into the canonical schema and
// injects the constant tags.
func (s *Service) projectRecord(rec *Record) *MetadataRow {
	return &MetadataRow{
		PrimaryID:       rec.StationID,
		StationName:     rec.Name,
		Latitude:        rec.Latitude,
		Longitude:       rec.Longitude,
		Elevation:       rec.Elevation,
		PrimaryProvider: rec.Agency,
		ReportedLat:     rec.Latitude,
		ReportedLong:    rec.Longitude,
		Source:          s.source,
		State:           s.state,
		Timezone:        s.timezone,
	}
}
