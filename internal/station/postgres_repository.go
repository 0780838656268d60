package station

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository backed
// by the tbl_metadata relation.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL station repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertData upserts the batch into tbl_metadata keyed by primary_id. All
// rows go in a single transaction so a failed run leaves no partial batch
// behind.
func (r *PostgresRepository) InsertData(ctx context.Context, rows []*MetadataRow, description string, metadata bool) error {
	if !metadata {
		return fmt.Errorf("repository only stores metadata batches, got data batch %q", description)
	}

	query := `
		INSERT INTO tbl_metadata (
			primary_id, station_name, latitude, longitude, elevation,
			primary_provider, reported_lat, reported_long, source, state, timezone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (primary_id) DO UPDATE SET
			station_name = EXCLUDED.station_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			elevation = EXCLUDED.elevation,
			primary_provider = EXCLUDED.primary_provider,
			reported_lat = EXCLUDED.reported_lat,
			reported_long = EXCLUDED.reported_long,
			source = EXCLUDED.source,
			state = EXCLUDED.state,
			timezone = EXCLUDED.timezone
	`

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, row := range rows {
			_, err := tx.Exec(ctx, query,
				row.PrimaryID,
				row.StationName,
				row.Latitude,
				row.Longitude,
				row.Elevation,
				row.PrimaryProvider,
				row.ReportedLat,
				row.ReportedLong,
				row.Source,
				row.State,
				row.Timezone,
			)
			if err != nil {
				return fmt.Errorf("upsert station %s: %w", row.PrimaryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert %q: %w", description, err)
	}

	return nil
}

// Ensure PostgresRepository implements Repository.
var _ Repository = (*PostgresRepository)(nil)
