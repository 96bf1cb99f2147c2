package trips

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greenroute/greenroute/internal/routing"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// The table is created by database.Migrate.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const tripColumns = `
	id, user_id, category, from_label, to_label,
	origin_lat, origin_lon, destination_lat, destination_lon,
	distance_km, pollution_score, shade_score, carbon_savings, air_quality_improvement,
	created_at`

// Create stores a new trip.
func (r *PostgresRepository) Create(ctx context.Context, t *Trip) error {
	query := `INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		string(t.Category),
		t.From,
		t.To,
		t.Origin.Lat,
		t.Origin.Lon,
		t.Destination.Lat,
		t.Destination.Lon,
		t.DistanceKm,
		t.PollutionScore,
		t.ShadeScore,
		t.CarbonSavings,
		t.AirQualityImprovement,
		t.CreatedAt,
	)
	return err
}

// Get retrieves a trip by user ID and trip ID.
func (r *PostgresRepository) Get(ctx context.Context, userID, tripID string) (*Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 AND user_id = $2`

	t, err := scanTrip(r.pool.QueryRow(ctx, query, tripID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns a user's trips, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) ([]*Trip, error) {
	// LIMIT NULL means no limit.
	var limit any
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := []*Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trips, nil
}

// Ping checks the database connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var category string
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&category,
		&t.From,
		&t.To,
		&t.Origin.Lat,
		&t.Origin.Lon,
		&t.Destination.Lat,
		&t.Destination.Lon,
		&t.DistanceKm,
		&t.PollutionScore,
		&t.ShadeScore,
		&t.CarbonSavings,
		&t.AirQualityImprovement,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Category = routing.Category(category)
	return &t, nil
}
