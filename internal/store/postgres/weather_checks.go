package postgres

import (
	"context"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const weatherCheckColumns = `id, flight_id, check_time, location, visibility, ceiling, wind_speed, conditions, result, reasons,
	provider, raw_data, training_level, required_visibility, required_ceiling, max_wind_speed`

func (s *Store) CreateWeatherCheck(ctx context.Context, tx store.Tx, check *store.WeatherCheck) error {
	if check.ID == uuid.Nil {
		check.ID = uuid.New()
	}
	if check.CheckTime.IsZero() {
		check.CheckTime = time.Now().UTC()
	}
	if check.Reasons == nil {
		check.Reasons = []string{}
	}

	query := `INSERT INTO weather_checks (` + weatherCheckColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := s.getExecutor(tx).ExecContext(ctx, query,
		check.ID, check.FlightID, check.CheckTime, check.Location,
		check.Visibility, check.Ceiling, check.WindSpeed, check.Conditions,
		check.Result, pq.Array(check.Reasons), check.Provider, check.RawData,
		check.TrainingLevel, check.RequiredVisibility, check.RequiredCeiling, check.MaxWindSpeed,
	)
	return err
}

func (s *Store) GetLatestWeatherCheck(ctx context.Context, flightID uuid.UUID) (*store.WeatherCheck, error) {
	query := `SELECT ` + weatherCheckColumns + ` FROM weather_checks
		WHERE flight_id = $1
		ORDER BY check_time DESC
		LIMIT 1`

	c, err := scanWeatherCheck(s.db.QueryRowContext(ctx, query, flightID))
	if err != nil {
		return nil, notFound(err)
	}

	return c, nil
}

func (s *Store) ListWeatherChecks(ctx context.Context, flightID uuid.UUID, limit int) ([]store.WeatherCheck, error) {
	query := `SELECT ` + weatherCheckColumns + ` FROM weather_checks
		WHERE flight_id = $1
		ORDER BY check_time DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, flightID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks := []store.WeatherCheck{}
	for rows.Next() {
		c, err := scanWeatherCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return checks, nil
}

func scanWeatherCheck(row scanner) (*store.WeatherCheck, error) {
	var c store.WeatherCheck
	err := row.Scan(
		&c.ID, &c.FlightID, &c.CheckTime, &c.Location,
		&c.Visibility, &c.Ceiling, &c.WindSpeed, &c.Conditions,
		&c.Result, pq.Array(&c.Reasons), &c.Provider, &c.RawData,
		&c.TrainingLevel, &c.RequiredVisibility, &c.RequiredCeiling, &c.MaxWindSpeed,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
