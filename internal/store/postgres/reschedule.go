package postgres

import (
	"context"
	"time"

	"flightwx/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const rescheduleColumns = `id, flight_id, student_id, suggestions, status, selected_option,
	student_confirmed_at, instructor_confirmed_at, new_flight_id, expires_at, created_at, updated_at`

var pendingStatuses = pq.Array([]string{
	string(store.RescheduleStatusPendingStudent),
	string(store.RescheduleStatusPendingInstructor),
})

func scanRescheduleRequest(row scanner) (*store.RescheduleRequest, error) {
	var r store.RescheduleRequest
	if err := row.Scan(
		&r.ID, &r.FlightID, &r.StudentID, &r.Suggestions, &r.Status, &r.SelectedOption,
		&r.StudentConfirmedAt, &r.InstructorConfirmedAt, &r.NewFlightID,
		&r.ExpiresAt, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.UpdatedAt = req.CreatedAt

	query := `INSERT INTO reschedule_requests (` + rescheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.getExecutor(tx).ExecContext(ctx, query,
		req.ID, req.FlightID, req.StudentID, req.Suggestions, req.Status, req.SelectedOption,
		req.StudentConfirmedAt, req.InstructorConfirmedAt, req.NewFlightID,
		req.ExpiresAt, req.CreatedAt, req.UpdatedAt,
	)
	return err
}

// GetRescheduleRequest returns a request. Inside a transaction the row is locked until commit.
func (s *Store) GetRescheduleRequest(ctx context.Context, tx store.Tx, id uuid.UUID) (*store.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	req, err := scanRescheduleRequest(s.getExecutor(tx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

func (s *Store) GetActiveRescheduleRequest(ctx context.Context, tx store.Tx, flightID uuid.UUID, now time.Time) (*store.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests
		WHERE flight_id = $1 AND status = ANY($2) AND expires_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`

	req, err := scanRescheduleRequest(s.getExecutor(tx).QueryRowContext(ctx, query, flightID, pendingStatuses, now))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

func (s *Store) UpdateRescheduleRequest(ctx context.Context, tx store.Tx, req *store.RescheduleRequest) error {
	req.UpdatedAt = time.Now().UTC()

	query := `UPDATE reschedule_requests
		SET status = $2, selected_option = $3, student_confirmed_at = $4,
			instructor_confirmed_at = $5, new_flight_id = $6, updated_at = $7
		WHERE id = $1`

	result, err := s.getExecutor(tx).ExecContext(ctx, query,
		req.ID, req.Status, req.SelectedOption, req.StudentConfirmedAt,
		req.InstructorConfirmedAt, req.NewFlightID, req.UpdatedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ExpireRescheduleRequests(ctx context.Context, tx store.Tx, flightID *uuid.UUID, now time.Time) (int64, error) {
	query := `UPDATE reschedule_requests SET status = $1, updated_at = $2
		WHERE status = ANY($3) AND expires_at < $2`
	args := []interface{}{store.RescheduleStatusExpired, now, pendingStatuses}

	if flightID != nil {
		query += ` AND flight_id = $4`
		args = append(args, *flightID)
	}

	result, err := s.getExecutor(tx).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) CountPendingRescheduleRequests(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reschedule_requests WHERE status = ANY($1)`, pendingStatuses,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
