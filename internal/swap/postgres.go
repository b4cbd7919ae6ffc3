package swap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores for the three collections, sharing one pgx pool.
// Race-sensitive writes take the swap_requests row lock (SELECT ... FOR
// UPDATE) so place/approve/cancel/complete serialize per request; pair
// uniqueness is additionally backed by partial unique indexes, surfacing as
// ErrConflict.
type Stores struct {
	Requests     RequestStore
	Interactions InteractionStore
	Progress     ProgressStore
}

func NewPostgresStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Requests:     &pgRequestStore{pool: pool},
		Interactions: &pgInteractionStore{pool: pool},
		Progress:     &pgProgressStore{pool: pool},
	}
}

type pgRequestStore struct {
	pool *pgxpool.Pool
}

const requestColumns = `id, owner_id, service_title, service_categories, service_required,
	service_description, years_of_experience, preferred_location, deadline, status, created_at`

func (s *pgRequestStore) Create(ctx context.Context, req *SwapRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO swap_requests (id, owner_id, service_title, service_categories, service_required,
			service_description, years_of_experience, preferred_location, deadline, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.OwnerID, req.ServiceTitle, req.ServiceCategories, req.ServiceRequired,
		req.ServiceDescription, req.YearsOfExperience, req.PreferredLocation, req.Deadline,
		req.Status, req.CreatedAt,
	)
	return err
}

func (s *pgRequestStore) GetByID(ctx context.Context, id string) (*SwapRequest, error) {
	return scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM swap_requests WHERE id = $1`, id))
}

func (s *pgRequestStore) UpdateOpenFields(ctx context.Context, req *SwapRequest) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE swap_requests
		SET service_title = $1, service_categories = $2, service_required = $3,
			service_description = $4, years_of_experience = $5, preferred_location = $6,
			deadline = $7
		WHERE id = $8 AND status = 'open'`,
		req.ServiceTitle, req.ServiceCategories, req.ServiceRequired, req.ServiceDescription,
		req.YearsOfExperience, req.PreferredLocation, req.Deadline, req.ID,
	)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: request is no longer open", ErrConflict)
	}
	return nil
}

func (s *pgRequestStore) DeleteOpen(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `
		DELETE FROM swap_requests
		WHERE id = $1 AND status = 'open'
			AND NOT EXISTS (SELECT 1 FROM interactions WHERE swap_request_id = $1)`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: request has interactions or already left open; cancel instead", ErrConflict)
	}
	return nil
}

func (s *pgRequestStore) Cancel(ctx context.Context, id string) (*Interaction, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status RequestStatus
	err = tx.QueryRow(ctx, `SELECT status FROM swap_requests WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !CanTransition(status, StatusCancelled) {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, status)
	}

	if _, err := tx.Exec(ctx, `UPDATE swap_requests SET status = 'cancelled' WHERE id = $1`, id); err != nil {
		return nil, err
	}

	// Force-reject the approved partner, if the exchange already started.
	var forced *Interaction
	var in Interaction
	err = tx.QueryRow(ctx, `
		UPDATE interactions SET status = 'rejected', decided_at = NOW()
		WHERE swap_request_id = $1 AND status = 'approved'
		RETURNING id, swap_request_id, requester_id, status, created_at, decided_at`, id).
		Scan(&in.ID, &in.SwapRequestID, &in.RequesterID, &in.Status, &in.CreatedAt, &in.DecidedAt)
	if err == nil {
		forced = &in
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return forced, nil
}

func (s *pgRequestStore) Complete(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status RequestStatus
	var ownerID string
	err = tx.QueryRow(ctx,
		`SELECT status, owner_id FROM swap_requests WHERE id = $1 FOR UPDATE`, id).
		Scan(&status, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !CanTransition(status, StatusCompleted) {
		return fmt.Errorf("%w: request is %s", ErrInvalidState, status)
	}

	var partnerID string
	err = tx.QueryRow(ctx,
		`SELECT requester_id FROM interactions WHERE swap_request_id = $1 AND status = 'approved'`, id).
		Scan(&partnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: no approved partner", ErrPreconditionFailed)
		}
		return err
	}

	// Re-read both sides' latest percentages under the row lock so a stale
	// 100% reading cannot complete the request.
	ownerPct, err := latestPercentageTx(ctx, tx, id, ownerID)
	if err != nil {
		return err
	}
	partnerPct, err := latestPercentageTx(ctx, tx, id, partnerID)
	if err != nil {
		return err
	}
	if ownerPct < 100 || partnerPct < 100 {
		return fmt.Errorf("%w: progress below 100%%", ErrPreconditionFailed)
	}

	if _, err := tx.Exec(ctx, `UPDATE swap_requests SET status = 'completed' WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *pgRequestStore) ListOpen(ctx context.Context, limit, offset int) ([]SwapRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM swap_requests
		WHERE status = 'open'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *pgRequestStore) ListByOwner(ctx context.Context, ownerID string) ([]SwapRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM swap_requests
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (s *pgRequestStore) ListOpenForUser(ctx context.Context, userID string) ([]SwapRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+requestColumns+` FROM swap_requests r
		WHERE r.status = 'open' AND r.owner_id <> $1
			AND NOT EXISTS (
				SELECT 1 FROM interactions i
				WHERE i.swap_request_id = r.id AND i.requester_id = $1
			)
		ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func scanRequest(row pgx.Row) (*SwapRequest, error) {
	var req SwapRequest
	err := row.Scan(&req.ID, &req.OwnerID, &req.ServiceTitle, &req.ServiceCategories,
		&req.ServiceRequired, &req.ServiceDescription, &req.YearsOfExperience,
		&req.PreferredLocation, &req.Deadline, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]SwapRequest, error) {
	defer rows.Close()
	var out []SwapRequest
	for rows.Next() {
		var req SwapRequest
		if err := rows.Scan(&req.ID, &req.OwnerID, &req.ServiceTitle, &req.ServiceCategories,
			&req.ServiceRequired, &req.ServiceDescription, &req.YearsOfExperience,
			&req.PreferredLocation, &req.Deadline, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type pgInteractionStore struct {
	pool *pgxpool.Pool
}

const interactionColumns = `id, swap_request_id, requester_id, status, created_at, decided_at`

func (s *pgInteractionStore) Create(ctx context.Context, in *Interaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the request row so an in-flight approval cannot leave an orphaned
	// placement behind.
	var status RequestStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM swap_requests WHERE id = $1 FOR UPDATE`, in.SwapRequestID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if status != StatusOpen {
		return fmt.Errorf("%w: request is %s, not open", ErrInvalidState, status)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO interactions (id, swap_request_id, requester_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.SwapRequestID, in.RequesterID, in.Status, in.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: active interaction already exists for this pair", ErrConflict)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *pgInteractionStore) GetByID(ctx context.Context, id string) (*Interaction, error) {
	return scanInteraction(s.pool.QueryRow(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = $1`, id))
}

func (s *pgInteractionStore) ListByRequest(ctx context.Context, requestID string) ([]Interaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+interactionColumns+` FROM interactions
		WHERE swap_request_id = $1
		ORDER BY created_at ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.ID, &in.SwapRequestID, &in.RequesterID, &in.Status,
			&in.CreatedAt, &in.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (s *pgInteractionStore) GetApproved(ctx context.Context, requestID string) (*Interaction, error) {
	return scanInteraction(s.pool.QueryRow(ctx, `
		SELECT `+interactionColumns+` FROM interactions
		WHERE swap_request_id = $1 AND status = 'approved'`, requestID))
}

func (s *pgInteractionStore) HasActive(ctx context.Context, requestID, requesterID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM interactions
			WHERE swap_request_id = $1 AND requester_id = $2
				AND status IN ('pending', 'approved')
		)`, requestID, requesterID).Scan(&exists)
	return exists, err
}

func (s *pgInteractionStore) Approve(ctx context.Context, id string) (*ApprovalOutcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var requestID string
	var interactionStatus InteractionStatus
	var requestStatus RequestStatus
	err = tx.QueryRow(ctx, `
		SELECT i.swap_request_id, i.status, r.status
		FROM interactions i
		JOIN swap_requests r ON r.id = i.swap_request_id
		WHERE i.id = $1
		FOR UPDATE OF r`, id).Scan(&requestID, &interactionStatus, &requestStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if interactionStatus != InteractionPending {
		return nil, fmt.Errorf("%w: interaction is %s", ErrInvalidState, interactionStatus)
	}
	if !CanTransition(requestStatus, StatusInProgress) {
		return nil, fmt.Errorf("%w: request is %s, not open", ErrInvalidState, requestStatus)
	}

	// The status guard re-applies under the update itself: a reject that
	// commits between the locked read and this statement leaves zero rows,
	// never a Rejected row flipped back to Approved.
	approved, err := scanInteraction(tx.QueryRow(ctx, `
		UPDATE interactions SET status = 'approved', decided_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+interactionColumns, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: interaction already decided", ErrInvalidState)
		}
		return nil, err
	}

	// One approved partner closes the door on everyone else still pending.
	rows, err := tx.Query(ctx, `
		UPDATE interactions SET status = 'rejected', decided_at = NOW()
		WHERE swap_request_id = $1 AND id <> $2 AND status = 'pending'
		RETURNING requester_id`, requestID, id)
	if err != nil {
		return nil, err
	}
	var rejected []string
	for rows.Next() {
		var requester string
		if err := rows.Scan(&requester); err != nil {
			rows.Close()
			return nil, err
		}
		rejected = append(rejected, requester)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE swap_requests SET status = 'in_progress' WHERE id = $1`, requestID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ApprovalOutcome{Interaction: approved, RejectedRequesters: rejected}, nil
}

func (s *pgInteractionStore) Reject(ctx context.Context, id string) (*Interaction, error) {
	in, err := scanInteraction(s.pool.QueryRow(ctx, `
		UPDATE interactions SET status = 'rejected', decided_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING `+interactionColumns, id))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Row missing or already decided; disambiguate for the caller.
			if _, getErr := s.GetByID(ctx, id); getErr == nil {
				return nil, fmt.Errorf("%w: interaction already decided", ErrInvalidState)
			}
			return nil, ErrNotFound
		}
		return nil, err
	}
	return in, nil
}

func scanInteraction(row pgx.Row) (*Interaction, error) {
	var in Interaction
	err := row.Scan(&in.ID, &in.SwapRequestID, &in.RequesterID, &in.Status, &in.CreatedAt, &in.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

type pgProgressStore struct {
	pool *pgxpool.Pool
}

func (s *pgProgressStore) Append(ctx context.Context, up *ProgressUpdate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status RequestStatus
	err = tx.QueryRow(ctx,
		`SELECT status FROM swap_requests WHERE id = $1 FOR UPDATE`, up.SwapRequestID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if status != StatusInProgress {
		return fmt.Errorf("%w: request is %s, not in progress", ErrInvalidState, status)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO progress_updates (id, swap_request_id, author_id, title, message, percentage, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		up.ID, up.SwapRequestID, up.AuthorID, up.Title, up.Message, up.Percentage, up.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *pgProgressStore) ListByRequest(ctx context.Context, requestID string) ([]ProgressUpdate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, swap_request_id, author_id, title, message, percentage, created_at
		FROM progress_updates
		WHERE swap_request_id = $1
		ORDER BY created_at ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProgressUpdate
	for rows.Next() {
		var up ProgressUpdate
		if err := rows.Scan(&up.ID, &up.SwapRequestID, &up.AuthorID, &up.Title,
			&up.Message, &up.Percentage, &up.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, up)
	}
	return out, rows.Err()
}

func (s *pgProgressStore) LatestPercentage(ctx context.Context, requestID, participantID string) (int, error) {
	var pct int
	err := s.pool.QueryRow(ctx, latestPercentageSQL, requestID, participantID).Scan(&pct)
	return pct, err
}

const latestPercentageSQL = `
	SELECT COALESCE((
		SELECT percentage FROM progress_updates
		WHERE swap_request_id = $1 AND author_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	), 0)`

func latestPercentageTx(ctx context.Context, tx pgx.Tx, requestID, participantID string) (int, error) {
	var pct int
	err := tx.QueryRow(ctx, latestPercentageSQL, requestID, participantID).Scan(&pct)
	return pct, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
