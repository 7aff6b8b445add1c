package locker

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloqit/lockerengine-backend/internal/pgerr"
)

var (
	ErrNotFound     = errors.New("locker not found")
	ErrBloqNotFound = errors.New("bloq not found")
	ErrActiveRent   = errors.New("locker has an active rent")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new locker under the given bloq, closed and unoccupied.
// An id collision is retried once with a fresh id.
func (r *Repository) Create(ctx context.Context, bloqID uuid.UUID) (Locker, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, bloqExistsQuery, bloqID)
	if err != nil {
		return Locker{}, err
	}
	if !exists {
		return Locker{}, ErrBloqNotFound
	}

	var l Locker
	err = r.db.GetContext(ctx, &l, createLockerQuery, uuid.New(), bloqID, StatusClosed)
	if pgerr.UniqueViolation(err) {
		err = r.db.GetContext(ctx, &l, createLockerQuery, uuid.New(), bloqID, StatusClosed)
	}
	return l, err
}

const bloqExistsQuery = `SELECT EXISTS (SELECT 1 FROM bloqs WHERE id = $1)`

const createLockerQuery = `
INSERT INTO lockers (id, bloq_id, status, is_occupied, created_at)
VALUES ($1, $2, $3, false, now())
RETURNING *
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Locker, error) {
	var l Locker
	err := r.db.GetContext(ctx, &l, getLockerQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Locker{}, ErrNotFound
	}
	return l, err
}

const getLockerQuery = `SELECT * FROM lockers WHERE id = $1`

// ListByBloq fetches all lockers associated with a bloq, oldest first.
func (r *Repository) ListByBloq(ctx context.Context, bloqID uuid.UUID) ([]Locker, error) {
	var lockers []Locker
	err := r.db.SelectContext(ctx, &lockers, listByBloqQuery, bloqID)
	return lockers, err
}

const listByBloqQuery = `SELECT * FROM lockers WHERE bloq_id = $1 ORDER BY created_at ASC`

// UpdateStatus sets the door status. There is no business rule gating it.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Locker, error) {
	var l Locker
	err := r.db.GetContext(ctx, &l, updateStatusQuery, status, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Locker{}, ErrNotFound
	}
	return l, err
}

const updateStatusQuery = `UPDATE lockers SET status = $1 WHERE id = $2 RETURNING *`

// SetOccupied sets the occupancy flag directly. This is an administrative
// escape hatch: rent creation and pickup manage occupancy transactionally,
// and callers here must reconcile the rent records themselves.
func (r *Repository) SetOccupied(ctx context.Context, id uuid.UUID, occupied bool) (Locker, error) {
	var l Locker
	err := r.db.GetContext(ctx, &l, setOccupiedQuery, occupied, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Locker{}, ErrNotFound
	}
	return l, err
}

const setOccupiedQuery = `UPDATE lockers SET is_occupied = $1 WHERE id = $2 RETURNING *`

func (r *Repository) IsOccupied(ctx context.Context, id uuid.UUID) (bool, error) {
	var occupied bool
	err := r.db.GetContext(ctx, &occupied, isOccupiedQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return occupied, err
}

const isOccupiedQuery = `SELECT is_occupied FROM lockers WHERE id = $1`

// Delete removes a locker and its delivered-rent history. It refuses to
// delete a locker that still has an active rent.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var occupied bool
	err = tx.GetContext(ctx, &occupied, deleteLockerLockQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var active bool
	err = tx.GetContext(ctx, &active, activeRentExistsQuery, id)
	if err != nil {
		return err
	}
	if active {
		return ErrActiveRent
	}

	if _, err := tx.ExecContext(ctx, deleteLockerQuery, id); err != nil {
		return err
	}

	return tx.Commit()
}

const deleteLockerLockQuery = `SELECT is_occupied FROM lockers WHERE id = $1 FOR UPDATE`

const activeRentExistsQuery = `
SELECT EXISTS (SELECT 1 FROM rents WHERE locker_id = $1 AND status != 'DELIVERED')
`

const deleteLockerQuery = `DELETE FROM lockers WHERE id = $1`
