package rent

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloqit/lockerengine-backend/internal/pgerr"
)

var (
	ErrNotFound       = errors.New("rent not found")
	ErrLockerNotFound = errors.New("locker not found")
	ErrLockerOccupied = errors.New("locker is already occupied")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new rent and occupies its locker in one transaction.
// The locker row is locked FOR UPDATE so two concurrent creates against the
// same locker serialize: the second observes is_occupied and fails with
// ErrLockerOccupied. An id collision restarts the transaction once with a
// fresh id.
func (r *Repository) Create(ctx context.Context, lockerID uuid.UUID, weight float64, size Size) (Rent, error) {
	rent, err := r.createTx(ctx, uuid.New(), lockerID, weight, size)
	if pgerr.UniqueViolation(err) {
		rent, err = r.createTx(ctx, uuid.New(), lockerID, weight, size)
	}
	return rent, err
}

func (r *Repository) createTx(ctx context.Context, id, lockerID uuid.UUID, weight float64, size Size) (Rent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rent{}, err
	}
	defer tx.Rollback()

	var occupied bool
	err = tx.GetContext(ctx, &occupied, lockLockerQuery, lockerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Rent{}, ErrLockerNotFound
	}
	if err != nil {
		return Rent{}, err
	}
	if occupied {
		return Rent{}, ErrLockerOccupied
	}

	var rent Rent
	err = tx.GetContext(ctx, &rent, createRentQuery, id, lockerID, weight, size, StatusCreated)
	if err != nil {
		return Rent{}, err
	}

	if _, err := tx.ExecContext(ctx, occupyLockerQuery, lockerID); err != nil {
		return Rent{}, err
	}

	return rent, tx.Commit()
}

const lockLockerQuery = `SELECT is_occupied FROM lockers WHERE id = $1 FOR UPDATE`

const createRentQuery = `
INSERT INTO rents (id, locker_id, weight, size, status, created_at)
VALUES ($1, $2, $3, $4, $5, now())
RETURNING *
`

const occupyLockerQuery = `UPDATE lockers SET is_occupied = true WHERE id = $1`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Rent, error) {
	var rent Rent
	err := r.db.GetContext(ctx, &rent, getRentQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Rent{}, ErrNotFound
	}
	return rent, err
}

const getRentQuery = `SELECT * FROM rents WHERE id = $1`

// ListByLocker fetches all rents for a locker, history included, oldest first.
func (r *Repository) ListByLocker(ctx context.Context, lockerID uuid.UUID) ([]Rent, error) {
	var rents []Rent
	err := r.db.SelectContext(ctx, &rents, listByLockerQuery, lockerID)
	return rents, err
}

const listByLockerQuery = `SELECT * FROM rents WHERE locker_id = $1 ORDER BY created_at ASC`

// UpdateStatus overwrites the status without lifecycle guards. This is the
// administrative escape hatch: it does not stamp timestamps and does not
// touch locker occupancy.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Rent, error) {
	var rent Rent
	err := r.db.GetContext(ctx, &rent, updateStatusQuery, status, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Rent{}, ErrNotFound
	}
	return rent, err
}

const updateStatusQuery = `UPDATE rents SET status = $1 WHERE id = $2 RETURNING *`

// MarkForDropoff applies the CREATED -> WAITING_DROPOFF transition.
func (r *Repository) MarkForDropoff(ctx context.Context, id uuid.UUID) (Rent, error) {
	return r.transition(ctx, id, func(rent *Rent) error {
		return rent.MarkForDropoff()
	})
}

// RecordDropoff applies the WAITING_DROPOFF -> WAITING_PICKUP transition and
// stamps the dropoff time.
func (r *Repository) RecordDropoff(ctx context.Context, id uuid.UUID) (Rent, error) {
	return r.transition(ctx, id, func(rent *Rent) error {
		return rent.RecordDropoff(time.Now())
	})
}

// transition loads the rent FOR UPDATE, applies the guarded lifecycle method
// and writes the result back.
func (r *Repository) transition(ctx context.Context, id uuid.UUID, apply func(*Rent) error) (Rent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rent{}, err
	}
	defer tx.Rollback()

	var rent Rent
	err = tx.GetContext(ctx, &rent, lockRentQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Rent{}, ErrNotFound
	}
	if err != nil {
		return Rent{}, err
	}

	if err := apply(&rent); err != nil {
		return Rent{}, err
	}

	err = tx.GetContext(ctx, &rent, saveRentQuery, rent.Status, rent.DroppedOffAt, rent.PickedUpAt, rent.ID)
	if err != nil {
		return Rent{}, err
	}

	return rent, tx.Commit()
}

const lockRentQuery = `SELECT * FROM rents WHERE id = $1 FOR UPDATE`

const saveRentQuery = `
UPDATE rents SET status = $1, dropped_off_at = $2, picked_up_at = $3
WHERE id = $4
RETURNING *
`

// RecordPickup applies the WAITING_PICKUP -> DELIVERED transition, stamps the
// pickup time and releases the locker in the same transaction, so occupancy
// cannot drift from the set of active rents.
func (r *Repository) RecordPickup(ctx context.Context, id uuid.UUID) (Rent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Rent{}, err
	}
	defer tx.Rollback()

	var rent Rent
	err = tx.GetContext(ctx, &rent, lockRentQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Rent{}, ErrNotFound
	}
	if err != nil {
		return Rent{}, err
	}

	if err := rent.RecordPickup(time.Now()); err != nil {
		return Rent{}, err
	}

	err = tx.GetContext(ctx, &rent, saveRentQuery, rent.Status, rent.DroppedOffAt, rent.PickedUpAt, rent.ID)
	if err != nil {
		return Rent{}, err
	}

	if _, err := tx.ExecContext(ctx, releaseLockerQuery, rent.LockerID); err != nil {
		return Rent{}, err
	}

	return rent, tx.Commit()
}

const releaseLockerQuery = `UPDATE lockers SET is_occupied = false WHERE id = $1`
