package bloq

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bloqit/lockerengine-backend/internal/pgerr"
	"github.com/bloqit/lockerengine-backend/locker"
)

var (
	ErrNotFound       = errors.New("bloq not found")
	ErrLockerNotFound = errors.New("locker not found")
	ErrHasLockers     = errors.New("bloq still has lockers")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new bloq. An id collision is retried once with a fresh id.
func (r *Repository) Create(ctx context.Context, title, address string) (Bloq, error) {
	var b Bloq
	err := r.db.GetContext(ctx, &b, createBloqQuery, uuid.New(), title, address)
	if pgerr.UniqueViolation(err) {
		err = r.db.GetContext(ctx, &b, createBloqQuery, uuid.New(), title, address)
	}
	return b, err
}

const createBloqQuery = `
INSERT INTO bloqs (id, title, address, created_at)
VALUES ($1, $2, $3, now())
RETURNING *
`

// GetByID fetches a bloq with its associated lockers.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Bloq, error) {
	var b Bloq
	err := r.db.GetContext(ctx, &b, getBloqQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Bloq{}, ErrNotFound
	}
	if err != nil {
		return Bloq{}, err
	}

	err = r.db.SelectContext(ctx, &b.Lockers, lockersForBloqQuery, id)
	return b, err
}

const getBloqQuery = `SELECT * FROM bloqs WHERE id = $1`

const lockersForBloqQuery = `SELECT * FROM lockers WHERE bloq_id = $1 ORDER BY created_at ASC`

// GetAll fetches every bloq with its lockers.
func (r *Repository) GetAll(ctx context.Context) ([]Bloq, error) {
	var bloqs []Bloq
	err := r.db.SelectContext(ctx, &bloqs, getAllBloqsQuery)
	if err != nil {
		return nil, err
	}

	var lockers []locker.Locker
	err = r.db.SelectContext(ctx, &lockers, allLockersQuery)
	if err != nil {
		return nil, err
	}

	byBloq := make(map[uuid.UUID][]locker.Locker, len(bloqs))
	for _, l := range lockers {
		byBloq[l.BloqID] = append(byBloq[l.BloqID], l)
	}
	for i := range bloqs {
		bloqs[i].Lockers = byBloq[bloqs[i].ID]
	}
	return bloqs, nil
}

const getAllBloqsQuery = `SELECT * FROM bloqs ORDER BY created_at ASC`

const allLockersQuery = `SELECT * FROM lockers ORDER BY created_at ASC`

func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, address string) (Bloq, error) {
	var b Bloq
	err := r.db.GetContext(ctx, &b, updateBloqQuery, title, address, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Bloq{}, ErrNotFound
	}
	return b, err
}

const updateBloqQuery = `UPDATE bloqs SET title = $1, address = $2 WHERE id = $3 RETURNING *`

// Delete removes a bloq. It refuses to delete a bloq that still has lockers
// associated with it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var hasLockers bool
	err = tx.GetContext(ctx, &hasLockers, hasLockersQuery, id)
	if err != nil {
		return err
	}
	if hasLockers {
		return ErrHasLockers
	}

	res, err := tx.ExecContext(ctx, deleteBloqQuery, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

const hasLockersQuery = `SELECT EXISTS (SELECT 1 FROM lockers WHERE bloq_id = $1)`

const deleteBloqQuery = `DELETE FROM bloqs WHERE id = $1`

// AddLocker re-associates an existing locker with this bloq. It only moves
// the association; the locker itself is created by the locker package.
func (r *Repository) AddLocker(ctx context.Context, id, lockerID uuid.UUID) (Bloq, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return Bloq{}, err
	}
	defer tx.Rollback()

	var b Bloq
	err = tx.GetContext(ctx, &b, getBloqQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Bloq{}, ErrNotFound
	}
	if err != nil {
		return Bloq{}, err
	}

	res, err := tx.ExecContext(ctx, moveLockerQuery, id, lockerID)
	if err != nil {
		return Bloq{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Bloq{}, err
	}
	if n == 0 {
		return Bloq{}, ErrLockerNotFound
	}

	err = tx.SelectContext(ctx, &b.Lockers, lockersForBloqQuery, id)
	if err != nil {
		return Bloq{}, err
	}

	return b, tx.Commit()
}

const moveLockerQuery = `UPDATE lockers SET bloq_id = $1 WHERE id = $2`
