// Package bloq manages the physical sites ("bloqs") that lockers live in.
package bloq

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloqit/lockerengine-backend/locker"
)

// Bloq is a physical site containing zero or more lockers. Lockers are
// associated with a bloq but their lifecycle is owned by the locker package.
type Bloq struct {
	ID        uuid.UUID
	Title     string
	Address   string
	CreatedAt time.Time `db:"created_at"`

	Lockers []locker.Locker `db:"-"`
}
