// Package locker manages individual storage compartments within a bloq.
package locker

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Status is the door state of a locker. It is independent of occupancy:
// a closed locker may be empty and an open one may hold a parcel.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

// UnmarshalJSON validates the status at the decode boundary so request
// payloads and stored rows share the same canonical enum.
func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	st := Status(v)
	if !st.Valid() {
		return fmt.Errorf("invalid locker status %q", v)
	}
	*s = st
	return nil
}

// Locker is a single compartment. IsOccupied is true iff a rent that has not
// yet been delivered references it; the rent package maintains that invariant
// transactionally.
type Locker struct {
	ID         uuid.UUID
	BloqID     uuid.UUID `db:"bloq_id"`
	Status     Status
	IsOccupied bool      `db:"is_occupied"`
	CreatedAt  time.Time `db:"created_at"`
}
