// Package rent manages parcel deposits and their lifecycle inside a locker.
//
// A rent moves through a fixed state machine:
//
//	CREATED -> WAITING_DROPOFF -> WAITING_PICKUP -> DELIVERED
//
// Transitions are guarded; DELIVERED is terminal. Creating a rent occupies
// its locker and recording the pickup releases it, both transactionally.
package rent

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a rent.
type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusWaitingDropoff Status = "WAITING_DROPOFF"
	StatusWaitingPickup  Status = "WAITING_PICKUP"
	StatusDelivered      Status = "DELIVERED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusCreated, StatusWaitingDropoff, StatusWaitingPickup, StatusDelivered:
		return true
	}
	return false
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	st := Status(v)
	if !st.Valid() {
		return fmt.Errorf("invalid rent status %q", v)
	}
	*s = st
	return nil
}

// Size is the parcel size category.
type Size string

const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

func (s Size) Valid() bool {
	switch s {
	case SizeXS, SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}

func (s *Size) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	sz := Size(v)
	if !sz.Valid() {
		return fmt.Errorf("invalid rent size %q", v)
	}
	*s = sz
	return nil
}

// ErrInvalidTransition is returned when a lifecycle operation is attempted
// from a state it is not valid in.
var ErrInvalidTransition = errors.New("invalid rent status transition")

// Rent is one parcel deposit occupying a locker from creation through
// delivery. Timestamps are stamped by the transition that reaches them.
type Rent struct {
	ID           uuid.UUID
	LockerID     uuid.UUID `db:"locker_id"`
	Weight       float64
	Size         Size
	Status       Status
	DroppedOffAt sql.NullTime `db:"dropped_off_at"`
	PickedUpAt   sql.NullTime `db:"picked_up_at"`
	CreatedAt    time.Time    `db:"created_at"`
}

// MarkForDropoff announces the courier is on the way. Valid only from CREATED.
func (r *Rent) MarkForDropoff() error {
	if r.Status != StatusCreated {
		return ErrInvalidTransition
	}
	r.Status = StatusWaitingDropoff
	return nil
}

// RecordDropoff records the parcel arriving in the locker. Valid only from
// WAITING_DROPOFF.
func (r *Rent) RecordDropoff(now time.Time) error {
	if r.Status != StatusWaitingDropoff {
		return ErrInvalidTransition
	}
	r.Status = StatusWaitingPickup
	r.DroppedOffAt = sql.NullTime{Time: now, Valid: true}
	return nil
}

// RecordPickup records the recipient collecting the parcel. Valid only from
// WAITING_PICKUP; DELIVERED is terminal.
func (r *Rent) RecordPickup(now time.Time) error {
	if r.Status != StatusWaitingPickup {
		return ErrInvalidTransition
	}
	r.Status = StatusDelivered
	r.PickedUpAt = sql.NullTime{Time: now, Valid: true}
	return nil
}

// Active reports whether the rent still occupies its locker.
func (r Rent) Active() bool {
	return r.Status != StatusDelivered
}

func (r Rent) IsInStatus(s Status) bool {
	return r.Status == s
}

func (r Rent) IsDroppedOff() bool {
	return r.DroppedOffAt.Valid
}

func (r Rent) IsPickedUp() bool {
	return r.PickedUpAt.Valid
}

// DropoffDuration is how long the parcel has been waiting for pickup: from
// the dropoff until now, or until the pickup once delivered. The second
// return is false before a dropoff was recorded.
func (r Rent) DropoffDuration(now time.Time) (time.Duration, bool) {
	if !r.DroppedOffAt.Valid {
		return 0, false
	}
	if r.PickedUpAt.Valid {
		return r.PickedUpAt.Time.Sub(r.DroppedOffAt.Time), true
	}
	return now.Sub(r.DroppedOffAt.Time), true
}

// TotalDuration is the time between dropoff and pickup. The second return is
// false until both timestamps exist.
func (r Rent) TotalDuration() (time.Duration, bool) {
	if !r.DroppedOffAt.Valid || !r.PickedUpAt.Valid {
		return 0, false
	}
	return r.PickedUpAt.Time.Sub(r.DroppedOffAt.Time), true
}
