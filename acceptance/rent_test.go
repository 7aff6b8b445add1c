package acceptance

import (
	"net/http"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
)

// TestRentLifecycle walks one parcel through the full state machine and
// checks locker occupancy at each step.
func TestRentLifecycle(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)

	r := ts.CreateRent(t, l.ID, 5.5, "M")
	if r.Status != "CREATED" || r.Weight != 5.5 || r.Size != "M" {
		t.Fatalf("unexpected created rent: %s", spew.Sdump(r))
	}
	if r.DroppedOffAt != nil || r.PickedUpAt != nil {
		t.Fatalf("timestamps must be unset at creation: %s", spew.Sdump(r))
	}
	if !ts.GetLocker(t, l.ID).IsOccupied {
		t.Fatal("creating a rent must occupy the locker")
	}

	w := ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/mark-dropoff", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark-dropoff failed: %d %s", w.Code, w.Body.String())
	}
	if got := decode[rentPayload](t, w); got.Status != "WAITING_DROPOFF" {
		t.Fatalf("expected WAITING_DROPOFF, got %s", got.Status)
	}

	w = ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/dropoff", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dropoff failed: %d %s", w.Code, w.Body.String())
	}
	dropped := decode[rentPayload](t, w)
	if dropped.Status != "WAITING_PICKUP" || dropped.DroppedOffAt == nil {
		t.Fatalf("dropoff not recorded: %s", spew.Sdump(dropped))
	}
	if !ts.GetLocker(t, l.ID).IsOccupied {
		t.Fatal("locker must stay occupied while waiting for pickup")
	}

	w = ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/pickup", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pickup failed: %d %s", w.Code, w.Body.String())
	}
	picked := decode[rentPayload](t, w)
	if picked.Status != "DELIVERED" || picked.PickedUpAt == nil {
		t.Fatalf("pickup not recorded: %s", spew.Sdump(picked))
	}
	if ts.GetLocker(t, l.ID).IsOccupied {
		t.Fatal("delivery must release the locker")
	}
}

func TestCreateRentOnOccupiedLockerConflicts(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)
	ts.CreateRent(t, l.ID, 5.5, "M")

	w := ts.Do(t, http.MethodPost, "/api/rents/locker/"+l.ID.String(),
		map[string]any{"weight": 1.0, "size": "S"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	e := decode[errorPayload](t, w)
	if e.Message != "Locker is already occupied" {
		t.Fatalf("unexpected error message %q", e.Message)
	}
}

func TestCreateRentUnknownLocker(t *testing.T) {
	ts := NewTestServer(t)

	w := ts.Do(t, http.MethodPost, "/api/rents/locker/"+uuid.NewString(),
		map[string]any{"weight": 5.5, "size": "M"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

// TestConcurrentRentCreation races two creates against one locker: exactly
// one may win.
func TestConcurrentRentCreation(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := ts.Do(t, http.MethodPost, "/api/rents/locker/"+l.ID.String(),
				map[string]any{"weight": 2.0, "size": "S"})
			codes[i] = w.Code
		}()
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("expected exactly one winner, got statuses %v", codes)
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)
	r := ts.CreateRent(t, l.ID, 5.5, "M")

	// Pickup is unreachable from CREATED.
	w := ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/pickup", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if e := decode[errorPayload](t, w); e.Code != "INVALID_TRANSITION" {
		t.Fatalf("unexpected error code %q", e.Code)
	}

	// So is dropoff before mark-dropoff.
	w = ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/dropoff", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRentNotFound(t *testing.T) {
	ts := NewTestServer(t)

	for _, path := range []string{
		"/api/rents/" + uuid.NewString(),
	} {
		w := ts.Do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404, got %d", path, w.Code)
		}
	}

	for _, step := range []string{"mark-dropoff", "dropoff", "pickup"} {
		w := ts.Do(t, http.MethodPut, "/api/rents/"+uuid.NewString()+"/"+step, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", step, w.Code)
		}
	}
}

func TestListRentsByLocker(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)

	// Empty listing is a 404, matching the original wire contract.
	for _, path := range []string{
		"/api/rents/locker/" + l.ID.String(),
		"/api/lockers/" + l.ID.String() + "/rents",
	} {
		w := ts.Do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("GET %s: expected 404 for no rents, got %d", path, w.Code)
		}
	}

	r := ts.CreateRent(t, l.ID, 3.2, "L")

	for _, path := range []string{
		"/api/rents/locker/" + l.ID.String(),
		"/api/lockers/" + l.ID.String() + "/rents",
	} {
		w := ts.Do(t, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, w.Code)
		}
		rents := decode[[]rentPayload](t, w)
		if len(rents) != 1 || rents[0].ID != r.ID {
			t.Fatalf("GET %s: unexpected listing: %s", path, spew.Sdump(rents))
		}
	}
}

// TestAdministrativeStatusOverwrite checks the unguarded status endpoint:
// it rewrites the status but never touches timestamps or occupancy.
func TestAdministrativeStatusOverwrite(t *testing.T) {
	ts := NewTestServer(t)

	b := ts.CreateBloq(t, "Bloq", "Addr 1")
	l := ts.CreateLocker(t, b.ID)
	r := ts.CreateRent(t, l.ID, 5.5, "M")

	w := ts.Do(t, http.MethodPut, "/api/rents/"+r.ID.String()+"/status",
		map[string]string{"status": "WAITING_PICKUP"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[rentPayload](t, w)
	if got.Status != "WAITING_PICKUP" {
		t.Fatalf("status not overwritten: %s", spew.Sdump(got))
	}
	if got.DroppedOffAt != nil {
		t.Fatal("administrative overwrite must not stamp timestamps")
	}
	if !ts.GetLocker(t, l.ID).IsOccupied {
		t.Fatal("administrative overwrite must not touch occupancy")
	}
}
