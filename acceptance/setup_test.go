// Package acceptance drives the full HTTP router against a real postgres.
// The suite is skipped unless DATABASE_URL points at a database with
// db/schema.sql applied.
package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bloqit/lockerengine-backend/api"
	"github.com/bloqit/lockerengine-backend/bloq"
	"github.com/bloqit/lockerengine-backend/internal/o11y"
	"github.com/bloqit/lockerengine-backend/locker"
	"github.com/bloqit/lockerengine-backend/rent"
)

type TestServer struct {
	DB     *sqlx.DB
	Router *gin.Engine
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping acceptance tests")
	}

	gin.SetMode(gin.TestMode)

	db, err := sqlx.Connect("pgx", dbURL)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cleanupTestData(t, db)

	obs := &o11y.Observability{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
	}

	a := api.New(bloq.NewRepository(db), locker.NewRepository(db), rent.NewRepository(db), obs, "", "")

	return &TestServer{
		DB:     db,
		Router: a.Router(),
	}
}

func cleanupTestData(t *testing.T, db *sqlx.DB) {
	t.Helper()

	// Delete in order of dependencies
	for _, table := range []string{"rents", "lockers", "bloqs"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Logf("warning: failed to clean %s: %v", table, err)
		}
	}
}

// Do runs one request against the router. A nil body sends no payload.
func (ts *TestServer) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}

type bloqPayload struct {
	ID      uuid.UUID       `json:"id"`
	Title   string          `json:"title"`
	Address string          `json:"address"`
	Lockers []lockerPayload `json:"lockers"`
}

type lockerPayload struct {
	ID         uuid.UUID `json:"id"`
	BloqID     uuid.UUID `json:"bloqId"`
	Status     string    `json:"status"`
	IsOccupied bool      `json:"isOccupied"`
}

type rentPayload struct {
	ID           uuid.UUID `json:"id"`
	LockerID     uuid.UUID `json:"lockerId"`
	Weight       float64   `json:"weight"`
	Size         string    `json:"size"`
	Status       string    `json:"status"`
	DroppedOffAt *string   `json:"droppedOffAt"`
	PickedUpAt   *string   `json:"pickedUpAt"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateBloq creates a bloq through the API and fails the test on error.
func (ts *TestServer) CreateBloq(t *testing.T, title, address string) bloqPayload {
	t.Helper()

	w := ts.Do(t, http.MethodPost, "/api/bloqs", map[string]string{"title": title, "address": address})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create bloq: status %d body %s", w.Code, w.Body.String())
	}
	return decode[bloqPayload](t, w)
}

// CreateLocker creates a locker under the bloq through the API.
func (ts *TestServer) CreateLocker(t *testing.T, bloqID uuid.UUID) lockerPayload {
	t.Helper()

	w := ts.Do(t, http.MethodPost, "/api/lockers/bloq/"+bloqID.String(), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create locker: status %d body %s", w.Code, w.Body.String())
	}
	return decode[lockerPayload](t, w)
}

// CreateRent creates a rent on the locker through the API.
func (ts *TestServer) CreateRent(t *testing.T, lockerID uuid.UUID, weight float64, size string) rentPayload {
	t.Helper()

	w := ts.Do(t, http.MethodPost, "/api/rents/locker/"+lockerID.String(),
		map[string]any{"weight": weight, "size": size})
	if w.Code != http.StatusCreated {
		t.Fatalf("failed to create rent: status %d body %s", w.Code, w.Body.String())
	}
	return decode[rentPayload](t, w)
}

// GetLocker fetches the locker's current state through the API.
func (ts *TestServer) GetLocker(t *testing.T, id uuid.UUID) lockerPayload {
	t.Helper()

	w := ts.Do(t, http.MethodGet, "/api/lockers/"+id.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("failed to get locker: status %d body %s", w.Code, w.Body.String())
	}
	return decode[lockerPayload](t, w)
}
