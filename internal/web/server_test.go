package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/campsite/internal/booking"
	"github.com/example/campsite/internal/store/memory"
	"github.com/example/campsite/internal/web"
)

const api = "/booking/api/v1"

func givenServer(t *testing.T, store booking.Store) http.Handler {
	t.Helper()
	if store == nil {
		store = memory.New()
	}
	opts := []booking.Option{
		booking.WithClock(func() time.Time { return time.Date(2026, time.October, 18, 10, 0, 0, 0, time.UTC) }),
		booking.WithLocation(time.UTC),
	}
	engine, err := booking.NewEngine(store, opts...)
	require.NoError(t, err)
	projector, err := booking.NewProjector(store, opts...)
	require.NoError(t, err)

	return (&web.Server{Engine: engine, Projector: projector}).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type bookingBody struct {
	BookingID string `json:"bookingId"`
}

type availabilityBody struct {
	AvailableDates []string `json:"availableDates"`
}

type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Path    string `json:"path"`
}

func book(t *testing.T, h http.Handler, start, end string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, api+"/book",
		`{"name":"Jane","email":"jane@example.com","start":"`+start+`","end":"`+end+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[bookingBody](t, rec).BookingID
}

func Test_Healthz(t *testing.T) {
	rec := do(t, givenServer(t, nil), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func Test_Lifecycle(t *testing.T) {
	h := givenServer(t, nil)

	rec := do(t, h, http.MethodGet, api+"/availability?start=2026-10-19&end=2026-10-23", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"2026-10-19", "2026-10-20", "2026-10-21", "2026-10-22", "2026-10-23"},
		decode[availabilityBody](t, rec).AvailableDates)

	id := book(t, h, "2026-10-20", "2026-10-21")

	rec = do(t, h, http.MethodPost, api+"/book",
		`{"name":"Grace","email":"grace@example.com","start":"2026-10-21","end":"2026-10-23"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, decode[errorBody](t, rec).Status)

	rec = do(t, h, http.MethodPatch, api+"/update/"+id, `{"start":"2026-10-22","end":"2026-10-23"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, decode[bookingBody](t, rec).BookingID)

	rec = do(t, h, http.MethodGet, api+"/availability?start=2026-10-19&end=2026-10-23", "")
	assert.Equal(t, []string{"2026-10-19", "2026-10-20", "2026-10-21"}, decode[availabilityBody](t, rec).AvailableDates)

	rec = do(t, h, http.MethodDelete, api+"/cancel/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[bookingBody](t, rec).BookingID)

	rec = do(t, h, http.MethodDelete, api+"/cancel/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Availability_DefaultsEndToHorizon(t *testing.T) {
	rec := do(t, givenServer(t, nil), http.MethodGet, api+"/availability?start=2026-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	dates := decode[availabilityBody](t, rec).AvailableDates
	require.NotEmpty(t, dates)
	assert.Equal(t, "2026-10-19", dates[0])
	assert.Equal(t, "2026-11-18", dates[len(dates)-1])
	assert.Len(t, dates, 31)
}

func Test_Availability_BadRequests(t *testing.T) {
	h := givenServer(t, nil)
	for name, query := range map[string]string{
		"missing start":  "",
		"bad start":      "?start=19-10-2026",
		"bad end":        "?start=2026-10-19&end=tomorrow",
		"inverted range": "?start=2026-10-25&end=2026-10-20",
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, api+"/availability"+query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, http.StatusBadRequest, body.Status)
			assert.Equal(t, api+"/availability", body.Path)
		})
	}
}

func Test_Book_Validation(t *testing.T) {
	h := givenServer(t, nil)
	cases := map[string]struct {
		body    string
		message string
	}{
		"missing name":  {`{"email":"a@b.c","start":"2026-10-20","end":"2026-10-21"}`, "Name cannot be missing or empty"},
		"blank name":    {`{"name":"  ","email":"a@b.c","start":"2026-10-20","end":"2026-10-21"}`, "Name cannot be missing or empty"},
		"missing email": {`{"name":"a","start":"2026-10-20","end":"2026-10-21"}`, "Email cannot be missing or empty"},
		"bad email":     {`{"name":"a","email":"not-an-email","start":"2026-10-20","end":"2026-10-21"}`, "Not a valid Email"},
		"missing start": {`{"name":"a","email":"a@b.c","end":"2026-10-21"}`, "Start date cannot be missing or empty"},
		"missing end":   {`{"name":"a","email":"a@b.c","start":"2026-10-20"}`, "End date cannot be missing or empty"},
		"lead time":     {`{"name":"a","email":"a@b.c","start":"2026-10-18","end":"2026-10-19"}`, "lead time"},
		"max span":      {`{"name":"a","email":"a@b.c","start":"2026-10-20","end":"2026-10-23"}`, "max span"},
		"horizon":       {`{"name":"a","email":"a@b.c","start":"2026-11-18","end":"2026-11-19"}`, "horizon"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, api+"/book", c.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[errorBody](t, rec).Message, c.message)
		})
	}
}

func Test_Book_MalformedBody(t *testing.T) {
	h := givenServer(t, nil)

	rec := do(t, h, http.MethodPost, api+"/book", `{"name":"a","email":"a@b.c","start":"20/10/2026","end":"2026-10-21"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, api+"/book", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, api+"/book", strings.NewReader(`name=a`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func Test_Update_And_Cancel_RejectMalformedID(t *testing.T) {
	h := givenServer(t, nil)

	rec := do(t, h, http.MethodPatch, api+"/update/not-a-uuid", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid UUID", decode[errorBody](t, rec).Message)

	rec = do(t, h, http.MethodDelete, api+"/cancel/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_Update_UnknownReservation(t *testing.T) {
	rec := do(t, givenServer(t, nil), http.MethodPatch,
		api+"/update/0b4c3a55-6ad8-4c5e-9d7b-2f0e5bca3f21", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_Update_Validation(t *testing.T) {
	h := givenServer(t, nil)
	id := book(t, h, "2026-10-20", "2026-10-21")

	rec := do(t, h, http.MethodPatch, api+"/update/"+id, `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not a valid Email", decode[errorBody](t, rec).Message)

	rec = do(t, h, http.MethodPatch, api+"/update/"+id, `{"name":"  "}`)
	assert.Equal(t, http.StatusOK, rec.Code, "update places no constraint on name")

	rec = do(t, h, http.MethodPatch, api+"/update/"+id, `{"end":"2026-10-25"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Message, "max span")
}

type brokenStore struct{}

func (brokenStore) InTx(context.Context, booking.TxMode, func(booking.Repository) error) error {
	return errors.New("connection refused")
}

func Test_StoreOutageIsServiceUnavailable(t *testing.T) {
	h := givenServer(t, brokenStore{})

	rec := do(t, h, http.MethodGet, api+"/availability?start=2026-10-19", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func Test_MethodNotAllowed(t *testing.T) {
	rec := do(t, givenServer(t, nil), http.MethodGet, api+"/book", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func Test_Ready(t *testing.T) {
	engine, err := booking.NewEngine(memory.New())
	require.NoError(t, err)
	projector, err := booking.NewProjector(memory.New())
	require.NoError(t, err)

	h := (&web.Server{
		Engine:    engine,
		Projector: projector,
		Ready:     func(context.Context) error { return errors.New("db down") },
	}).Routes()

	rec := do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
