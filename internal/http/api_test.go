package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flight-board/internal/domain"
	"flight-board/internal/repository/memory"
	"flight-board/internal/repository/sqlite"
	"flight-board/internal/service"
	"flight-board/internal/session"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router  *gin.Engine
	prefs   *memory.PreferenceRepository
	manager *session.Manager
	clock   *clockwork.FakeClock
	flights []domain.Flight
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	logger, _ := test.NewNullLogger()
	clock := clockwork.NewFakeClockAt(testNow)

	prefs := memory.NewPreferenceRepository()
	manager := session.NewManager(prefs, logger)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "flightboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	flightRepo := sqlite.NewFlightRepository(db)
	require.NoError(t, flightRepo.Init(ctx))

	flights := service.NewFlightService(flightRepo, clock)
	require.NoError(t, flights.Seed(ctx, 24))

	router := gin.New()
	NewHandler(
		service.NewUserService(manager),
		flights,
		manager,
		NewTokenIssuer("test-secret", time.Hour, clock),
		logger,
	).RegisterRoutes(router)

	return &testEnv{
		router:  router,
		prefs:   prefs,
		manager: manager,
		clock:   clock,
		flights: service.GenerateFlights(testNow, 24),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) find(t *testing.T, match func(domain.Flight) bool) domain.Flight {
	t.Helper()
	for _, f := range e.flights {
		if match(f) {
			return f
		}
	}
	t.Fatal("no matching flight in generated board")
	return domain.Flight{}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodOptions, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSession_FreshState(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SessionResponse](t, rec)
	assert.Equal(t, SessionResponse{}, resp)
}

func TestSession_UpdateProfileReportsValidity(t *testing.T) {
	env := newTestEnv(t)

	resp := decode[SessionResponse](t, env.do(t, http.MethodPut, "/api/session/profile", gin.H{"name": "Al"}))
	assert.True(t, resp.Registered)
	assert.False(t, resp.UserNameValid)

	resp = decode[SessionResponse](t, env.do(t, http.MethodPut, "/api/session/profile", gin.H{"name": "Ana"}))
	assert.True(t, resp.UserNameValid)
	assert.False(t, env.prefs.Has(session.ProfileKey))
}

func TestSession_UpdateSettingsPersists(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/session/settings", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/session/settings", gin.H{"rememberUser": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[SessionResponse](t, rec).RememberUser)
	assert.True(t, env.prefs.Has(session.SettingsKey))
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Al", "rememberUser": true})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.prefs.Has(session.ProfileKey))

	rec = env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Sam", "rememberUser": true})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[RegisterResponse](t, rec)
	assert.Equal(t, "Sam", resp.Session.Name)
	assert.True(t, resp.Session.Registered)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, testNow.Add(time.Hour).Format(time.RFC3339), resp.ExpiresAt)

	data, err := env.prefs.Get(context.Background(), session.ProfileKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Sam"}`, string(data))
}

func TestRegister_WithoutRememberClearsStoredProfile(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Sam", "rememberUser": true})

	rec := env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Sam", "rememberUser": false})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, env.prefs.Has(session.ProfileKey))
}

func TestSession_ForgetAndLoad(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Ana", "rememberUser": true})

	resp := decode[SessionResponse](t, env.do(t, http.MethodDelete, "/api/session/profile", nil))
	assert.Equal(t, "Ana", resp.Name, "in-memory profile survives")
	assert.False(t, env.prefs.Has(session.ProfileKey))

	env.manager.SetUserName("")
	resp = decode[SessionResponse](t, env.do(t, http.MethodPost, "/api/session/load", nil))
	assert.Equal(t, "", resp.Name, "nothing persisted to restore")
	assert.True(t, resp.RememberUser)
}

func TestFlights_Board(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/flights?direction=arrival", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	arrivals := decode[[]FlightResponse](t, rec)
	assert.Len(t, arrivals, 12)
	for _, f := range arrivals {
		assert.Equal(t, "arrival", f.Direction)
	}

	rec = env.do(t, http.MethodGet, "/api/flights?direction=departure&hide_cancelled=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, f := range decode[[]FlightResponse](t, rec) {
		assert.NotEqual(t, "cancelled", f.Status)
	}

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/flights", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/flights?direction=arrival&hide_cancelled=maybe", nil).Code)
}

func TestFlights_Get(t *testing.T) {
	env := newTestEnv(t)
	want := env.flights[0]

	rec := env.do(t, http.MethodGet, "/api/flights/"+want.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[FlightResponse](t, rec)
	assert.Equal(t, want.Number, got.Number)
	assert.Equal(t, want.StatusText(), got.StatusText)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/flights/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/flights/00000000-0000-0000-0000-000000000001", nil).Code)
}

func TestFlights_CheckInRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	open := env.find(t, domain.Flight.CanCheckIn)
	path := "/api/flights/" + open.ID.String() + "/checkin"

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, path, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, path, nil, "Authorization", "Bearer garbage").Code)

	token := decode[RegisterResponse](t, env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Sam"})).Token

	rec := env.do(t, http.MethodPost, path, nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[CheckInResponse](t, rec)
	assert.Equal(t, "Sam", resp.Passenger)
	assert.Equal(t, open.Number, resp.Flight)
	assert.Equal(t, "Check in for "+open.Airline+" Flight "+open.Number, resp.Message)

	closed := env.find(t, func(f domain.Flight) bool { return !f.CanCheckIn() })
	rec = env.do(t, http.MethodPost, "/api/flights/"+closed.ID.String()+"/checkin", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFlights_CheckInRejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	open := env.find(t, domain.Flight.CanCheckIn)
	token := decode[RegisterResponse](t, env.do(t, http.MethodPost, "/api/session/register", gin.H{"name": "Sam"})).Token

	env.clock.Advance(2 * time.Hour)

	rec := env.do(t, http.MethodPost, "/api/flights/"+open.ID.String()+"/checkin", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestFlights_Rebook(t *testing.T) {
	env := newTestEnv(t)
	cancelled := env.find(t, domain.Flight.CanRebook)
	running := env.find(t, func(f domain.Flight) bool { return !f.CanRebook() })

	rec := env.do(t, http.MethodPost, "/api/flights/"+cancelled.ID.String()+"/rebook", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["rebooked"])
	assert.Equal(t, "Contact Your Airline", body["title"])

	rec = env.do(t, http.MethodPost, "/api/flights/"+running.ID.String()+"/rebook", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionEvents_Stream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/session/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.HasPrefix(scanner.Text(), "data:") {
				lines <- strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "data:"))
			}
		}
		close(lines)
	}()

	next := func() SessionEventResponse {
		t.Helper()
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed")
			var ev SessionEventResponse
			require.NoError(t, json.Unmarshal([]byte(line), &ev))
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return SessionEventResponse{}
		}
	}

	assert.Equal(t, "snapshot", next().Kind)

	env.manager.SetUserName("Ana")
	ev := next()
	assert.Equal(t, string(session.EventProfileChanged), ev.Kind)
	assert.Equal(t, "Ana", ev.Session.Name)
	assert.True(t, ev.Session.UserNameValid)
}
