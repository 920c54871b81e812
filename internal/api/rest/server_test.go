package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaffeewerk/brewcore/internal/api/websocket"
	"github.com/kaffeewerk/brewcore/internal/auth"
	"github.com/kaffeewerk/brewcore/internal/config"
	"github.com/kaffeewerk/brewcore/internal/interfaces"
	"github.com/kaffeewerk/brewcore/internal/journal"
	"github.com/kaffeewerk/brewcore/internal/machine"
	"github.com/kaffeewerk/brewcore/internal/pvar"
	"github.com/kaffeewerk/brewcore/internal/recipes"
)

// stubLifecycle wires real store and controller instances behind the
// LifecycleManager interface without starting any loops or servers.
type stubLifecycle struct {
	cfg   *config.Config
	store *pvar.MemoryStore
	ctrl  *machine.Controller
}

func (s *stubLifecycle) Config() *config.Config                  { return s.cfg }
func (s *stubLifecycle) Store() *pvar.MemoryStore                { return s.store }
func (s *stubLifecycle) MachineController() *machine.Controller  { return s.ctrl }
func (s *stubLifecycle) Journal() *journal.Journal               { return nil }
func (s *stubLifecycle) Shutdown(ctx context.Context) error      { return nil }
func (s *stubLifecycle) GetCurrentStatus() interfaces.SystemStatus {
	return interfaces.SystemStatus{State: "RUNNING", MachineState: s.ctrl.Status().State}
}

var (
	testHashOnce sync.Once
	testHash     string
)

// Argon2id hashing is deliberately expensive; compute the fixture hash once.
func testPasswordHash(t *testing.T) string {
	t.Helper()
	testHashOnce.Do(func() {
		hash, err := auth.NewPasswordHasher().HashPassword("correct-horse")
		require.NoError(t, err)
		testHash = hash
	})
	return testHash
}

type testServer struct {
	server *Server
	lm     *stubLifecycle
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{HTTPPort: 0, ShutdownTimeout: time.Second},
		Auth: config.AuthConfig{
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
			Users: []config.UserCredential{
				{Username: "operator", PasswordHash: testPasswordHash(t), Role: "operator"},
				{Username: "tech", PasswordHash: testPasswordHash(t), Role: "technician"},
				{Username: "chief", PasswordHash: testPasswordHash(t), Role: "admin"},
			},
		},
	}

	logger := zap.NewNop()
	store := pvar.NewMemoryStore(pvar.Catalog())
	ctrl := machine.NewController(logger, store, recipes.Defaults(),
		machine.Timing{TickInterval: 2 * time.Millisecond, HeatingTicks: 2, ResetTicks: 1}, nil)
	t.Cleanup(ctrl.Stop)

	authService := auth.NewAuthService(cfg.Auth, logger)
	hub := websocket.NewHub(logger, authService)
	lm := &stubLifecycle{cfg: cfg, store: store, ctrl: ctrl}

	return &testServer{
		server: NewServer(cfg, lm, hub, authService, logger),
		lm:     lm,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", apiBody{
		"username": username,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

type apiBody = map[string]any

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", apiBody{
		"username": "operator",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "tech")

	rec := ts.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		User struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tech", resp.User.Username)
	assert.Equal(t, "technician", resp.User.Role)
}

func TestVariablesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/variables", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListVariables(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodGet, "/api/v1/variables", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Variables []variableView `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Variables, len(pvar.Catalog()))
}

func TestGetVariable(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodGet, "/api/v1/variables/PanelMessage", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view variableView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "PanelMessage", view.Name)
	assert.Equal(t, "Machine Off", view.Value)

	rec = ts.do(t, http.MethodGet, "/api/v1/variables/NoSuchVariable", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutInputVariable(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodPut, "/api/v1/variables/CoffeeType", token, apiBody{"value": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	v, err := ts.lm.store.GetInt16(pvar.VarCoffeeType)
	require.NoError(t, err)
	assert.Equal(t, int16(2), v)
}

func TestPutOutputVariableForbidden(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodPut, "/api/v1/variables/PanelMessage", token, apiBody{"value": "hacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	panel, err := ts.lm.store.GetString(pvar.VarPanelMessage)
	require.NoError(t, err)
	assert.Equal(t, "Machine Off", panel)
}

func TestPutVariableTypeMismatch(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodPut, "/api/v1/variables/PowerOnButton", token, apiBody{"value": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/variables/CoffeeType", token, apiBody{"value": 1.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/variables/CoffeeType", token, apiBody{"value": 40000})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMachineStatus(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodGet, "/api/v1/machine/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status machine.MachineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "IDLE", status.State)
	assert.Equal(t, int16(100), status.Levels.Water)
}

func TestMachineCommandRequiresTechnician(t *testing.T) {
	ts := newTestServer(t)
	operator := ts.login(t, "operator")

	rec := ts.do(t, http.MethodPost, "/api/v1/machine/command", operator, apiBody{"command": "power_on"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMachineCommandPowerOn(t *testing.T) {
	ts := newTestServer(t)
	tech := ts.login(t, "tech")

	rec := ts.do(t, http.MethodPost, "/api/v1/machine/command", tech, apiBody{"command": "power_on"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var resp struct {
		Command    string `json:"command"`
		State      string `json:"state"`
		SequenceID string `json:"sequence_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "power_on", resp.Command)
}

func TestMachineCommandRejections(t *testing.T) {
	ts := newTestServer(t)
	tech := ts.login(t, "tech")

	// select_coffee while idle is an invalid command.
	rec := ts.do(t, http.MethodPost, "/api/v1/machine/command", tech, apiBody{
		"command":     "select_coffee",
		"coffee_type": 2,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// select_coffee without a type is a bad request.
	rec = ts.do(t, http.MethodPost, "/api/v1/machine/command", tech, apiBody{"command": "select_coffee"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/machine/command", tech, apiBody{"command": "grind_beans"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsUnavailableWithoutJournal(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodGet, "/api/v1/events", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSystemStatusAndShutdownPermissions(t *testing.T) {
	ts := newTestServer(t)
	operator := ts.login(t, "operator")
	chief := ts.login(t, "chief")

	rec := ts.do(t, http.MethodGet, "/api/v1/system/status", operator, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status interfaces.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "RUNNING", status.State)
	assert.Equal(t, "IDLE", status.MachineState)

	rec = ts.do(t, http.MethodPost, "/api/v1/system/shutdown", operator, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/system/shutdown", chief, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWsStatus(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "operator")

	rec := ts.do(t, http.MethodGet, "/api/v1/ws/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ConnectedClients int `json:"connected_clients"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.ConnectedClients)
}
