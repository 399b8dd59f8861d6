package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stuntcheck/internal/database"
	"stuntcheck/internal/identity"
	"stuntcheck/internal/inference"
	"stuntcheck/internal/repository"
	"stuntcheck/internal/security"
	"stuntcheck/internal/service"
	"stuntcheck/internal/validation"
)

const modelResponse = `{"status":"Stunting","confidence":0.87,"nutrition_recommendation":"Tambahkan protein hewani","additional_info":{"z_score":-2.4}}`

// fakeModel is a stand-in for the prediction model's HTTP API
type fakeModel struct {
	mu       sync.Mutex
	calls    int
	last     map[string]interface{}
	status   int
	response string
}

func (m *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.URL.Path == "/" {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","model":"stunting-v2"}`))
		return
	}

	m.calls++
	m.last = nil
	json.NewDecoder(r.Body).Decode(&m.last)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(m.status)
	w.Write([]byte(m.response))
}

func (m *fakeModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Last returns the JSON body of the most recent predict call
func (m *fakeModel) Last() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *fakeModel) Fail() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = http.StatusBadGateway
	m.response = `{"error":"worker crashed"}`
}

// Respond makes the model answer 200 with body
func (m *fakeModel) Respond(body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = http.StatusOK
	m.response = body
}

type testEnv struct {
	router  http.Handler
	db      *database.DB
	model   *fakeModel
	limiter *security.RateLimiter
}

type envOptions struct {
	rate           int
	checkChild     bool
	trustedProxies []string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, envOptions{rate: 1000})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), database.Migrations))

	model := &fakeModel{status: http.StatusOK, response: modelResponse}
	modelServer := httptest.NewServer(model)
	t.Cleanup(modelServer.Close)

	limiter := security.NewRateLimiter(opts.rate, time.Minute)
	t.Cleanup(limiter.Close)
	ips, err := security.NewIPResolver(opts.trustedProxies)
	require.NoError(t, err)

	validator := validation.New()
	provider := identity.NewLocalProvider(repository.NewUserRepository(db), "test-secret", time.Hour)
	modelClient := inference.NewClient(modelServer.URL, modelServer.URL+"/", 2*time.Second)
	childRepo := repository.NewChildRepository(db)

	h := Handlers{
		Auth:        NewAuthHandler(service.NewAccountService(provider, repository.NewProfileRepository(db), nil, validator)),
		Children:    NewChildHandler(service.NewChildService(childRepo, validator)),
		Predictions: NewPredictionHandler(service.NewPredictionService(repository.NewPredictionRepository(db), childRepo, modelClient, validator, opts.checkChild)),
		Diagnostics: NewDiagnosticsHandler(modelClient),
		Middleware:  NewMiddleware(provider, limiter, ips),
	}

	return &testEnv{
		router:  NewRouter(h, RouterConfig{MaxBodyBytes: 1 << 20}),
		db:      db,
		model:   model,
		limiter: limiter,
	}
}

// do sends a request through the router. body may be nil, a string or a value to encode.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// signUp registers and signs in a user, returning the user id and access token
func (e *testEnv) signUp(t *testing.T, email string) (string, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
		"name":     "Parent " + email,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Session identity.Session  `json:"session"`
		User    identity.Identity `json:"user"`
	}
	decode(t, rec, &body)
	return body.User.ID, body.Session.AccessToken
}

func (e *testEnv) createChild(t *testing.T, token string, body interface{}) map[string]interface{} {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/children", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Child map[string]interface{} `json:"child"`
	}
	decode(t, rec, &resp)
	return resp.Child
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	require.NoError(t, e.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body errorResponse
	decode(t, rec, &body)
	return body.Error
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
