package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarreg/api/internal/config"
	"stellarreg/api/internal/metrics"
	"stellarreg/api/internal/ratelimit"
	"stellarreg/api/internal/repository"
	"stellarreg/api/internal/security"
	"stellarreg/api/internal/service"
)

const (
	testUsername = "mission-control"
	testPassword = "launch-window-42"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	engine  *gin.Engine
	now     time.Time
	metrics *metrics.Manager
}

func (f *fixture) clock() time.Time {
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		now:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		metrics: metrics.NewTestManager(),
	}

	hasher := security.NewHasher(security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	admins := repository.NewMemoryAdminRepository()
	_, err := service.ProvisionAdmin(context.Background(), admins, hasher, testUsername, testPassword, false)
	require.NoError(t, err)

	auth, err := service.NewAuthService(admins, hasher, hasher, service.AuthOptions{}, zerolog.Nop())
	require.NoError(t, err)
	auth.Now = f.clock

	limiter := ratelimit.NewMemory(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
	limiter.Now = f.clock

	regs := repository.NewMemoryRegistrationRepository()
	regs.Now = f.clock

	h := NewHandlerSet(zerolog.Nop(), &config.AppConfig{Environment: "test"}, Dependencies{
		Auth:          auth,
		Registrations: service.NewRegistrationService(regs),
		SearchLimiter: limiter,
		Metrics:       f.metrics,
	})

	f.engine = gin.New()
	h.Register(f.engine.Group("/api"))
	return f
}

func (f *fixture) do(method, path, body, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	return f.do(http.MethodPost, path, body, "")
}

type loginBody struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
}

func (f *fixture) login(t *testing.T) loginBody {
	t.Helper()
	w := f.post("/api/admin-login", fmt.Sprintf(`{"username":%q,"password":%q}`, testUsername, testPassword))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out loginBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.Token)
	require.NotEmpty(t, out.AdminID)
	return out
}

func sessionBody(s loginBody, extra string) string {
	if extra != "" {
		extra = "," + extra
	}
	return fmt.Sprintf(`{"adminId":%q,"token":%q%s}`, s.AdminID, s.Token, extra)
}

func (f *fixture) register(t *testing.T, name, rollNumber, branch string) map[string]any {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"roll_number":%q,"email":"%s@example.edu","phone":"9876543210","branch":%q}`,
		name, rollNumber, strings.ToLower(rollNumber), branch)
	w := f.post("/api/registrations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		Registration map[string]any `json:"registration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Registration
}

func TestAdminLogin(t *testing.T) {
	testCases := []struct {
		name               string
		body               string
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "WrongPassword",
			body:               fmt.Sprintf(`{"username":%q,"password":"nope-nope"}`, testUsername),
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       `{"error":"Invalid credentials"}`,
		},
		{
			name:               "UnknownUsername",
			body:               `{"username":"ground-control","password":"whatever-123"}`,
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       `{"error":"Invalid credentials"}`,
		},
		{
			name:               "MissingPassword",
			body:               fmt.Sprintf(`{"username":%q}`, testUsername),
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Username and password are required"}`,
		},
		{
			name:               "InvalidAction",
			body:               fmt.Sprintf(`{"username":%q,"password":%q,"action":"reset"}`, testUsername, testPassword),
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid action"}`,
		},
		{
			name:               "MalformedBody",
			body:               `{"username":`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid request body"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.post("/api/admin-login", tc.body)
			assert.Equal(t, tc.expectedStatusCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestAdminLogin_ExplicitLoginAction(t *testing.T) {
	f := newFixture(t)
	w := f.post("/api/admin-login", fmt.Sprintf(`{"username":%q,"password":%q,"action":"login"}`, testUsername, testPassword))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSession_ExpiresAfterTTL(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada Lovelace", "21CS001", "cse")

	session := f.login(t)

	w := f.post("/api/admin-list-registrations", sessionBody(session, ""))
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Registrations []map[string]any `json:"registrations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Registrations, 1)
	assert.Equal(t, "21CS001", list.Registrations[0]["roll_number"])
	assert.Equal(t, "9876543210", list.Registrations[0]["phone"])

	f.advance(23 * time.Hour)
	w = f.post("/api/admin-list-registrations", sessionBody(session, ""))
	assert.Equal(t, http.StatusOK, w.Code)

	f.advance(2 * time.Hour)
	w = f.post("/api/admin-list-registrations", sessionBody(session, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Session expired"}`, w.Body.String())
}

func TestAdminSession_SecondLoginReplacesFirst(t *testing.T) {
	f := newFixture(t)

	first := f.login(t)
	second := f.login(t)
	require.Equal(t, first.AdminID, second.AdminID)
	require.NotEqual(t, first.Token, second.Token)

	w := f.post("/api/admin-list-registrations", sessionBody(first, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid session"}`, w.Body.String())

	w = f.post("/api/admin-list-registrations", sessionBody(second, ""))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminSession_Rejections(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	w := f.post("/api/admin-list-registrations", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())

	w = f.post("/api/admin-list-registrations", fmt.Sprintf(`{"adminId":%q,"token":"forged"}`, session.AdminID))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid session"}`, w.Body.String())

	w = f.post("/api/admin-list-registrations", fmt.Sprintf(`{"adminId":"nobody","token":%q}`, session.Token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid session"}`, w.Body.String())
}

func TestAdminLogout(t *testing.T) {
	f := newFixture(t)
	session := f.login(t)

	w := f.post("/api/admin-logout", sessionBody(session, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = f.post("/api/admin-list-registrations", sessionBody(session, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Session expired"}`, w.Body.String())
}

func TestAdminDeleteRegistration(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "Grace Hopper", "21IT042", "it")
	session := f.login(t)
	id, _ := reg["id"].(string)
	require.NotEmpty(t, id)

	w := f.post("/api/admin-delete-registration", sessionBody(session, ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Registration ID is required"}`, w.Body.String())

	w = f.post("/api/admin-delete-registration", sessionBody(session, fmt.Sprintf(`"registrationId":%q`, id)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = f.post("/api/admin-delete-registration", sessionBody(session, fmt.Sprintf(`"registrationId":%q`, id)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.post("/api/search-registration", `{"roll_number":"21IT042"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"found":false}`, w.Body.String())
}

func TestAdminDeleteRegistration_RequiresSession(t *testing.T) {
	f := newFixture(t)
	w := f.post("/api/admin-delete-registration", `{"registrationId":"r1"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())
}

func TestAdminRegistrationStats(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada Lovelace", "21CS001", "cse")
	f.register(t, "Alan Turing", "21CS002", "CSE")
	f.register(t, "Grace Hopper", "21IT042", "it")
	session := f.login(t)

	w := f.post("/api/admin-registration-stats", sessionBody(session, ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total":3,"branches":[{"branch":"CSE","count":2},{"branch":"IT","count":1}]}`, w.Body.String())
}

func TestCreateRegistration(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "  Katherine Johnson ", "21ECM07", "ecm")
	assert.Equal(t, "Katherine Johnson", reg["name"])
	assert.Equal(t, "ECM", reg["branch"])

	testCases := []struct {
		name               string
		body               string
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "Duplicate",
			body:               `{"name":"Someone Else","roll_number":"21ECM07","email":"x@example.edu","phone":"9876543210","branch":"ecm"}`,
			expectedStatusCode: http.StatusConflict,
			expectedBody:       `{"error":"You are already registered with this roll number"}`,
		},
		{
			name:               "UnknownBranch",
			body:               `{"name":"Someone Else","roll_number":"21MECH1","email":"x@example.edu","phone":"9876543210","branch":"mech"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Unknown branch"}`,
		},
		{
			name:               "BadEmail",
			body:               `{"name":"Someone Else","roll_number":"21CS099","email":"not-an-email","phone":"9876543210","branch":"cse"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid registration details"}`,
		},
		{
			name:               "ShortPhone",
			body:               `{"name":"Someone Else","roll_number":"21CS099","email":"x@example.edu","phone":"12345","branch":"cse"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid registration details"}`,
		},
		{
			name:               "RollNumberWithSpaces",
			body:               `{"name":"Someone Else","roll_number":"21 CS 099","email":"x@example.edu","phone":"9876543210","branch":"cse"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid roll number format"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.post("/api/registrations", tc.body)
			assert.Equal(t, tc.expectedStatusCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestSearchRegistration(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada Lovelace", "21CS001", "cse-ai")

	testCases := []struct {
		name               string
		body               string
		expectedStatusCode int
		expectedBody       string
	}{
		{
			name:               "Found",
			body:               `{"roll_number":"  21CS001  "}`,
			expectedStatusCode: http.StatusOK,
			expectedBody: `{"found":true,"registration":{"name":"Ada Lovelace","roll_number":"21CS001",` +
				`"email":"21cs001@example.edu","branch":"CSE AI","created_at":"2026-03-14T09:00:00Z"}}`,
		},
		{
			name:               "NotFound",
			body:               `{"roll_number":"21CS404"}`,
			expectedStatusCode: http.StatusOK,
			expectedBody:       `{"found":false}`,
		},
		{
			name:               "Missing",
			body:               `{}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Roll number is required"}`,
		},
		{
			name:               "NotAString",
			body:               `{"roll_number":42}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Roll number is required"}`,
		},
		{
			name:               "InvalidCharacters",
			body:               `{"roll_number":"21CS001' OR 1=1"}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       `{"error":"Invalid roll number format"}`,
		},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// one address per case keeps the limiter out of the way
			w := f.do(http.MethodPost, "/api/search-registration", tc.body, fmt.Sprintf("203.0.113.%d:4000", i+1))
			assert.Equal(t, tc.expectedStatusCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestSearchRegistration_RateLimited(t *testing.T) {
	f := newFixture(t)
	const client = "198.51.100.7:5555"

	for i := 0; i < ratelimit.DefaultLimit; i++ {
		w := f.do(http.MethodPost, "/api/search-registration", `{"roll_number":"21CS001"}`, client)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := f.do(http.MethodPost, "/api/search-registration", `{"roll_number":"21CS001"}`, client)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, w.Body.String())

	// the limit is checked before the body is looked at
	w = f.do(http.MethodPost, "/api/search-registration", `not json`, client)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = f.do(http.MethodPost, "/api/search-registration", `{"roll_number":"21CS001"}`, "198.51.100.8:5555")
	assert.Equal(t, http.StatusOK, w.Code)

	f.advance(ratelimit.DefaultWindow + time.Second)
	w = f.do(http.MethodPost, "/api/search-registration", `{"roll_number":"21CS001"}`, client)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListBranches(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/branches", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Branches []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"branches"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.Branches, 7)
	assert.Equal(t, "cse", out.Branches[0].ID)
	assert.Equal(t, "CSE DS", out.Branches[6].Name)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error {
	return fmt.Errorf("connection refused")
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/healthz", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"memory","cache":"disabled","environment":"test"}`, w.Body.String())

	h := NewHandlerSet(zerolog.Nop(), &config.AppConfig{Environment: "test"}, Dependencies{
		DB:      failingPinger{},
		Metrics: metrics.NewTestManager(),
	})
	engine := gin.New()
	engine.GET("/healthz", h.Health)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","database":"error","cache":"disabled","environment":"test"}`, w.Body.String())
}
