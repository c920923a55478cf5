package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/app"
	"github.com/helpdesk/it-helpdesk/internal/auth"
	"github.com/helpdesk/it-helpdesk/internal/config"
	"github.com/helpdesk/it-helpdesk/internal/domain"
	"github.com/helpdesk/it-helpdesk/internal/mail"
	"github.com/helpdesk/it-helpdesk/internal/observability"
	"github.com/helpdesk/it-helpdesk/internal/repository/memory"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

type discardSender struct{}

func (discardSender) Send(context.Context, mail.Message) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "it-helpdesk-test", Version: "test", RequestTimeoutSeconds: 5},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			Issuer:                "it-helpdesk",
			Audience:              "clients",
			AccessTokenTTLMinutes: 15,
			BcryptCost:            4,
		},
	}
}

type testServer struct {
	t   *testing.T
	app *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	a := app.New(app.Dependencies{
		Config:  testConfig(),
		Logger:  zap.NewNop(),
		Metrics: observability.NewMetrics(),
		Repos:   store.Repositories(),
		Tx:      store.TxManager(),
		Sender:  discardSender{},
	})
	return &testServer{t: t, app: a}
}

// login creates an approved account with role and returns its bearer token.
func (s *testServer) login(email string, role domain.Role) string {
	s.t.Helper()
	ctx := context.Background()
	user, err := s.app.Auth.Register(ctx, service.RegisterInput{FirstName: "Test", LastName: string(role), Email: email, Password: "secret1"})
	require.NoError(s.t, err)
	_, err = s.app.Users.ToggleConfirm(ctx, "setup", user.ID)
	require.NoError(s.t, err)
	if role != domain.RoleStaff {
		_, err = s.app.Users.AssignRole(ctx, user.ID, string(role))
		require.NoError(s.t, err)
	}

	resp, body := s.do(http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"secret1"}`)
	require.Equal(s.t, http.StatusOK, resp.StatusCode, body)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal([]byte(body), &out))
	return out.Token
}

func (s *testServer) do(method, path, token, body string) (*http.Response, string) {
	s.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Fiber.Test(req, -1)
	require.NoError(s.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp, string(raw)
}

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out), body)
	return out
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := s.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "in-memory")
}

func TestRegisterValidationErrorShape(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(http.MethodPost, "/api/auth/register", "", `{"email":"not-an-email","password":"123","confirmPassword":"456"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode(t, body)
	assert.Equal(t, "Validation failed", out["message"])
	errs, ok := out["errors"].([]any)
	require.True(t, ok, body)
	assert.Contains(t, errs, "First name is required.")
	assert.Contains(t, errs, "Email must be a valid email address.")
	assert.Contains(t, errs, "Confirm password does not match.")

	resp, body = s.do(http.MethodPost, "/api/auth/register", "", `{"email":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request payload.", decode(t, body)["message"])
}

func TestPendingAccountCannotLogIn(t *testing.T) {
	s := newTestServer(t)
	payload := `{"firstName":"Ada","lastName":"L","email":"ada@example.com","password":"secret1","confirmPassword":"secret1"}`

	resp, body := s.do(http.MethodPost, "/api/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Your account is under review. Please wait for approval.", decode(t, body)["message"])
}

func TestAuthenticationFailures(t *testing.T) {
	s := newTestServer(t)

	resp, _ := s.do(http.MethodGet, "/api/Tickets/all", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(auth.TokenExpiredHeader))

	resp, _ = s.do(http.MethodGet, "/api/Tickets/all", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(auth.TokenExpiredHeader))

	cfg := testConfig().Auth
	past := time.Now().Add(-2 * time.Hour)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	resp, _ = s.do(http.MethodGet, "/api/Tickets/all", expired, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(auth.TokenExpiredHeader))
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	staff := s.login("staff@example.com", domain.RoleStaff)
	it := s.login("it@example.com", domain.RoleIT)
	admin := s.login("admin@example.com", domain.RoleAdmin)

	resp, _ := s.do(http.MethodGet, "/api/dashboard/stats", staff, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/api/dashboard/stats", it, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/admin/departments", staff, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/UserRole/assign", it, `{"userId":"x","role":"Admin"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = s.do(http.MethodPost, "/api/UserRole/assign", admin, `{"userId":"missing","role":"Admin"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/UserRole/list-users", staff, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTicketFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	staff := s.login("staff@example.com", domain.RoleStaff)
	it := s.login("it@example.com", domain.RoleIT)

	resp, body := s.do(http.MethodPost, "/api/Tickets/create", staff,
		`{"title":"Printer offline","description":"Floor 3 printer","category":"Hardware","priority":"High","status":"Closed"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	created := decode(t, body)
	assert.Equal(t, "New", created["status"])
	id := int64(created["id"].(float64))

	resp, body = s.do(http.MethodGet, "/api/Tickets/ticket-counts", it, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, float64(1), decode(t, body)["unreadCount"])

	itUser, err := s.app.Users.SupportUsers(context.Background())
	require.NoError(t, err)
	var itID string
	for _, u := range itUser {
		if u.Email == "it@example.com" {
			itID = u.ID
		}
	}
	require.NotEmpty(t, itID)

	resp, body = s.do(http.MethodPost, "/api/Tickets/"+itoa(id)+"/assign/"+itID, it, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Ticket assigned successfully.", decode(t, body)["message"])

	resp, _ = s.do(http.MethodPut, "/api/Tickets/"+itoa(id)+"/status/Resolved", staff, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(http.MethodPut, "/api/Tickets/"+itoa(id)+"/status/Resolved", it, `{"resolutionNotes":"Power cycled"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/Tickets/"+itoa(id)+"/comments", staff, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No comments found for this ticket.", decode(t, body)["message"])

	resp, body = s.do(http.MethodPost, "/api/Tickets/"+itoa(id)+"/comments", staff, `{"content":"Works now"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/Tickets/paginated?page=0&pageSize=10", staff, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, body = s.do(http.MethodGet, "/api/Tickets/paginated?page=1&pageSize=10", staff, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	page := decode(t, body)
	assert.Equal(t, float64(1), page["totalRecords"])

	resp, _ = s.do(http.MethodDelete, "/api/Tickets/"+itoa(id), staff, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = s.do(http.MethodGet, "/api/Tickets/"+itoa(id), staff, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDashboardRejectsUnknownFilter(t *testing.T) {
	s := newTestServer(t)
	it := s.login("it@example.com", domain.RoleIT)

	resp, body := s.do(http.MethodGet, "/api/dashboard/ticket-status?filter=forever", it, "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid filter value.", decode(t, body)["message"])

	resp, body = s.do(http.MethodGet, "/api/dashboard/monthly-comparison", it, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Len(t, decode(t, body)["currentYear"], 12)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
