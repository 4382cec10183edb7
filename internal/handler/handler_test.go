package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maintenance-service/internal/auth"
	"maintenance-service/internal/middleware"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/internal/service"
	"maintenance-service/pkg/jwtutil"
	"maintenance-service/pkg/oauth"
	"maintenance-service/pkg/ratelimit"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	e        *echo.Echo
	services struct {
		users         *service.UserService
		companies     *service.CompanyService
		accounts      *service.AccountService
		subscriptions *service.SubscriptionService
	}
}

func newTestApp(t *testing.T, validator auth.TokenValidator, tokens *jwtutil.JWTUtil, remote *auth.RemoteValidator) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Company{}, &model.Subscription{}, &model.Account{}, &model.User{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store := repository.NewGormStore(db)
	sessions := service.NewSessionService(store, nil)
	quota := service.NewQuotaService(store)

	app := &testApp{e: echo.New()}
	app.services.users = service.NewUserService(store.Users, quota, nil)
	app.services.companies = service.NewCompanyService(store.Companies, nil)
	app.services.accounts = service.NewAccountService(store.Accounts, store.Subscriptions, nil)
	app.services.subscriptions = service.NewSubscriptionService(store.Subscriptions, nil)

	var issuer service.TokenIssuer
	if tokens != nil {
		issuer = tokens
	}
	authService := service.NewAuthService(app.services.users, store.Companies, sessions, issuer, validator, nil)

	RegisterRoutes(app.e, auth.NewPipeline(validator), Handlers{
		Health:        NewHealthHandler("maintenance-service", "test"),
		Auth:          NewAuthHandler(authService, quota, remote),
		Users:         NewUserHandler(app.services.users),
		Companies:     NewCompanyHandler(app.services.companies),
		Accounts:      NewAccountHandler(app.services.accounts),
		Subscriptions: NewSubscriptionHandler(app.services.subscriptions),
	}, RouteOptions{
		LocalAuth:    tokens != nil,
		LoginLimiter: middleware.LoginRateLimit(ratelimit.NewMemoryLimiter(0, nil), 3, time.Minute),
	})
	return app
}

// seed creates a company with a plan allowing limit users, plus one user with role
func (a *testApp) seed(t *testing.T, role model.Role, limit int64) (*model.Company, *model.User) {
	t.Helper()
	ctx := context.Background()
	company, err := a.services.companies.Create(ctx, service.CreateCompanyInput{Name: "Acme"})
	require.NoError(t, err)
	subscription, err := a.services.subscriptions.Create(ctx, service.CreateSubscriptionInput{
		Name:      "Pro",
		CompanyID: company.ID,
		Settings:  []model.EntitySetting{{Entity: "users", CreateLimitRegistry: limit}},
	})
	require.NoError(t, err)
	_, err = a.services.accounts.Create(ctx, service.CreateAccountInput{CompanyID: company.ID, SubscriptionID: subscription.ID})
	require.NoError(t, err)
	user, err := a.services.users.Create(ctx, service.CreateUserInput{
		Email: "ana@example.com", Password: "password123", Name: "Ana", Role: role, CompanyID: company.ID,
	})
	require.NoError(t, err)
	return company, user
}

func (a *testApp) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func localApp(t *testing.T) *testApp {
	tokens := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{Secret: "handler-secret", AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour})
	return newTestApp(t, auth.NewLocalValidator(tokens, nil), tokens, nil)
}

func login(t *testing.T, app *testApp) model.AuthResponse {
	t.Helper()
	rec := app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	app := localApp(t)
	rec := app.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestLoginAndSession(t *testing.T) {
	app := localApp(t)
	company, user := app.seed(t, model.RoleAdmin, 10)

	resp := login(t, app)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.Session.User.ID)
	assert.Equal(t, company.ID, resp.Session.Company.ID)

	rec := app.do(http.MethodGet, "/auth/session", resp.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = app.do(http.MethodGet, "/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"no token"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/auth/profile", resp.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token is not an access token")

	rec = app.do(http.MethodPost, "/auth/refresh", "", `{"refreshToken":"`+resp.RefreshToken+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(http.MethodPost, "/auth/logout", resp.AccessToken, "")
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/verify-token", "", `{"token":"`+resp.AccessToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"valid":true`)
}

func TestLoginFailures(t *testing.T) {
	app := localApp(t)
	app.seed(t, model.RoleUser, 10)

	rec := app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestUserEndpointsEnforceRolesAndQuota(t *testing.T) {
	app := localApp(t)
	company, _ := app.seed(t, model.RoleAdmin, 2)
	token := login(t, app).AccessToken

	rec := app.do(http.MethodPost, "/api/users", token, `{"email":"bob@example.com","password":"password123","name":"Bob","role":"user"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var bob model.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bob))
	assert.Equal(t, company.ID, bob.CompanyID)

	rec = app.do(http.MethodPost, "/api/users", token, `{"email":"carol@example.com","password":"password123","name":"Carol"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "users quota is 2")

	rec = app.do(http.MethodGet, "/api/users?limit=1&sortBy=email&sortOrder=asc", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.Page[model.User]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.Equal(t, "ana@example.com", page.Data[0].Email)

	rec = app.do(http.MethodGet, "/auth/quota/users", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":false,"limit":2,"current":2}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/auth/quota/locations", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"allowed":true,"limit":-1,"current":0}`, rec.Body.String())

	rec = app.do(http.MethodDelete, "/api/users/"+bob.ID, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(http.MethodGet, "/api/users/"+bob.ID, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(http.MethodPost, "/api/users/"+bob.ID+"/restore", token, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlainUserIsForbidden(t *testing.T) {
	app := localApp(t)
	app.seed(t, model.RoleUser, 10)
	token := login(t, app).AccessToken

	rec := app.do(http.MethodGet, "/api/users", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Insufficient permissions"}`, rec.Body.String())

	rec = app.do(http.MethodGet, "/api/companies", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Insufficient role"}`, rec.Body.String())

	rec = app.do(http.MethodPost, "/auth/change-password", token, `{"currentPassword":"password123","newPassword":"changed123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRemoteStrategyUsesCompanyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer remote-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"remote-1","username":"ops","roles":["manager"],"permissions":["users:read"]}`))
	}))
	defer srv.Close()

	remote := auth.NewRemoteValidator(oauth.NewClient(srv.URL, time.Second, nil), nil)
	app := newTestApp(t, remote, nil, remote)
	company, _ := app.seed(t, model.RoleUser, 10)

	rec := app.do(http.MethodPost, "/auth/login", "", `{"email":"ana@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, "login is not mounted under the remote strategy")

	rec = app.do(http.MethodGet, "/api/users", "remote-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "company scope missing")

	rec = app.do(http.MethodGet, "/api/users", "remote-token", "", HeaderCompanyID, company.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ana@example.com")

	rec = app.do(http.MethodPost, "/api/users", "remote-token", `{"email":"x@example.com","password":"password123","name":"X"}`, HeaderCompanyID, company.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code, "users:create not granted")

	rec = app.do(http.MethodGet, "/api/users", "bad-token", "", HeaderCompanyID, company.ID)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodGet, "/auth/userinfo", "remote-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sub":"remote-1"`)
}
