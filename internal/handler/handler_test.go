package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"web3nav/internal/auth"
	"web3nav/internal/config"
	"web3nav/internal/db"
	"web3nav/internal/handler"
	"web3nav/internal/logging"
	"web3nav/internal/model"
	"web3nav/internal/repository"
	"web3nav/internal/retry"
	"web3nav/internal/router"
	"web3nav/internal/service"
)

type testApp struct {
	e   *echo.Echo
	gdb *gorm.DB
	jwt *auth.JWTService
}

func newTestApp(t *testing.T, configure ...func(*config.Config)) *testApp {
	t.Helper()

	gdb, err := db.Open("sqlite::memory:", db.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := logging.Discard()
	exec := retry.NewExecutor(retry.WithLogger(logger))
	cfg := &config.Config{JWTSecret: "handler-test-secret"}
	for _, fn := range configure {
		fn(cfg)
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	adminRepo := repository.NewAdminUserRepository(gdb, exec)
	sectionRepo := repository.NewSectionRepository(gdb, exec)
	websiteRepo := repository.NewWebsiteRepository(gdb, exec)

	authService := service.NewAuthService(adminRepo, jwtService)
	_, err = authService.CreateAdmin(context.Background(), "awan", "awansmith123")
	require.NoError(t, err)

	e := echo.New()
	router.Register(
		e,
		cfg,
		logger,
		jwtService,
		handler.NewAuthHandler(authService, cfg.CookieSecure),
		handler.NewSectionHandler(service.NewSectionService(sectionRepo, nil)),
		handler.NewWebsiteHandler(service.NewWebsiteService(websiteRepo, sectionRepo, nil)),
		handler.NewPublicHandler(service.NewDirectoryService(sectionRepo, websiteRepo, nil)),
		handler.NewHealthHandler(gdb, nil),
	)

	return &testApp{e: e, gdb: gdb, jwt: jwtService}
}

func (a *testApp) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

// bearer returns a header map carrying a valid session for the seeded admin.
func (a *testApp) bearer(t *testing.T) map[string]string {
	t.Helper()
	token, _, err := a.jwt.Issue(1, "awan")
	require.NoError(t, err)
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	setCookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, setCookie, "admin_token=")
	assert.Contains(t, setCookie, "Max-Age=86400")
	assert.Contains(t, setCookie, "HttpOnly")
	assert.Contains(t, setCookie, "SameSite=Strict")
	assert.NotContains(t, setCookie, "Secure")

	var body handler.TokenResponse
	decode(t, rec, &body)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Token)
}

func TestLogin_SecureCookieBehindTLSProxy(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`,
		map[string]string{echo.HeaderXForwardedProto: "https"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "Secure")
}

func TestLogin_RateLimitedWithJSONError(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.LoginRateLimit = 1 })

	first := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`, nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	decode(t, second, &body)
	assert.Equal(t, "RATE_LIMITED", body.Code)
	assert.NotEmpty(t, body.Error)
}

func TestLogin_ValidationMessageNamesField(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/admin/login", `{"password":"awansmith123"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"username is a required field","code":"VALIDATION_FAILED"}`, rec.Body.String())
}

func TestLogin_FailuresAreUniform(t *testing.T) {
	app := newTestApp(t)

	wrongPassword := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"nope"}`, nil)
	unknownUser := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"ghost","password":"nope"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Empty(t, wrongPassword.Header().Get(echo.HeaderSetCookie))

	missing := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan"}`, nil)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/admin/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	setCookie := rec.Header().Get(echo.HeaderSetCookie)
	assert.Contains(t, setCookie, "admin_token=;")
	assert.Contains(t, setCookie, "Max-Age=0")
}

func TestSessionMiddleware_RejectsUniformly(t *testing.T) {
	app := newTestApp(t)
	body := `{"key":"tools","title":"Tools"}`

	other := auth.NewJWTService("someone-elses-secret")
	forged, _, err := other.Issue(1, "awan")
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"no token":     nil,
		"garbage":      {echo.HeaderAuthorization: "Bearer not.a.jwt"},
		"wrong secret": {echo.HeaderAuthorization: "Bearer " + forged},
		"bad cookie":   {"Cookie": "admin_token=junk"},
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/admin/sections", body, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized","code":"UNAUTHORIZED"}`, rec.Body.String())
		})
	}
}

func TestSession_AcceptsCookieFromLogin(t *testing.T) {
	app := newTestApp(t)

	login := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`, nil)
	require.Equal(t, http.StatusOK, login.Code)
	var token handler.TokenResponse
	decode(t, login, &token)

	rec := app.do(t, http.MethodGet, "/api/admin/session", "", map[string]string{"Cookie": auth.SessionCookieName + "=" + token.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session handler.SessionResponse
	decode(t, rec, &session)
	assert.True(t, session.Authenticated)
	assert.Equal(t, "awan", session.User.Username)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	h := app.bearer(t)

	wrong := app.do(t, http.MethodPost, "/api/admin/change-password", `{"currentPassword":"bad","newPassword":"new-password-1"}`, h)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	short := app.do(t, http.MethodPost, "/api/admin/change-password", `{"currentPassword":"awansmith123","newPassword":"short"}`, h)
	assert.Equal(t, http.StatusBadRequest, short.Code)

	long := app.do(t, http.MethodPost, "/api/admin/change-password",
		`{"currentPassword":"awansmith123","newPassword":"`+strings.Repeat("x", 100)+`"}`, h)
	assert.Equal(t, http.StatusBadRequest, long.Code, long.Body.String())

	// 36 characters pass the request validator but encode to 108 bytes.
	wide := app.do(t, http.MethodPost, "/api/admin/change-password",
		`{"currentPassword":"awansmith123","newPassword":"`+strings.Repeat("€", 36)+`"}`, h)
	assert.Equal(t, http.StatusBadRequest, wide.Code, wide.Body.String())

	ok := app.do(t, http.MethodPost, "/api/admin/change-password",
		`{"currentPassword":"awansmith123","newPassword":"new-password-1","newUsername":"awan.smith"}`, h)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())
	assert.Contains(t, ok.Header().Get(echo.HeaderSetCookie), "admin_token=")

	old := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan","password":"awansmith123"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, old.Code)

	renamed := app.do(t, http.MethodPost, "/api/admin/login", `{"username":"awan.smith","password":"new-password-1"}`, nil)
	assert.Equal(t, http.StatusOK, renamed.Code)
}

func TestSectionLifecycle(t *testing.T) {
	app := newTestApp(t)
	h := app.bearer(t)

	rec := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"faucets","title":"Faucets","icon":"droplet"}`, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created handler.SectionResponse
	decode(t, rec, &created)
	assert.Equal(t, "faucets", created.Key)
	assert.True(t, created.IsActive)

	dup := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"faucets","title":"Again"}`, h)
	assert.Equal(t, http.StatusConflict, dup.Code)

	badKey := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"Bad Key","title":"x"}`, h)
	assert.Equal(t, http.StatusBadRequest, badKey.Code)

	numericKey := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"2024","title":"x"}`, h)
	assert.Equal(t, http.StatusBadRequest, numericKey.Code)

	site := app.do(t, http.MethodPost, "/api/admin/websites", `{"name":"Tap","url":"https://tap.io","section":"faucets"}`, h)
	require.Equal(t, http.StatusCreated, site.Code, site.Body.String())

	blocked := app.do(t, http.MethodDelete, "/api/admin/sections/faucets", "", h)
	assert.Equal(t, http.StatusBadRequest, blocked.Code)
	var errBody struct {
		Error string `json:"error"`
		Code  string `json:"code"`
		Count int64  `json:"count"`
	}
	decode(t, blocked, &errBody)
	assert.Equal(t, "SECTION_IN_USE", errBody.Code)
	assert.Equal(t, int64(1), errBody.Count)

	updated := app.do(t, http.MethodPut, "/api/admin/sections/1", `{"title":"Testnet Faucets","isActive":false}`, h)
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	var section handler.SectionResponse
	decode(t, updated, &section)
	assert.Equal(t, "Testnet Faucets", section.Title)
	assert.False(t, section.IsActive)

	empty := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"empty","title":"Empty"}`, h)
	require.Equal(t, http.StatusCreated, empty.Code)
	deleted := app.do(t, http.MethodDelete, "/api/admin/sections/empty", "", h)
	assert.Equal(t, http.StatusOK, deleted.Code)

	missing := app.do(t, http.MethodDelete, "/api/admin/sections/empty", "", h)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestSectionOrdering(t *testing.T) {
	app := newTestApp(t)
	h := app.bearer(t)

	for _, key := range []string{"funding", "tools", "faucets"} {
		rec := app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"`+key+`","title":"`+key+`"}`, h)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := app.do(t, http.MethodPost, "/api/admin/sections/reorder", `{"keys":["faucets","tools","funding"]}`, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := app.do(t, http.MethodGet, "/api/admin/sections", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var sections []handler.SectionResponse
	decode(t, list, &sections)
	require.Len(t, sections, 3)
	assert.Equal(t, "faucets", sections[0].Key)
	assert.Equal(t, "funding", sections[2].Key)

	rec = app.do(t, http.MethodPut, "/api/admin/sections/order", `{"items":[{"id":1,"sortOrder":0},{"id":99,"sortOrder":1}]}`, h)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/admin/sections/order", `{"items":[]}`, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/admin/sections/order", `{"items":[{"id":1,"sortOrder":0}]}`, h)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebsiteLifecycle(t *testing.T) {
	app := newTestApp(t)
	h := app.bearer(t)

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/admin/sections", `{"key":"tools","title":"Tools"}`, h).Code)

	bad := app.do(t, http.MethodPost, "/api/admin/websites", `{"name":"x","url":"notaurl","section":"tools"}`, h)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	orphan := app.do(t, http.MethodPost, "/api/admin/websites", `{"name":"x","url":"https://x.io","section":"nope"}`, h)
	assert.Equal(t, http.StatusBadRequest, orphan.Code)

	withKey := map[string]string{
		echo.HeaderAuthorization:     h[echo.HeaderAuthorization],
		handler.IdempotencyKeyHeader: "create-dune-1",
	}
	body := `{"name":"Dune","url":"https://dune.com","tags":["sql","dashboards"],"section":"tools"}`
	first := app.do(t, http.MethodPost, "/api/admin/websites", body, withKey)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	replay := app.do(t, http.MethodPost, "/api/admin/websites", body, withKey)
	require.Equal(t, http.StatusCreated, replay.Code)

	var a, b handler.WebsiteResponse
	decode(t, first, &a)
	decode(t, replay, &b)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, []string{"sql", "dashboards"}, a.Tags)

	updated := app.do(t, http.MethodPut, "/api/admin/websites/1", `{"tags":[],"customLogo":"https://cdn.io/dune.png"}`, h)
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	var w handler.WebsiteResponse
	decode(t, updated, &w)
	assert.Equal(t, []string{}, w.Tags)
	require.NotNil(t, w.CustomLogo)

	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodPut, "/api/admin/websites/abc", `{}`, h).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPut, "/api/admin/websites/42", `{"name":"x"}`, h).Code)

	assert.Equal(t, http.StatusOK, app.do(t, http.MethodPut, "/api/admin/websites/order", `{"items":[{"id":1,"sortOrder":3}]}`, h).Code)

	list := app.do(t, http.MethodGet, "/api/admin/websites?section=tools", "", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var websites []handler.WebsiteResponse
	decode(t, list, &websites)
	require.Len(t, websites, 1)
	assert.Equal(t, 3, websites[0].SortOrder)

	assert.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, "/api/admin/websites/1", "", h).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, "/api/admin/websites/1", "", h).Code)
}

func TestPublicWebsites_TagsAlwaysArrays(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.gdb.Create(&model.Section{Key: "tools", Title: "Tools", IsActive: true}).Error)
	require.NoError(t, app.gdb.Create(&model.Website{Name: "Dune", URL: "https://dune.com", Section: "tools"}).Error)
	require.NoError(t, app.gdb.Exec("UPDATE websites SET tags = NULL").Error)

	rec := app.do(t, http.MethodGet, "/api/websites", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate, proxy-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))

	var raw []map[string]json.RawMessage
	decode(t, rec, &raw)
	require.Len(t, raw, 1)
	assert.Equal(t, "[]", string(raw[0]["tags"]))
}

func TestPublicData(t *testing.T) {
	app := newTestApp(t)

	require.NoError(t, app.gdb.Create(&model.Section{Key: "tools", Title: "Tools", IsActive: true}).Error)
	require.NoError(t, app.gdb.Create(&model.Section{Key: "hidden", Title: "Hidden", IsActive: false}).Error)
	require.NoError(t, app.gdb.Create(&model.Website{Name: "Dune", URL: "https://dune.com", Section: "tools", Tags: model.StringList{"sql"}}).Error)

	rec := app.do(t, http.MethodGet, "/api/data", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body handler.DirectoryResponse
	decode(t, rec, &body)
	require.Len(t, body.Sections, 1)
	assert.Equal(t, "tools", body.Sections[0].Key)
	require.Len(t, body.Websites, 1)
	assert.Equal(t, []string{"sql"}, body.Websites[0].Tags)

	sections := app.do(t, http.MethodGet, "/api/sections", "", nil)
	require.Equal(t, http.StatusOK, sections.Code)
	assert.Equal(t, "no-cache", sections.Header().Get("Pragma"))
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body handler.HealthResponse
	decode(t, rec, &body)
	assert.Equal(t, "ok", body.Database)
	assert.Equal(t, "disabled", body.Cache)

	_, err := uuid.Parse(rec.Header().Get(echo.HeaderXRequestID))
	assert.NoError(t, err)
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not Found","code":"NOT_FOUND"}`, rec.Body.String())
}
