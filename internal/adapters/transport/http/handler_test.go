package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forja-app/auth-service/internal/auth/dto"
	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/forja-app/auth-service/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type svcStub struct {
	register       func(ctx context.Context, d dto.RegisterDTO) error
	login          func(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error)
	loginJWT       func(ctx context.Context, d dto.LoginDTO) (model.TokenPair, model.PublicUser, error)
	refresh        func(ctx context.Context, d dto.RefreshDTO) (model.TokenPair, model.PublicUser, error)
	resolveToken   func(ctx context.Context, token string) (model.PublicUser, error)
	resolveUser    func(ctx context.Context, email string) (model.PublicUser, error)
	forgotPassword func(ctx context.Context, d dto.ForgotPasswordDTO, expiresIn time.Duration) error
	resetPassword  func(ctx context.Context, d dto.ResetPasswordDTO) error
	oauth          func(ctx context.Context, d dto.OAuthDTO) (model.PublicUser, model.OAuthAction, error)
}

func (s *svcStub) Register(ctx context.Context, d dto.RegisterDTO) error { return s.register(ctx, d) }

func (s *svcStub) Login(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
	return s.login(ctx, d)
}

func (s *svcStub) LoginJWT(ctx context.Context, d dto.LoginDTO) (model.TokenPair, model.PublicUser, error) {
	return s.loginJWT(ctx, d)
}

func (s *svcStub) Refresh(ctx context.Context, d dto.RefreshDTO) (model.TokenPair, model.PublicUser, error) {
	return s.refresh(ctx, d)
}

func (s *svcStub) ResolveToken(ctx context.Context, token string) (model.PublicUser, error) {
	return s.resolveToken(ctx, token)
}

func (s *svcStub) ResolveUser(ctx context.Context, email string) (model.PublicUser, error) {
	return s.resolveUser(ctx, email)
}

func (s *svcStub) ForgotPassword(ctx context.Context, d dto.ForgotPasswordDTO, expiresIn time.Duration) error {
	return s.forgotPassword(ctx, d, expiresIn)
}

func (s *svcStub) ResetPassword(ctx context.Context, d dto.ResetPasswordDTO) error {
	return s.resetPassword(ctx, d)
}

func (s *svcStub) OAuth(ctx context.Context, d dto.OAuthDTO) (model.PublicUser, model.OAuthAction, error) {
	return s.oauth(ctx, d)
}

func testUser() model.PublicUser {
	return model.PublicUser{ID: "u-1", Name: "Test User", Email: "user@forja.test"}
}

func testPair() model.TokenPair {
	now := time.Now()
	return model.TokenPair{
		AccessToken:  "access-token",
		AccessExp:    now.Add(15 * time.Minute),
		RefreshToken: "refresh-token",
		RefreshExp:   now.Add(7 * 24 * time.Hour),
	}
}

func newRouter(t *testing.T, svc *svcStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{SiteName: "Forja", SessionSecret: "session-secret"}

	r := gin.New()
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, Secure: true})
	r.Use(sessions.Sessions(cfg.SessionName(), store))

	h := NewHandler(svc, cfg, zap.NewNop(), nil, nil)
	h.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestRegisterEndpoint(t *testing.T) {
	svc := &svcStub{register: func(ctx context.Context, d dto.RegisterDTO) error { return nil }}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/register",
		`{"name":"Test","email":"user@forja.test","password":"ValidPass123!"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Empty(t, w.Body.String())
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	svc := &svcStub{register: func(ctx context.Context, d dto.RegisterDTO) error {
		return customErrors.NewBusinessRule("O e-mail informado já está em uso")
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/register",
		`{"name":"Test","email":"user@forja.test","password":"ValidPass123!"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "O e-mail informado já está em uso", decodeBody(t, w)["message"])
}

func TestRegisterEndpoint_ValidationPayload(t *testing.T) {
	svc := &svcStub{register: func(ctx context.Context, d dto.RegisterDTO) error {
		return customErrors.NewValidation(map[string][]string{
			"email": {"Confirme se o e-mail está correto"},
		})
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/register", `{"email":"bad"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "Ajuste os dados enviados e tente novamente", body["message"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, data, "email")
}

func TestRegisterEndpoint_MalformedJSON(t *testing.T) {
	svc := &svcStub{register: func(ctx context.Context, d dto.RegisterDTO) error { return nil }}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/register", `{not json`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Ajuste os dados enviados e tente novamente", decodeBody(t, w)["message"])
}

func TestLoginEndpoint_SetsSessionCookie(t *testing.T) {
	svc := &svcStub{login: func(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
		return testUser(), nil
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/login",
		`{"email":"user@forja.test","password":"ValidPass123!"}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	setCookie := w.Header().Get("Set-Cookie")
	require.Contains(t, setCookie, "forja-session=")
	require.Contains(t, setCookie, "HttpOnly")
	require.Contains(t, setCookie, "Secure")
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	svc := &svcStub{login: func(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
		return model.PublicUser{}, customErrors.NewUnauthorized("Credenciais inválidas")
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/login",
		`{"email":"user@forja.test","password":"wrong"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Credenciais inválidas", decodeBody(t, w)["message"])
	require.Empty(t, w.Header().Get("Set-Cookie"))
}

func TestLoginJWTEndpoint(t *testing.T) {
	pair := testPair()
	svc := &svcStub{loginJWT: func(ctx context.Context, d dto.LoginDTO) (model.TokenPair, model.PublicUser, error) {
		return pair, testUser(), nil
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/login-jwt",
		`{"email":"user@forja.test","password":"ValidPass123!"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "access-token", body["token"])
	require.Equal(t, "refresh-token", body["token_refresh"])
	require.EqualValues(t, pair.AccessExp.Unix(), body["token_exp"])
	require.EqualValues(t, pair.RefreshExp.Unix(), body["token_refresh_exp"])

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "user@forja.test", user["email"])
	require.NotContains(t, user, "password")
}

func TestRefreshEndpoint_InvalidToken(t *testing.T) {
	svc := &svcStub{refresh: func(ctx context.Context, d dto.RefreshDTO) (model.TokenPair, model.PublicUser, error) {
		return model.TokenPair{}, model.PublicUser{}, customErrors.NewUnauthorized("Token expirado ou inválido")
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/refresh-jwt", `{"token":"stale"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Token expirado ou inválido", decodeBody(t, w)["message"])
}

func TestMeEndpoint_Bearer(t *testing.T) {
	var seen string
	svc := &svcStub{resolveToken: func(ctx context.Context, token string) (model.PublicUser, error) {
		seen = token
		return testUser(), nil
	}}
	r := newRouter(t, svc)

	hdr := http.Header{"Authorization": {"Bearer the-access-token"}}
	w := do(t, r, http.MethodGet, "/v1/auth/me", "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "the-access-token", seen)
	require.Equal(t, "user@forja.test", decodeBody(t, w)["email"])
}

func TestMeEndpoint_NoCredentials(t *testing.T) {
	svc := &svcStub{}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodGet, "/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Acesso não autorizado", decodeBody(t, w)["message"])
}

func TestMeEndpoint_BadBearer(t *testing.T) {
	svc := &svcStub{resolveToken: func(ctx context.Context, token string) (model.PublicUser, error) {
		return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
	}}
	r := newRouter(t, svc)

	hdr := http.Header{"Authorization": {"Bearer nope"}}
	w := do(t, r, http.MethodGet, "/v1/auth/me", "", hdr)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeEndpoint_SessionWinsOverBearer(t *testing.T) {
	resolveTokenCalled := false
	svc := &svcStub{
		login: func(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
			return testUser(), nil
		},
		resolveUser: func(ctx context.Context, email string) (model.PublicUser, error) {
			require.Equal(t, "user@forja.test", email)
			return testUser(), nil
		},
		resolveToken: func(ctx context.Context, token string) (model.PublicUser, error) {
			resolveTokenCalled = true
			return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
		},
	}
	r := newRouter(t, svc)

	loginResp := do(t, r, http.MethodPost, "/v1/auth/login",
		`{"email":"user@forja.test","password":"ValidPass123!"}`, nil)
	require.Equal(t, http.StatusNoContent, loginResp.Code)
	sessionCookie := loginResp.Header().Get("Set-Cookie")
	require.NotEmpty(t, sessionCookie)

	hdr := http.Header{
		"Cookie":        {sessionCookie},
		"Authorization": {"Bearer would-fail"},
	}
	w := do(t, r, http.MethodGet, "/v1/auth/me", "", hdr)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, resolveTokenCalled)
	require.Equal(t, "user@forja.test", decodeBody(t, w)["email"])
}

func TestMeEndpoint_SessionUserDeleted(t *testing.T) {
	svc := &svcStub{
		login: func(ctx context.Context, d dto.LoginDTO) (model.PublicUser, error) {
			return testUser(), nil
		},
		resolveUser: func(ctx context.Context, email string) (model.PublicUser, error) {
			return model.PublicUser{}, customErrors.NewUnauthorized("Acesso não autorizado")
		},
	}
	r := newRouter(t, svc)

	loginResp := do(t, r, http.MethodPost, "/v1/auth/login",
		`{"email":"user@forja.test","password":"ValidPass123!"}`, nil)
	sessionCookie := loginResp.Header().Get("Set-Cookie")

	hdr := http.Header{"Cookie": {sessionCookie}}
	w := do(t, r, http.MethodGet, "/v1/auth/me", "", hdr)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgotPasswordEndpoint(t *testing.T) {
	var gotExpiry time.Duration
	svc := &svcStub{forgotPassword: func(ctx context.Context, d dto.ForgotPasswordDTO, expiresIn time.Duration) error {
		gotExpiry = expiresIn
		return nil
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/forgot-password?expiration_time=600",
		`{"email":"user@forja.test"}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, 10*time.Minute, gotExpiry)

	// without the query the service falls back to its configured TTL
	w = do(t, r, http.MethodPost, "/v1/auth/forgot-password", `{"email":"user@forja.test"}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, time.Duration(0), gotExpiry)
}

func TestForgotPasswordEndpoint_BadExpiry(t *testing.T) {
	svc := &svcStub{forgotPassword: func(ctx context.Context, d dto.ForgotPasswordDTO, expiresIn time.Duration) error {
		t.Fatal("service must not be called")
		return nil
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/forgot-password?expiration_time=zero",
		`{"email":"user@forja.test"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, data, "expiration_time")
}

func TestResetPasswordEndpoint(t *testing.T) {
	svc := &svcStub{resetPassword: func(ctx context.Context, d dto.ResetPasswordDTO) error { return nil }}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/reset-password",
		`{"token":"tok","password":"NewValidPass123!","password_confirmation":"NewValidPass123!"}`, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestResetPasswordEndpoint_ConsumedToken(t *testing.T) {
	svc := &svcStub{resetPassword: func(ctx context.Context, d dto.ResetPasswordDTO) error {
		return customErrors.NewUnauthorized("Token inválido ou expirado")
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/reset-password",
		`{"token":"used","password":"NewValidPass123!","password_confirmation":"NewValidPass123!"}`, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Token inválido ou expirado", decodeBody(t, w)["message"])
}

func TestOAuthEndpoint(t *testing.T) {
	svc := &svcStub{oauth: func(ctx context.Context, d dto.OAuthDTO) (model.PublicUser, model.OAuthAction, error) {
		return testUser(), model.ActionNewUser, nil
	}}
	r := newRouter(t, svc)

	w := do(t, r, http.MethodPost, "/v1/auth/oauth",
		`{"user":{"email":"user@forja.test","name":"Test User"},"provider":"google","provider_user_id":"g-1"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	require.Equal(t, "new_user", body["action"])
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "u-1", user["id"])
}

func TestHealthEndpoint(t *testing.T) {
	r := newRouter(t, &svcStub{})
	w := do(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decodeBody(t, w)["status"])
}
