package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/config"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/middleware"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
	"github.com/go-chi/chi/v5"
)

const testPassword = "kahve-1234"

func setupAuthRouter(t *testing.T) (*chi.Mux, models.User) {
	t.Helper()
	database := testutil.NewTestDatabase(t)
	userRepo := repository.NewUserRepository(database)
	ctx := context.Background()

	authService, err := services.NewAuthService(ctx, config.Config{SessionSecret: "handler-test-secret-0123456789abcdef"}, userRepo, nil)
	if err != nil {
		t.Fatalf("creating auth service: %v", err)
	}
	user, err := userRepo.Create(ctx, models.User{Email: "admin@kafe.test", Name: "Yönetici"}, testPassword)
	if err != nil {
		t.Fatalf("creating test user: %v", err)
	}

	handler := NewAuthHandler(authService)
	router := chi.NewRouter()
	router.Get("/login", handler.LoginPage)
	router.Post("/login", handler.Login)
	router.Post("/api/auth/token", handler.Token)
	router.Get("/auth/oidc", handler.OIDCLogin)
	router.Get("/logout", handler.Logout)

	whoami := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(middleware.GetUser(r.Context()).Email))
	}
	router.With(middleware.RequireAuth(authService)).Get("/admin", whoami)
	router.With(middleware.RequireAPIAuth(authService)).Get("/api/whoami", whoami)
	return router, user
}

func postLogin(router http.Handler, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	request := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestAuthHandler_LoginFailuresShowMessages(t *testing.T) {
	router, _ := setupAuthRouter(t)

	cases := []struct {
		email    string
		password string
		status   int
		message  string
	}{
		{"not-an-email", testPassword, http.StatusUnauthorized, "Geçersiz email adresi"},
		{"nobody@kafe.test", testPassword, http.StatusUnauthorized, "Kullanıcı bulunamadı"},
		{"admin@kafe.test", "wrong", http.StatusUnauthorized, "Hatalı şifre"},
	}
	for _, tc := range cases {
		recorder := postLogin(router, tc.email, tc.password)
		if recorder.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.email, tc.status, recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), tc.message) {
			t.Errorf("%s: expected message %q", tc.email, tc.message)
		}
		if len(recorder.Result().Cookies()) != 0 {
			t.Errorf("%s: no session may be set on failure", tc.email)
		}
	}
}

func TestAuthHandler_LoginSetsSession(t *testing.T) {
	router, user := setupAuthRouter(t)

	recorder := postLogin(router, " Admin@Kafe.test ", testPassword)
	if recorder.Code != http.StatusFound || recorder.Header().Get("Location") != "/admin" {
		t.Fatalf("expected redirect to /admin, got %d %q", recorder.Code, recorder.Header().Get("Location"))
	}

	request := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, cookie := range recorder.Result().Cookies() {
		request.AddCookie(cookie)
	}
	next := httptest.NewRecorder()
	router.ServeHTTP(next, request)
	if next.Code != http.StatusOK || next.Body.String() != user.Email {
		t.Errorf("expected the session to authenticate, got %d %q", next.Code, next.Body.String())
	}
}

func TestAuthHandler_TokenAuthenticatesAPI(t *testing.T) {
	router, user := setupAuthRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, jsonRequest(t, http.MethodPost, "/api/auth/token", map[string]string{
		"email": user.Email, "password": testPassword,
	}))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var issued struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &issued)
	if !issued.Success || issued.Token == "" {
		t.Fatalf("unexpected token response %s", recorder.Body.String())
	}

	request := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	request.Header.Set("Authorization", "Bearer "+issued.Token)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK || recorder.Body.String() != user.Email {
		t.Errorf("expected bearer token to authenticate, got %d %q", recorder.Code, recorder.Body.String())
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, jsonRequest(t, http.MethodPost, "/api/auth/token", map[string]string{
		"email": user.Email, "password": "wrong",
	}))
	if recorder.Code != http.StatusUnauthorized || decodeResult(t, recorder).Error != "Hatalı şifre" {
		t.Errorf("expected 401 with message, got %d %s", recorder.Code, recorder.Body.String())
	}
}

func TestMiddleware_RejectsAnonymous(t *testing.T) {
	router, _ := setupAuthRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if recorder.Code != http.StatusFound || recorder.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))
	if recorder.Code != http.StatusUnauthorized || decodeResult(t, recorder).Success {
		t.Errorf("expected 401 JSON, got %d %s", recorder.Code, recorder.Body.String())
	}

	request := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	request.Header.Set("Authorization", "Bearer not-a-token")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a bad token, got %d", recorder.Code)
	}
}

func TestAuthHandler_LoginPageWithoutSSO(t *testing.T) {
	router, _ := setupAuthRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/login", nil))
	if recorder.Code != http.StatusOK || strings.Contains(recorder.Body.String(), "/auth/oidc") {
		t.Errorf("expected a plain login form, got %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/auth/oidc", nil))
	if recorder.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without OIDC, got %d", recorder.Code)
	}
}

func TestAuthHandler_LogoutClearsSession(t *testing.T) {
	router, _ := setupAuthRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/logout", nil))
	if recorder.Code != http.StatusFound || recorder.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d", recorder.Code)
	}
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected an expired session cookie, got %+v", cookies)
	}
}
