package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/templates/pages"
)

const stateCookieName = "oauth_state"

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (handler *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := handler.authService.GetCurrentUser(r); err == nil {
		http.Redirect(w, r, "/admin", http.StatusFound)
		return
	}
	handler.renderLogin(w, r, http.StatusOK, pages.LoginProps{})
}

func (handler *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handler.renderLogin(w, r, http.StatusBadRequest, pages.LoginProps{Error: services.AuthErrorMessage("")})
		return
	}
	email := r.PostFormValue("email")

	user, err := handler.authService.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status, message := loginFailure(err)
		handler.renderLogin(w, r, status, pages.LoginProps{Email: email, Error: message})
		return
	}

	if err := handler.authService.SetSession(w, user.ID); err != nil {
		slog.Error("setting session", "error", err)
		handler.renderLogin(w, r, http.StatusInternalServerError, pages.LoginProps{Email: email, Error: services.AuthErrorMessage("")})
		return
	}
	slog.Info("admin signed in", "id", user.ID)
	http.Redirect(w, r, "/admin", http.StatusFound)
}

// Token exchanges credentials for a bearer token.
func (handler *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	user, err := handler.authService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		status, message := loginFailure(err)
		writeFailure(w, status, message)
		return
	}

	token, expiresAt, err := handler.authService.IssueToken(user)
	if err != nil {
		slog.Error("issuing token", "error", err)
		writeFailure(w, http.StatusInternalServerError, genericFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
}

func (handler *AuthHandler) OIDCLogin(w http.ResponseWriter, r *http.Request) {
	if !handler.authService.OIDCConfigured() {
		http.Error(w, "OIDC not configured", http.StatusServiceUnavailable)
		return
	}

	state, err := handler.authService.GenerateState()
	if err != nil {
		slog.Error("generating state", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})

	http.Redirect(w, r, handler.authService.LoginURL(state), http.StatusFound)
}

func (handler *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	user, err := handler.authService.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("handling callback", "error", err)
		status, message := loginFailure(err)
		handler.renderLogin(w, r, status, pages.LoginProps{Error: message})
		return
	}

	if err := handler.authService.SetSession(w, user.ID); err != nil {
		slog.Error("setting session", "error", err)
		http.Error(w, "Session error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusFound)
}

func (handler *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	handler.authService.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (handler *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, props pages.LoginProps) {
	props.OIDCEnabled = handler.authService.OIDCConfigured()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.Login(props).Render(r.Context(), w); err != nil {
		slog.Error("rendering login page", "error", err)
	}
}

func loginFailure(err error) (int, string) {
	var authErr *services.AuthError
	if !errors.As(err, &authErr) {
		slog.Error("signing in", "error", err)
		return http.StatusInternalServerError, services.AuthErrorMessage("")
	}
	if authErr.Code == services.CodeTooManyRequests {
		return http.StatusTooManyRequests, authErr.Message()
	}
	return http.StatusUnauthorized, authErr.Message()
}
