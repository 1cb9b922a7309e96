package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/config"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/models"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"
)

const (
	sessionCookieName = "kafepano_session"
	sessionMaxAge     = 86400 * 30
	tokenTTL          = 12 * time.Hour
)

// Limiter throttles login attempts per key.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type AuthService struct {
	oauthConfig  *oauth2.Config
	oidcVerifier *oidc.IDTokenVerifier
	secureCookie *securecookie.SecureCookie
	tokenSecret  []byte
	userRepo     repository.UserRepository
	limiter      Limiter
}

type SessionData struct {
	UserID string `json:"user_id"`
}

func NewAuthService(ctx context.Context, cfg config.Config, userRepo repository.UserRepository, limiter Limiter) (*AuthService, error) {
	service := &AuthService{
		secureCookie: securecookie.New([]byte(cfg.SessionSecret), nil),
		tokenSecret:  []byte(cfg.SessionSecret),
		userRepo:     userRepo,
		limiter:      limiter,
	}
	if cfg.OIDCIssuer == "" {
		return service, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider: %w", err)
	}

	service.oauthConfig = &oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	service.oidcVerifier = provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})
	return service, nil
}

// EnsureAdmin creates the bootstrap account from configuration when it does
// not exist yet.
func (service *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		count, err := service.userRepo.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 && !service.OIDCConfigured() {
			slog.Warn("no admin accounts and ADMIN_EMAIL/ADMIN_PASSWORD not set; the admin console is unreachable")
		}
		return nil
	}

	_, err := service.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("looking up admin: %w", err)
	}

	created, err := service.userRepo.Create(ctx, models.User{Email: email, Name: name}, password)
	if err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	slog.Info("created admin account", "id", created.ID, "email", created.Email)
	return nil
}

// Login checks email and password, answering failures with *AuthError.
func (service *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return models.User{}, &AuthError{Code: CodeInvalidEmail}
	}
	if password == "" {
		return models.User{}, &AuthError{Code: CodeInvalidCredential}
	}
	if service.limiter != nil && !service.limiter.Allow(ctx, email) {
		return models.User{}, &AuthError{Code: CodeTooManyRequests}
	}

	user, err := service.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return models.User{}, &AuthError{Code: CodeUserNotFound}
	}
	if err != nil {
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}
	if user.Disabled {
		return models.User{}, &AuthError{Code: CodeUserDisabled}
	}
	if !repository.CheckPassword(user, password) {
		return models.User{}, &AuthError{Code: CodeWrongPassword}
	}
	return user, nil
}

func (service *AuthService) OIDCConfigured() bool {
	return service.oauthConfig != nil
}

func (service *AuthService) LoginURL(state string) string {
	if service.oauthConfig == nil {
		return ""
	}
	return service.oauthConfig.AuthCodeURL(state)
}

func (service *AuthService) GenerateState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}

func (service *AuthService) HandleCallback(ctx context.Context, code string) (models.User, error) {
	if service.oauthConfig == nil {
		return models.User{}, errors.New("OIDC not configured")
	}

	token, err := service.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return models.User{}, fmt.Errorf("exchanging code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return models.User{}, errors.New("no id_token in response")
	}

	idToken, err := service.oidcVerifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.User{}, fmt.Errorf("verifying id token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.User{}, fmt.Errorf("parsing claims: %w", err)
	}

	return service.provisionUser(ctx, claims.Subject, claims.Email, claims.Name)
}

// provisionUser links a single sign-on identity to an existing admin by
// email. Only the very first account may be created this way.
func (service *AuthService) provisionUser(ctx context.Context, subject, email, name string) (models.User, error) {
	user, err := service.userRepo.FindByOIDCSubject(ctx, subject)
	if err == nil {
		if user.Disabled {
			return models.User{}, &AuthError{Code: CodeUserDisabled}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}

	user, err = service.userRepo.FindByEmail(ctx, email)
	if err == nil {
		if user.Disabled {
			return models.User{}, &AuthError{Code: CodeUserDisabled}
		}
		if err := service.userRepo.LinkOIDCSubject(ctx, user.ID, subject); err != nil {
			return models.User{}, err
		}
		user.OIDCSubject = &subject
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.User{}, fmt.Errorf("looking up user: %w", err)
	}

	count, err := service.userRepo.Count(ctx)
	if err != nil {
		return models.User{}, err
	}
	if count > 0 {
		return models.User{}, &AuthError{Code: CodeUserNotFound}
	}

	if name == "" {
		name = email
	}
	created, err := service.userRepo.Create(ctx, models.User{Email: email, Name: name, OIDCSubject: &subject}, "")
	if err != nil {
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	slog.Info("provisioned first admin", "id", created.ID, "email", created.Email)
	return created, nil
}

func (service *AuthService) SetSession(w http.ResponseWriter, userID string) error {
	encoded, err := json.Marshal(SessionData{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	value, err := service.secureCookie.Encode(sessionCookieName, string(encoded))
	if err != nil {
		return fmt.Errorf("encoding session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionMaxAge,
	})
	return nil
}

func (service *AuthService) GetSession(r *http.Request) (SessionData, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return SessionData{}, fmt.Errorf("no session cookie: %w", err)
	}

	var decoded string
	if err := service.secureCookie.Decode(sessionCookieName, cookie.Value, &decoded); err != nil {
		return SessionData{}, fmt.Errorf("decoding session cookie: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(decoded), &session); err != nil {
		return SessionData{}, fmt.Errorf("unmarshaling session: %w", err)
	}
	return session, nil
}

func (service *AuthService) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// IssueToken signs a bearer token for API clients.
func (service *AuthService) IssueToken(user models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "kafepano",
	})
	signed, err := token.SignedString(service.tokenSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies a bearer token and returns the user id it names.
func (service *AuthService) ParseToken(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return service.tokenSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer("kafepano"), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// GetCurrentUser resolves the session cookie, or a bearer token when no
// cookie is present.
func (service *AuthService) GetCurrentUser(r *http.Request) (models.User, error) {
	var userID string
	if session, err := service.GetSession(r); err == nil {
		userID = session.UserID
	} else if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		id, err := service.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return models.User{}, err
		}
		userID = id
	} else {
		return models.User{}, err
	}

	user, err := service.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		return models.User{}, fmt.Errorf("finding user: %w", err)
	}
	if user.Disabled {
		return models.User{}, &AuthError{Code: CodeUserDisabled}
	}
	return user, nil
}
