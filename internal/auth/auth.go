package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL = 12 * time.Hour
	bearerPrefix    = "Bearer "
)

// Service issues and validates the bearer tokens the staff portal uses.
// Tokens are HS256 with the shared secret from configuration.
type Service struct {
	secret []byte
	ttl    time.Duration
	logger apt.Logger
}

func NewService(config *apt.Config, logger apt.Logger) *Service {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	secret := config.GetStringOrDef("auth.jwt.secret", "")
	return &Service{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		logger: logger,
	}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) IssueToken(username, role string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("auth secret is not configured")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) ParseToken(tokenString string) (Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return Session{}, fmt.Errorf("invalid token")
	}

	return Session{Username: c.Subject, Role: c.Role}, nil
}

// Middleware rejects requests without a valid bearer token and attaches
// the session to the context for handlers downstream.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			apt.RespondError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		session, err := s.ParseToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			s.logger.Debug("rejected bearer token", "error", err)
			apt.RespondError(w, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
