// Trakt Sync - Watch History Synchronization for Media Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/traktsync

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/traktsync/internal/auth"
	"github.com/tomtom215/traktsync/internal/config"
	"github.com/tomtom215/traktsync/internal/logging"
)

const (
	authModeNone = "none"
	authModeJWT  = "jwt"
)

// Authenticator resolves the calling user and stores it in the request
// context.
type Authenticator struct {
	mode        string
	defaultUser string
	jwt         *auth.JWTManager
}

// NewAuthenticator builds an authenticator for the configured mode.
func NewAuthenticator(cfg *config.SecurityConfig) (*Authenticator, error) {
	a := &Authenticator{mode: cfg.AuthMode, defaultUser: cfg.DefaultUser}
	switch cfg.AuthMode {
	case authModeNone, "":
		a.mode = authModeNone
	case authModeJWT:
		m, err := auth.NewJWTManager(cfg)
		if err != nil {
			return nil, fmt.Errorf("jwt auth: %w", err)
		}
		a.jwt = m
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
	return a, nil
}

// Middleware rejects unauthenticated requests with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := a.defaultUser
		if a.mode == authModeJWT {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token", nil)
				return
			}
			claims, err := a.jwt.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
				respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid bearer token", nil)
				return
			}
			userID = claims.Subject
		}

		ctx := logging.ContextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromRequest(r *http.Request) string {
	return logging.UserIDFromContext(r.Context())
}
