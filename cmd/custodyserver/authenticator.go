// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/fieldops/custody-server/pkg/conf"
)

// Claims carries the tenant/user triple resolved by the identity provider.
type Claims struct {
	OrganizationID string `json:"org"`
	UserName       string `json:"name"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the operator token and exposes the
// (organization, user, name) triple to the handlers.
func AuthMiddleware(config *conf.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string

			// Try to get a token from the Authorization header first (Bearer token)
			authHeader := r.Header.Get("Authorization")
			if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			} else {
				// Fallback to cookie if no Authorization header
				c, err := r.Cookie("token")
				if err != nil {
					if err == http.ErrNoCookie {
						unauthorized(w, "No authentication token provided")
						return
					}
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(map[string]string{"error": "Bad request"})
					return
				}
				tokenStr = c.Value
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(config.JWT.SecretKey), nil
			})

			if err != nil {
				log.Debugln("JWT parse error:", err)

				errorMessage := "Invalid token"
				// Use errors.Is() to check for specific JWT errors in composite errors
				if errors.Is(err, jwt.ErrTokenExpired) {
					errorMessage = "Token has expired"
				} else if errors.Is(err, jwt.ErrSignatureInvalid) {
					errorMessage = "Invalid token signature"
				} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
					errorMessage = "Token not valid yet"
				} else if errors.Is(err, jwt.ErrTokenMalformed) {
					errorMessage = "Token is malformed"
				}
				unauthorized(w, errorMessage)
				return
			}

			if !token.Valid {
				unauthorized(w, "Token is not valid")
				return
			}
			if claims.OrganizationID == "" || claims.Subject == "" {
				unauthorized(w, "Token carries no organization or user")
				return
			}

			// Expose the triple to the handlers
			r.Header.Set("X-Organization-ID", claims.OrganizationID)
			r.Header.Set("X-User-ID", claims.Subject)
			r.Header.Set("X-User-Name", claims.UserName)

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
