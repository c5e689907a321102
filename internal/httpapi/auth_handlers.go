package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context key for client data
type contextKey string

const clientContextKey contextKey = "client"

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

const tokenScope = "process"

func (r *Router) authEnabled() bool {
	return r.cfg.JWTSecret != ""
}

// withAuth is middleware that requires a valid JWT when auth is enabled.
// WebSocket clients cannot set headers from browsers, so /ws routes also
// accept the token as ?access_token=.
func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !r.authEnabled() {
			next.ServeHTTP(w, req)
			return
		}

		tokenString, ok := bearerToken(req)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization header"})
			return
		}

		claims, err := r.parseJWT(tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}

		ctx := context.WithValue(req.Context(), clientContextKey, claims.Subject)
		next.ServeHTTP(w, req.WithContext(ctx))
	}
}

func bearerToken(req *http.Request) (string, bool) {
	if authHeader := req.Header.Get("Authorization"); authHeader != "" {
		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if strings.HasPrefix(req.URL.Path, "/ws/") {
		if t := req.URL.Query().Get("access_token"); t != "" {
			return t, true
		}
	}
	return "", false
}

func (r *Router) parseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(r.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Scope != tokenScope {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// clientID returns the token subject of the authenticated client, or "".
func clientID(ctx context.Context) string {
	id, _ := ctx.Value(clientContextKey).(string)
	return id
}

// generateJWT creates a new JWT token for a client
func (r *Router) generateJWT(subject string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(r.cfg.JWTExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Scope: tokenScope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// handleIssueToken exchanges the shared access key for a short-lived JWT
func (r *Router) handleIssueToken(w http.ResponseWriter, req *http.Request) {
	if !r.authEnabled() {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "authentication is disabled"})
		return
	}

	var body struct {
		AccessKey string `json:"access_key"`
		Client    string `json:"client"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if body.AccessKey == "" || subtle.ConstantTimeCompare([]byte(body.AccessKey), []byte(r.cfg.AccessKey)) != 1 {
		r.logger.WithField("client", body.Client).Warn("auth: rejected access key")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid access key"})
		return
	}

	subject := strings.TrimSpace(body.Client)
	if subject == "" {
		subject = "anonymous"
	}

	token, expiresAt, err := r.generateJWT(subject)
	if err != nil {
		captureError(req, err, "auth: failed to sign token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}
