package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/choremane/internal/auth"
)

// UserEmailHeader carries a trusted caller email when header auth is allowed.
const UserEmailHeader = "X-User-Email"

// Verifier turns a bearer token into an identity.
type Verifier interface {
	Verify(ctx context.Context, raw string) (auth.Identity, error)
}

// RequireIdentity authenticates the request and stores the caller's
// auth.Identity in its context. A valid bearer token always wins. When
// allowHeader is set, a bare X-User-Email header is accepted as well; this is
// meant for local development behind a trusted proxy. verifier may be nil, in
// which case only the header is considered.
func RequireIdentity(verifier Verifier, allowHeader bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok && verifier != nil {
				id, err := verifier.Verify(r.Context(), raw)
				if err != nil {
					logger.DebugContext(r.Context(), "token rejected", "error", err, "remote", RealIP(r))
					unauthorized(w, "Invalid authentication credentials")
					return
				}
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
				return
			}

			if allowHeader {
				if email := strings.TrimSpace(r.Header.Get(UserEmailHeader)); email != "" {
					id := auth.Identity{Email: email}
					next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
					return
				}
			}

			unauthorized(w, "Not authenticated")
		})
	}
}

// bearerToken reads the Authorization header. Browsers cannot set headers on
// websocket upgrades, so those may pass the token as ?access_token= instead.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		token := r.URL.Query().Get("access_token")
		return token, token != ""
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
