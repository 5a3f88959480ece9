// internal/httpserver/auth.go
//
// Player accounts and identity.
//   - /auth/signup, /auth/login, /auth/logout, /auth/me.
//   - JWT (HS256) in an HttpOnly cookie or Authorization: Bearer header.
//   - Anonymous cookie for guests; on signup/login the guest's stats, daily
//     locks and daily results move to the account.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var errUsernameTaken = errors.New("username taken")

// Request payloads for signup/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authPlayer is placed into request context by auth middleware.
type authPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxPlayerKey is the context key type for storing authPlayer.
type ctxPlayerKey struct{}

func playerFrom(ctx context.Context) *authPlayer {
	p, _ := ctx.Value(ctxPlayerKey{}).(*authPlayer)
	return p
}

// mountAuthRoutes registers authentication and per-player routes.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.With(s.limiter.middleware).Post("/auth/signup", s.handleSignup)
	r.With(s.limiter.middleware).Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	// Current player (gated)
	r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, playerFrom(r.Context()))
	})

	// Stats for the caller, guest or account.
	r.With(s.withOptionalAuth()).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		id := s.playerID(w, r)
		st, err := s.stats.Load(r.Context(), id)
		if err != nil {
			log.Error().Err(err).Str("player", id).Msg("load stats")
			writeError(w, http.StatusInternalServerError, "db_error", "")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"playerId": id, "stats": st})
	})
}

// handleSignup creates a player, signs a JWT, sets the auth cookie, and
// claims guest history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	p, err := s.createPlayer(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, errUsernameTaken) {
			writeError(w, http.StatusConflict, "username_taken", "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	if !s.signIn(w, r, p) {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": p.ID, "username": p.Username, "createdAt": p.CreatedAt})
}

// handleLogin authenticates, sets the cookie, and claims guest history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	p, err := s.findPlayerByUsername(r.Context(), strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(p.PasswordHash, body.Password) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
		return
	}
	if !s.signIn(w, r, p) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": p.ID, "username": p.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// signIn sets the auth cookie and claims guest history. On failure it has
// already written the error response.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, p *playerRow) bool {
	tok, exp, err := signJWT(p.ID, p.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return false
	}
	s.setAuthCookie(w, tok, exp)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		s.claimGuestHistory(r.Context(), c.Value, p.ID)
	}
	return true
}

// --------------------------- identity -------------------------------------

// withOptionalAuth decorates requests with player context if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p := s.verifyToken(r); p != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authPlayer into the context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerOrCookie(r) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			p := s.verifyToken(r)
			if p == nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxPlayerKey{}, p)))
		})
	}
}

// verifyToken returns the player named by a valid token, or nil.
func (s *Server) verifyToken(r *http.Request) *authPlayer {
	tok := bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil
	}
	// Ensure the player still exists
	if _, err := s.findPlayerByID(r.Context(), id); err != nil {
		return nil
	}
	return &authPlayer{ID: id, Username: username}
}

// playerID is the authenticated player's ID, or the guest's anonymous ID
// (issuing the cookie when missing).
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if p := playerFrom(r.Context()); p != nil {
		return p.ID
	}
	return ensureAnonID(w, r)
}

const anonCookieName = "heatstack_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
func ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := "anon-" + uuid.NewString()
	secure, sameSite := cookieSecurity()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// claimGuestHistory moves guest-owned rows to a player account. Rows the
// account already has (its own stats, a lock for the same seed) win.
func (s *Server) claimGuestHistory(ctx context.Context, anonID, playerID string) {
	if anonID == "" || playerID == "" {
		return
	}
	for _, q := range []string{
		`UPDATE OR IGNORE player_stats SET player_id=? WHERE player_id=?`,
		`UPDATE OR IGNORE daily_locks SET player_id=? WHERE player_id=?`,
		`UPDATE OR IGNORE daily_results SET player_id=? WHERE player_id=?`,
	} {
		if _, err := s.db.ExecContext(ctx, q, playerID, anonID); err != nil {
			log.Warn().Err(err).Str("player", playerID).Msg("claim guest history")
		}
	}
}

// ------------------------ players ------------------------------------------

// playerRow matches the players table shape.
type playerRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// createPlayer validates input, checks uniqueness, hashes the password, and
// inserts a new player.
func (s *Server) createPlayer(ctx context.Context, username, pw string) (*playerRow, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	if _, err := s.findPlayerByUsername(ctx, username); err == nil {
		return nil, errUsernameTaken
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return &playerRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: now}, nil
}

func (s *Server) findPlayerByUsername(ctx context.Context, username string) (*playerRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE username=?`, username)
	return scanPlayer(row)
}

func (s *Server) findPlayerByID(ctx context.Context, id string) (*playerRow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM players WHERE id=?`, id)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*playerRow, error) {
	var p playerRow
	var created string
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &created); err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8–72 chars")
	}
	return nil
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry
// (JWT_EXPIRES_DAYS; default 14).
func signJWT(id, username string) (string, time.Time, error) {
	days := envInt("JWT_EXPIRES_DAYS", 14)
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(getEnv("JWT_SECRET", "dev_secret_change_me")))
	return ss, exp, err
}

func cookieSecurity() (bool, http.SameSite) {
	if getEnv("NODE_ENV", "") == "production" {
		return true, http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return false, http.SameSiteLaxMode
}

// setAuthCookie writes the auth token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure, sameSite := cookieSecurity()
	http.SetCookie(w, &http.Cookie{
		Name:     getEnv("COOKIE_NAME", "heatstack_token"),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	secure, sameSite := cookieSecurity()
	http.SetCookie(w, &http.Cookie{
		Name:     getEnv("COOKIE_NAME", "heatstack_token"),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "heatstack_token")); err == nil {
		return c.Value
	}
	return ""
}
