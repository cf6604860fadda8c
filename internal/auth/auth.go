// Package auth grants write access to the phonebook. A writer signs in once
// through a single-use login link and then carries a signed session token,
// either as a bearer token or in a cookie. Anyone else can read.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"phonebook/internal/db"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenUsed    = errors.New("token already used")
)

const (
	CookieName = "phonebook_token"
	RoleWriter = "writer"

	DefaultLinkTTL    = 24 * time.Hour
	DefaultSessionTTL = 90 * 24 * time.Hour

	issuer     = "phonebook"
	roleHeader = "X-User-Role"
)

type Options struct {
	Secret     string
	LinkTTL    time.Duration
	SessionTTL time.Duration
}

type Auth struct {
	store      *db.DB
	secret     []byte
	linkTTL    time.Duration
	sessionTTL time.Duration
	now        func() time.Time
}

// Claims is the payload of a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func New(store *db.DB, opts Options) *Auth {
	if opts.LinkTTL <= 0 {
		opts.LinkTTL = DefaultLinkTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	return &Auth{
		store:      store,
		secret:     []byte(opts.Secret),
		linkTTL:    opts.LinkTTL,
		sessionTTL: opts.SessionTTL,
		now:        time.Now,
	}
}

func (a *Auth) LinkTTL() time.Duration    { return a.linkTTL }
func (a *Auth) SessionTTL() time.Duration { return a.sessionTTL }

// NewLoginLink stores a fresh single-use token and returns the URL under
// baseURL that redeems it.
func (a *Auth) NewLoginLink(ctx context.Context, baseURL string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := hex.EncodeToString(raw)

	if err := a.store.CreateAuthToken(ctx, token, a.now().Add(a.linkTTL)); err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/auth/login?token=" + token, nil
}

// RedeemLoginToken burns a login token and returns a writer session for it.
func (a *Auth) RedeemLoginToken(ctx context.Context, token string) (string, error) {
	stored, err := a.store.GetAuthToken(ctx, token)
	switch {
	case err != nil:
		return "", ErrInvalidToken
	case stored.Used:
		return "", ErrTokenUsed
	case a.now().After(stored.ExpiresAt):
		return "", ErrTokenExpired
	}

	if err := a.store.MarkTokenUsed(ctx, token); err != nil {
		return "", err
	}
	return a.IssueSession()
}

// IssueSession signs a writer session valid for the session TTL.
func (a *Auth) IssueSession() (string, error) {
	now := a.now()
	claims := &Claims{
		Role: RoleWriter,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseSession verifies a session token signed by this server.
func (a *Auth) ParseSession(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetSessionCookie stores a session in the browser for the session TTL.
func (a *Auth) SetSessionCookie(w http.ResponseWriter, session string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    session,
		Path:     "/",
		MaxAge:   int(a.sessionTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// sessionToken returns the token from the Authorization header or, failing
// that, the session cookie. ok is false when a header is present but is not
// a bearer token.
func sessionToken(r *http.Request) (token string, ok bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || scheme != "Bearer" {
			return "", false
		}
		return token, true
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value, true
	}
	return "", true
}

// Middleware marks requests that carry a valid session as coming from a
// writer. With requireAuth set, requests without one are rejected.
func (a *Auth) Middleware(next http.HandlerFunc, requireAuth bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(roleHeader)

		token, ok := sessionToken(r)
		if !ok || token == "" {
			if requireAuth {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next(w, r)
			return
		}

		claims, err := a.ParseSession(token)
		if err != nil {
			if requireAuth {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			next(w, r)
			return
		}

		r.Header.Set(roleHeader, claims.Role)
		next(w, r)
	}
}

func IsWriter(r *http.Request) bool {
	return r.Header.Get(roleHeader) == RoleWriter
}
