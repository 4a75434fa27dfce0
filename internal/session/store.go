package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Kind string

const (
	KindStudent Kind = "student"
	KindClerk   Kind = "clerk"
	KindAdmin   Kind = "admin"
)

// Kinds lists every namespace, most privileged first.
var Kinds = []Kind{KindAdmin, KindClerk, KindStudent}

func (k Kind) Valid() bool {
	switch k {
	case KindStudent, KindClerk, KindAdmin:
		return true
	}
	return false
}

// CookieName is the httpOnly cookie holding the namespace token.
func (k Kind) CookieName() string { return string(k) + "_auth" }

// HintCookieName is the script-readable "logged in" flag used by the front
// end to pick navigation. It carries no authority.
func (k Kind) HintCookieName() string { return string(k) + "_logged_in" }

type CookieSource interface {
	Cookie(name string) (*http.Cookie, error)
}

type Store struct {
	Secure bool
	TTL    time.Duration
	Path   string
}

func NewStore(secure bool, ttl time.Duration) *Store {
	return &Store{Secure: secure, TTL: ttl, Path: "/"}
}

func (s *Store) path() string {
	if s.Path == "" {
		return "/"
	}
	return s.Path
}

func (s *Store) Start(c echo.Context, kind Kind, token string) {
	c.SetCookie(s.CreateCookie(kind.CookieName(), token, true))
	c.SetCookie(s.CreateCookie(kind.HintCookieName(), "true", false))
}

func (s *Store) End(c echo.Context, kind Kind) {
	c.SetCookie(s.DeleteCookie(kind.CookieName(), true))
	c.SetCookie(s.DeleteCookie(kind.HintCookieName(), false))
}

func (s *Store) CreateCookie(name, value string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.path(),
		MaxAge:   int(s.TTL.Seconds()),
		Expires:  time.Now().Add(s.TTL),
		HttpOnly: httpOnly,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Store) DeleteCookie(name string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     s.path(),
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   s.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Token reads the namespace token cookie. The hint cookie is never consulted.
func Token(src CookieSource, kind Kind) (string, bool) {
	ck, err := src.Cookie(kind.CookieName())
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
