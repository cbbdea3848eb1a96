package handlers

import (
	"net/http"
	"time"

	"github.com/xavierca1/leadgate/internal/entity"
)

const SessionCookie = "leadgate_session"

// SessionStore hands out exclusive access to one browser session at a time.
type SessionStore interface {
	Do(id string, fn func(sess *entity.Session) error) (string, error)
}

// Sessions binds the session cookie to the session store.
type Sessions struct {
	store  SessionStore
	ttl    time.Duration
	secure bool
}

func NewSessions(store SessionStore, ttl time.Duration, secure bool) Sessions {
	return Sessions{store: store, ttl: ttl, secure: secure}
}

// with runs fn holding the caller's session. The cookie is (re)issued before fn so fn
// is free to write the response body.
func (s Sessions) with(w http.ResponseWriter, r *http.Request, fn func(sess *entity.Session)) {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	s.store.Do(id, func(sess *entity.Session) error {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
		fn(sess)
		return nil
	})
}
