package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "cottage_session"

type session struct {
	userID  int64
	expires time.Time
}

// Sessions is an in-memory token store. Tokens are random UUIDs; expired
// entries are dropped lazily on lookup and swept when new sessions are
// created.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]session
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]session),
	}
}

func (s *Sessions) Create(userID int64) string {
	token := uuid.NewString()
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, sess := range s.tokens {
		if now.After(sess.expires) {
			delete(s.tokens, t)
		}
	}
	s.tokens[token] = session{userID: userID, expires: now.Add(s.ttl)}
	return token
}

func (s *Sessions) Lookup(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tokens[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(sess.expires) {
		delete(s.tokens, token)
		return 0, false
	}
	return sess.userID, true
}

func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// DeleteForUser revokes every session of a user, used when the account is
// deleted or its password changes.
func (s *Sessions) DeleteForUser(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.tokens {
		if sess.userID == userID {
			delete(s.tokens, token)
		}
	}
}

func (s *Sessions) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
