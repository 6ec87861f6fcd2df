package www

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const sessionName = "receiving_session"

type sessionStore struct {
	store *sessions.CookieStore
}

func newSessionStore(secret string) *sessionStore {
	var key []byte
	if secret != "" {
		key, _ = base64.StdEncoding.DecodeString(secret)
	}
	if len(key) < 32 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   12 * 60 * 60, // one shift, with margin
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionStore{store: cs}
}

func (s *sessionStore) get(r *http.Request) *sessions.Session {
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

// currentUser returns the logged-in user's id and role, if any.
func (s *sessionStore) currentUser(r *http.Request) (userID int64, role string, ok bool) {
	sess := s.get(r)
	id, idOK := sess.Values["user_id"].(int64)
	rl, roleOK := sess.Values["role"].(string)
	if !idOK || !roleOK {
		return 0, "", false
	}
	return id, rl, true
}

func (s *sessionStore) setUser(w http.ResponseWriter, r *http.Request, userID int64, username, role string) {
	sess := s.get(r)
	sess.Values["user_id"] = userID
	sess.Values["username"] = username
	sess.Values["role"] = role
	sess.Save(r, w)
}

func (s *sessionStore) clear(w http.ResponseWriter, r *http.Request) {
	sess := s.get(r)
	delete(sess.Values, "user_id")
	delete(sess.Values, "username")
	delete(sess.Values, "role")
	sess.Options.MaxAge = -1
	sess.Save(r, w)
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// HashPassword is the exported form used by first-boot user seeding.
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}
