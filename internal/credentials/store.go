// Package credentials keeps the caller's image API key and studio session id in an encrypted
// session cookie. The key never leaves the cookie except to sign outbound generation requests.
package credentials

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionName  = "refinery_session"
	keySessionID = "sid"
	keyAPIKey    = "api_key"
)

// ErrNoCredential is returned by Get when no key has been stored
var ErrNoCredential = errors.New("no API credential stored")

// Store is a get/set/clear store for a single credential string scoped to the caller
type Store interface {
	Get(r *http.Request) (string, error)
	Set(w http.ResponseWriter, r *http.Request, key string) error
	Clear(w http.ResponseWriter, r *http.Request) error
	SessionID(w http.ResponseWriter, r *http.Request) (string, error)
}

// CookieStore implements Store on a gorilla/sessions cookie store
type CookieStore struct {
	store *sessions.CookieStore
}

// NewCookieStore derives signing and encryption keys from secret. An empty secret gets a random
// key, so sessions do not survive a restart.
func NewCookieStore(secret string, secure bool, maxAge time.Duration) *CookieStore {
	var hashKey, blockKey []byte
	if secret == "" {
		log.Println("⚠️  SESSION_SECRET not set, using an ephemeral session key")
		hashKey = securecookie.GenerateRandomKey(64)
		blockKey = securecookie.GenerateRandomKey(32)
	} else {
		hash := sha256.Sum256([]byte("hash:" + secret))
		block := sha256.Sum256([]byte("block:" + secret))
		hashKey, blockKey = hash[:], block[:]
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	if maxAge > 0 {
		store.MaxAge(int(maxAge.Seconds()))
	}

	return &CookieStore{store: store}
}

// session returns the caller's session; an undecodable cookie starts a fresh one
func (s *CookieStore) session(r *http.Request) (*sessions.Session, error) {
	session, err := s.store.Get(r, sessionName)
	if session == nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err != nil {
		log.Printf("⚠️  Discarding unreadable session cookie: %v", err)
	}
	return session, nil
}

// SessionID returns the caller's session id, issuing one on first contact
func (s *CookieStore) SessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	session, err := s.session(r)
	if err != nil {
		return "", err
	}
	if id, ok := session.Values[keySessionID].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.New().String()
	session.Values[keySessionID] = id
	if err := session.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Get returns the stored credential
func (s *CookieStore) Get(r *http.Request) (string, error) {
	session, err := s.session(r)
	if err != nil {
		return "", err
	}
	key, ok := session.Values[keyAPIKey].(string)
	if !ok || key == "" {
		return "", ErrNoCredential
	}
	return key, nil
}

// Set stores key, replacing any previous credential
func (s *CookieStore) Set(w http.ResponseWriter, r *http.Request, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrNoCredential
	}

	session, err := s.session(r)
	if err != nil {
		return err
	}
	session.Values[keyAPIKey] = key
	if _, ok := session.Values[keySessionID].(string); !ok {
		session.Values[keySessionID] = uuid.New().String()
	}
	return session.Save(r, w)
}

// Clear removes the credential but keeps the session id
func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := s.session(r)
	if err != nil {
		return err
	}
	delete(session.Values, keyAPIKey)
	return session.Save(r, w)
}

// Mask renders a credential for display without revealing it
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("•", len(key))
	}
	return key[:4] + strings.Repeat("•", 4) + key[len(key)-4:]
}
