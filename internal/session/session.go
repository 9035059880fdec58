// Package session keeps short-lived per-browser sessions carrying flash
// messages across a redirect.
//
// Types:
//   - Session: Pending messages for one browser, identified by a cookie.
//   - SessionManager: Manages all active sessions.
//
// Expected outputs:
// - Session IDs are unique (UUID)
// - Messages are returned once, then dropped
// - Sessions older than the TTL are swept
package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/niklasemond/diploma-generator-2/internal/utils"
)

const CookieName = "flash"

type Session struct {
	ID        string
	Messages  []string
	CreatedAt time.Time
	Mutex     sync.Mutex
}

type SessionManager struct {
	Sessions map[string]*Session
	Mutex    sync.RWMutex
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		Sessions: make(map[string]*Session),
	}
}

func (sm *SessionManager) CreateSession() *Session {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()

	session := &Session{
		ID:        utils.GenerateUUID(),
		Messages:  []string{},
		CreatedAt: time.Now(),
	}
	sm.Sessions[session.ID] = session
	return session
}

func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.Mutex.RLock()
	defer sm.Mutex.RUnlock()
	session, exists := sm.Sessions[id]
	return session, exists
}

func (sm *SessionManager) DeleteSession(id string) {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	delete(sm.Sessions, id)
}

// Sweep drops sessions created more than ttl ago and returns how many went.
func (sm *SessionManager) Sweep(ttl time.Duration) int {
	sm.Mutex.Lock()
	defer sm.Mutex.Unlock()
	removed := 0
	for id, session := range sm.Sessions {
		if time.Since(session.CreatedAt) > ttl {
			delete(sm.Sessions, id)
			removed++
		}
	}
	return removed
}

func (sm *SessionManager) Len() int {
	sm.Mutex.RLock()
	defer sm.Mutex.RUnlock()
	return len(sm.Sessions)
}

// Flash queues msg for the browser behind r, creating a session and setting
// its cookie on w when needed.
func (sm *SessionManager) Flash(w http.ResponseWriter, r *http.Request, msg string) {
	session := sm.fromRequest(r)
	if session == nil {
		session = sm.CreateSession()
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    session.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	session.AddMessage(msg)
}

// PopMessages returns and clears the messages queued for r's browser.
func (sm *SessionManager) PopMessages(r *http.Request) []string {
	session := sm.fromRequest(r)
	if session == nil {
		return nil
	}
	return session.TakeMessages()
}

func (sm *SessionManager) fromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}
	session, exists := sm.GetSession(cookie.Value)
	if !exists {
		return nil
	}
	return session
}

func (s *Session) AddMessage(msg string) {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	s.Messages = append(s.Messages, msg)
}

func (s *Session) TakeMessages() []string {
	s.Mutex.Lock()
	defer s.Mutex.Unlock()
	msgs := s.Messages
	s.Messages = []string{}
	return msgs
}
