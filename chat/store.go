package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one visitor's conversation. It holds ids only, never a live
// socket; connections are resolved through the registries on demand.
type Session struct {
	ID          string      `json:"id"`
	VisitorID   string      `json:"visitor_id"`
	Messages    []Message   `json:"messages"`
	UnreadCount int         `json:"unread_count"`
	VisitorInfo VisitorInfo `json:"visitor_info"`
	CreatedAt   time.Time   `json:"created_at"`
	Active      bool        `json:"active"`
}

// SessionStore owns every session for the process lifetime. Sessions are
// never deleted, only deactivated. Not safe for concurrent use on its own;
// the Coordinator serializes all access under its lock.
type SessionStore struct {
	sessions    map[string]*Session
	order       []string
	welcomeText string
}

func NewSessionStore(welcomeText string) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		welcomeText: welcomeText,
	}
}

// CreateSession allocates a fresh session and appends the canonical welcome
// bot message before returning, so every history starts with exactly one bot
// message. The welcome doubles as the new-session announcement shown to
// operators, which is why the session leaves here with UnreadCount == 1.
func (s *SessionStore) CreateSession(visitorID string, info VisitorInfo) *Session {
	sess := &Session{
		ID:          uuid.New().String(),
		VisitorID:   visitorID,
		VisitorInfo: info,
		CreatedAt:   time.Now(),
		Active:      true,
	}
	sess.Messages = append(sess.Messages, Message{
		ID:         uuid.New().String(),
		AuthorID:   BotAuthorID,
		Text:       s.welcomeText,
		SenderKind: SenderBot,
		CreatedAt:  time.Now(),
	})
	sess.UnreadCount = 1
	s.sessions[sess.ID] = sess
	s.order = append(s.order, sess.ID)
	return sess
}

// AppendMessage adds m to the session's history. Visitor-authored messages
// bump the unread counter; admin and bot messages never do.
func (s *SessionStore) AppendMessage(sessionID string, m Message) (*Session, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Messages = append(sess.Messages, m)
	if m.SenderKind == SenderVisitor {
		sess.UnreadCount++
	}
	return sess, nil
}

// MarkViewed resets the unread counter. Only an explicit operator select
// drives the counter back to zero.
func (s *SessionStore) MarkViewed(sessionID string) error {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.UnreadCount = 0
	return nil
}

// SetActive is idempotent; both the explicit close and the grace-timer path
// use it.
func (s *SessionStore) SetActive(sessionID string, active bool) error {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Active = active
	return nil
}

func (s *SessionStore) Get(sessionID string) (*Session, bool) {
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// List returns every session in insertion order. No pagination; the
// operator pool is small.
func (s *SessionStore) List() []*Session {
	out := make([]*Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sessions[id])
	}
	return out
}
