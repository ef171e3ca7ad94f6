package session

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nocturne-labs/dreamscape/pkg/model"
)

const maxTopics = 5

// Context is the lightweight conversational context carried by a session.
type Context struct {
	CurrentTopics   []string `json:"currentTopics"`
	EmotionalState  string   `json:"emotionalState"`
	OngoingConcerns []string `json:"ongoingConcerns"`
}

// Session is the bounded context for one continuous chat interaction.
// Owned exclusively by the Store; callers get copies.
type Session struct {
	ID           string          `json:"sessionId"`
	Messages     []model.Message `json:"messages"`
	LastActivity time.Time       `json:"lastActivity"`
	Context      Context         `json:"context"`
}

// Store holds every live session in memory. Sessions expire after the
// configured inactivity timeout and are removed by CleanupExpired.
type Store struct {
	logger  *log.Logger
	timeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(logger *log.Logger, timeout time.Duration) *Store {
	return &Store{
		logger:   logger,
		timeout:  timeout,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns a copy of the session, minting a fresh one when the
// id is empty or unknown. Never fails.
func (s *Store) GetOrCreate(sessionID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = "session-" + uuid.New().String()
	}
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{
			ID:           sessionID,
			LastActivity: time.Now(),
		}
		s.sessions[sessionID] = sess
		s.logger.Debug("Created session", "session_id", sessionID)
	} else {
		sess.LastActivity = time.Now()
	}
	return copySession(sess)
}

// Update appends a message to the session, best-effort: an unknown id is a
// silent no-op. Duplicate submissions (same id, or same text and sender
// within a second) are skipped so retries cannot double-append.
func (s *Store) Update(sessionID string, message model.Message, emotionLabel string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}

	for _, existing := range sess.Messages {
		if existing.ID == message.ID {
			return
		}
		if existing.Text == message.Text && existing.Sender == message.Sender {
			delta := existing.Timestamp.Sub(message.Timestamp)
			if delta < 0 {
				delta = -delta
			}
			if delta <= time.Second {
				return
			}
		}
	}

	sess.Messages = append(sess.Messages, message)
	sess.LastActivity = time.Now()
	if emotionLabel != "" {
		sess.Context.EmotionalState = emotionLabel
	}
	if message.Sender == model.SenderUser {
		sess.Context.CurrentTopics = mergeTopics(sess.Context.CurrentTopics, topicsFor(message.Text))
	}
}

// IsNewer reports whether the message is newer than the session's latest
// stored user message. Equal timestamps with a different id still count as
// newer.
func (s *Store) IsNewer(sessionID string, message model.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return true
	}
	var latest *model.Message
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Sender == model.SenderUser {
			latest = &sess.Messages[i]
			break
		}
	}
	if latest == nil {
		return true
	}
	if message.Timestamp.After(latest.Timestamp) {
		return true
	}
	return message.Timestamp.Equal(latest.Timestamp) && message.ID != latest.ID
}

// CleanupExpired drops every session idle longer than the timeout.
func (s *Store) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.timeout)
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("Expired sessions removed", "count", removed)
	}
	return removed
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Get returns a copy of a session if it exists.
func (s *Store) Get(sessionID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return copySession(sess), true
}

// mergeTopics appends new distinct topics, keeping at most maxTopics with
// the oldest dropped first.
func mergeTopics(current, incoming []string) []string {
	for _, topic := range incoming {
		exists := false
		for i, known := range current {
			if known == topic {
				// Move to the back so it counts as most recent.
				current = append(append(current[:i], current[i+1:]...), topic)
				exists = true
				break
			}
		}
		if !exists {
			current = append(current, topic)
		}
	}
	if len(current) > maxTopics {
		current = current[len(current)-maxTopics:]
	}
	return current
}

func copySession(sess *Session) Session {
	dup := *sess
	dup.Messages = append([]model.Message(nil), sess.Messages...)
	dup.Context.CurrentTopics = append([]string(nil), sess.Context.CurrentTopics...)
	dup.Context.OngoingConcerns = append([]string(nil), sess.Context.OngoingConcerns...)
	return dup
}
