package model

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// Message is one chat message as exchanged with clients and stored in
// transcripts.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Clarification is a question the agent wants answered before it trusts a
// piece of knowledge, surfaced alongside the reply.
type Clarification struct {
	ConflictID string `json:"conflictId"`
	Question   string `json:"question"`
	Severity   string `json:"severity"`
}

// ChatResult is the outcome of processing one turn.
type ChatResult struct {
	ReplyText      string          `json:"replyText"`
	SessionID      string          `json:"sessionId"`
	EmotionalState string          `json:"emotionalState"`
	LearnedFacts   []string        `json:"learnedFacts,omitempty"`
	Clarifications []Clarification `json:"clarifications,omitempty"`
}
