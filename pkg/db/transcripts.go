package db

import (
	"context"
	"time"

	"github.com/nocturne-labs/dreamscape/pkg/model"
)

type transcriptRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Text      string    `db:"text"`
	Sender    string    `db:"sender"`
	CreatedAt time.Time `db:"created_at"`
}

// AppendMessages records turn messages for a session. Duplicate ids are
// ignored so replayed turns do not double-write.
func (s *Store) AppendMessages(ctx context.Context, sessionID string, messages ...model.Message) error {
	for _, msg := range messages {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO transcripts (id, session_id, text, sender, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, msg.ID, sessionID, msg.Text, string(msg.Sender), msg.Timestamp)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetTranscript returns every stored message for a session in insertion
// order.
func (s *Store) GetTranscript(ctx context.Context, sessionID string) ([]model.Message, error) {
	var rows []transcriptRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, session_id, text, sender, created_at
		FROM transcripts WHERE session_id = ? ORDER BY created_at, id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	messages := make([]model.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, model.Message{
			ID:        row.ID,
			Text:      row.Text,
			Sender:    model.Sender(row.Sender),
			Timestamp: row.CreatedAt,
		})
	}
	return messages, nil
}
