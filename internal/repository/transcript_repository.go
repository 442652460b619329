package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-console/internal/domain"
)

// TranscriptRepository archives transcript messages.
type TranscriptRepository interface {
	Append(ctx context.Context, msg domain.Message) error
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
}

type transcriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository builds repository.
func NewTranscriptRepository(pool *pgxpool.Pool) TranscriptRepository {
	return &transcriptRepository{pool: pool}
}

func (r *transcriptRepository) Append(ctx context.Context, msg domain.Message) error {
	const query = `
        INSERT INTO transcript_messages (id, conversation_id, sender, body, sent_at)
        VALUES ($1, NULLIF($2, ''), $3, $4, $5)
        ON CONFLICT (id) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, msg.ID, msg.ConversationID, string(msg.Sender), msg.Text, msg.Timestamp)
	return err
}

func (r *transcriptRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	const query = `
        SELECT id::text, COALESCE(conversation_id, ''), sender, body, sent_at
        FROM transcript_messages WHERE conversation_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		var sender string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &sender, &msg.Text, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Sender = domain.SenderRole(sender)
		result = append(result, msg)
	}
	return result, rows.Err()
}
