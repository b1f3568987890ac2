package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"stitchkart/internal/domain"
)

// ConversationStore keeps per-session chat history so the responder can
// be given context. Redis is used when configured, SQLite otherwise.
type ConversationStore interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error)
}

// ---------- SQLite-backed store ----------

type ConversationRepo struct{ db *sqlx.DB }

func NewConversationRepo(db *sqlx.DB) *ConversationRepo { return &ConversationRepo{db: db} }

func (r *ConversationRepo) Append(ctx context.Context, sessionID, role, content string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_messages(id, session_id, role, content)
		VALUES (?,?,?,?)
	`, uuid.NewString(), sessionID, role, content)
	return err
}

func (r *ConversationRepo) History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	var out []domain.ConversationMessage
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, session_id, role, content, COALESCE(created_at,'') AS created_at
		FROM conversation_messages
		WHERE session_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	// Oldest first for the caller.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ---------- Redis-backed store ----------

// RedisConversationStore keeps each session's history in a capped list
// with a TTL, one JSON document per turn.
type RedisConversationStore struct {
	rdb *redis.Client
	ttl time.Duration
	cap int64
}

func NewRedisConversationStore(rdb *redis.Client, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{rdb: rdb, ttl: ttl, cap: 100}
}

func convKey(sessionID string) string { return "conv:" + sessionID }

func (s *RedisConversationStore) Append(ctx context.Context, sessionID, role, content string) error {
	msg := domain.ConversationMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := convKey(sessionID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -s.cap, -1)
	pipe.Expire(ctx, key, s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisConversationStore) History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	raw, err := s.rdb.LRange(ctx, convKey(sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.ConversationMessage, 0, len(raw))
	for _, item := range raw {
		var m domain.ConversationMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue // skip corrupt entries rather than failing the chat
		}
		out = append(out, m)
	}
	return out, nil
}
