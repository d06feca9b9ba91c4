package redis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwalitptl/health-assistant/internal/model"
	"github.com/jwalitptl/health-assistant/internal/repository"
	"github.com/jwalitptl/health-assistant/pkg/security"
)

const keyPrefix = "assistant:conversation:"

func metaKey(id string) string     { return keyPrefix + id }
func messagesKey(id string) string { return keyPrefix + id + ":messages" }

// conversationRepository keeps each conversation as a hash of metadata plus a
// list of JSON encoded messages. Both keys expire together after ttl of
// inactivity.
type conversationRepository struct {
	client    *redis.Client
	ttl       time.Duration
	encryptor security.Encryptor
}

type Option func(*conversationRepository)

// WithEncryptor seals every stored message. Messages are kept as base64 of
// the sealed JSON; metadata stays in the clear.
func WithEncryptor(e security.Encryptor) Option {
	return func(r *conversationRepository) {
		r.encryptor = e
	}
}

func NewConversationRepository(client *redis.Client, ttl time.Duration, opts ...Option) repository.ConversationRepository {
	r := &conversationRepository{client: client, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	if conv == nil || conv.ID == "" {
		return fmt.Errorf("conversation must have an id")
	}
	values, err := r.encodeMessages(conv.Messages)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, metaKey(conv.ID),
			"user_id", conv.UserID,
			"state", string(conv.State),
			"created_at", conv.CreatedAt.UTC().Format(time.RFC3339Nano),
			"updated_at", conv.UpdatedAt.UTC().Format(time.RFC3339Nano),
		)
		if len(values) > 0 {
			pipe.RPush(ctx, messagesKey(conv.ID), values...)
		}
		r.expire(ctx, pipe, conv.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, id string) (*model.Conversation, error) {
	meta, err := r.client.HGetAll(ctx, metaKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if len(meta) == 0 {
		return nil, repository.ErrNotFound
	}

	raw, err := r.client.LRange(ctx, messagesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %w", err)
	}

	conv := &model.Conversation{
		ID:       id,
		UserID:   meta["user_id"],
		State:    model.ConversationState(meta["state"]),
		Messages: make([]model.BotMessage, 0, len(raw)),
	}
	conv.CreatedAt, _ = time.Parse(time.RFC3339Nano, meta["created_at"])
	conv.UpdatedAt, _ = time.Parse(time.RFC3339Nano, meta["updated_at"])

	for _, item := range raw {
		msg, err := r.decodeMessage(item)
		if err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, nil
}

// Append adds messages and records the new state. The conversation's expiry
// is pushed back on every append.
func (r *conversationRepository) Append(ctx context.Context, id string, state model.ConversationState, msgs ...model.BotMessage) error {
	n, err := r.client.Exists(ctx, metaKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	values, err := r.encodeMessages(msgs)
	if err != nil {
		return err
	}
	updated := time.Now().UTC()
	if len(msgs) > 0 {
		updated = msgs[len(msgs)-1].CreatedAt.UTC()
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.RPush(ctx, messagesKey(id), values...)
		}
		pipe.HSet(ctx, metaKey(id),
			"state", string(state),
			"updated_at", updated.Format(time.RFC3339Nano),
		)
		r.expire(ctx, pipe, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) expire(ctx context.Context, pipe redis.Pipeliner, id string) {
	if r.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, metaKey(id), r.ttl)
	pipe.Expire(ctx, messagesKey(id), r.ttl)
}

func (r *conversationRepository) encodeMessages(msgs []model.BotMessage) ([]interface{}, error) {
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		b, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode conversation message: %w", err)
		}
		if r.encryptor != nil {
			sealed, err := r.encryptor.Encrypt(b)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt conversation message: %w", err)
			}
			values = append(values, base64.StdEncoding.EncodeToString(sealed))
			continue
		}
		values = append(values, string(b))
	}
	return values, nil
}

func (r *conversationRepository) decodeMessage(item string) (model.BotMessage, error) {
	var msg model.BotMessage
	b := []byte(item)
	if r.encryptor != nil {
		sealed, err := base64.StdEncoding.DecodeString(item)
		if err != nil {
			return msg, fmt.Errorf("failed to decode conversation message: %w", err)
		}
		if b, err = r.encryptor.Decrypt(sealed); err != nil {
			return msg, fmt.Errorf("failed to decrypt conversation message: %w", err)
		}
	}
	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode conversation message: %w", err)
	}
	return msg, nil
}
