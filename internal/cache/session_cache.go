package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"teambingo/internal/model"
)

// SessionCache handles Redis operations for session documents and
// access-code lookup
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, session *model.Session) error
	CodeExists(ctx context.Context, code string) (bool, error)
	ResolveCode(ctx context.Context, code string) (string, error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *sessionCache) key(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (c *sessionCache) codeKey(code string) string {
	return fmt.Sprintf("code:%s", code)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(session.ID), data, c.ttl).Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, c.codeKey(session.AccessCode), session.ID, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, session *model.Session) error {
	return c.client.Del(ctx, c.key(session.ID), c.codeKey(session.AccessCode)).Err()
}

func (c *sessionCache) CodeExists(ctx context.Context, code string) (bool, error) {
	n, err := c.client.Exists(ctx, c.codeKey(code)).Result()
	return n > 0, err
}

// ResolveCode maps an access code to a session id, "" when unknown
func (c *sessionCache) ResolveCode(ctx context.Context, code string) (string, error) {
	id, err := c.client.Get(ctx, c.codeKey(code)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}
