package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"teambingo/internal/model"
)

// GameStateCache is the shared game-state store. Every client observes
// the same snapshot; mutations are published so subscribers can react to
// confirmed state rather than their own optimistic view.
type GameStateCache interface {
	Set(ctx context.Context, state *model.GameState) error
	Get(ctx context.Context, sessionID string) (*model.GameState, error)
	Patch(ctx context.Context, sessionID string, fields map[string]interface{}) error
	Delete(ctx context.Context, sessionID string) error

	// Subscribe streams state snapshots after each published mutation.
	// The returned cancel func stops the stream.
	Subscribe(ctx context.Context, sessionID string) (<-chan *model.GameState, func(), error)
	Publish(ctx context.Context, state *model.GameState) error

	// BeginEvaluation atomically flips the processing flag; a second
	// concurrent trigger gets false. EndEvaluation clears it.
	BeginEvaluation(ctx context.Context, sessionID string) (bool, error)
	EndEvaluation(ctx context.Context, sessionID string) error

	// AcquireLock serializes read-validate-write mutations per session
	AcquireLock(ctx context.Context, sessionID string) (bool, error)
	ReleaseLock(ctx context.Context, sessionID string) error
}

type gameStateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameStateCache creates a new game state cache
func NewGameStateCache(client *redis.Client) GameStateCache {
	return &gameStateCache{
		client: client,
		ttl:    24 * time.Hour, // abandoned games expire after 24h
	}
}

func (c *gameStateCache) key(sessionID string) string {
	return fmt.Sprintf("game:%s:state", sessionID)
}

func (c *gameStateCache) channel(sessionID string) string {
	return fmt.Sprintf("game:%s:events", sessionID)
}

func (c *gameStateCache) evalKey(sessionID string) string {
	return fmt.Sprintf("game:%s:eval", sessionID)
}

func (c *gameStateCache) lockKey(sessionID string) string {
	return fmt.Sprintf("game:%s:lock", sessionID)
}

func (c *gameStateCache) Set(ctx context.Context, state *model.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(state.SessionID), data, c.ttl).Err()
}

func (c *gameStateCache) Get(ctx context.Context, sessionID string) (*model.GameState, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.GameState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Patch merges the given fields into the stored state. Multi-field
// patches are best-effort, not atomic across fields.
func (c *gameStateCache) Patch(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return fmt.Errorf("game state for session %s not found", sessionID)
	}
	if err != nil {
		return err
	}

	var current map[string]interface{}
	if err := json.Unmarshal([]byte(data), &current); err != nil {
		return err
	}
	for k, v := range fields {
		current[k] = v
	}

	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(sessionID), merged, c.ttl).Err()
}

func (c *gameStateCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID), c.evalKey(sessionID), c.lockKey(sessionID)).Err()
}

func (c *gameStateCache) Subscribe(ctx context.Context, sessionID string) (<-chan *model.GameState, func(), error) {
	sub := c.client.Subscribe(ctx, c.channel(sessionID))
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, err
	}

	out := make(chan *model.GameState, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var state model.GameState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				continue
			}
			select {
			case out <- &state:
			default:
				// slow subscriber, drop the snapshot
			}
		}
	}()

	cancel := func() { sub.Close() }
	return out, cancel, nil
}

func (c *gameStateCache) Publish(ctx context.Context, state *model.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.channel(state.SessionID), data).Err()
}

func (c *gameStateCache) BeginEvaluation(ctx context.Context, sessionID string) (bool, error) {
	// SETNX with TTL so a crashed evaluator cannot wedge the round forever
	return c.client.SetNX(ctx, c.evalKey(sessionID), "1", 2*time.Minute).Result()
}

func (c *gameStateCache) EndEvaluation(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.evalKey(sessionID)).Err()
}

func (c *gameStateCache) AcquireLock(ctx context.Context, sessionID string) (bool, error) {
	return c.client.SetNX(ctx, c.lockKey(sessionID), "1", 10*time.Second).Result()
}

func (c *gameStateCache) ReleaseLock(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.lockKey(sessionID)).Err()
}
