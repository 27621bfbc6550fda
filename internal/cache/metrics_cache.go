package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"teambingo/internal/model"
)

// MetricsCache accumulates the informational answer metrics per team.
// The aggregates feed the final report only; they never touch scoring.
type MetricsCache interface {
	Accumulate(ctx context.Context, sessionID, teamID string, metrics model.AnswerMetrics) error
	GetTeamTotals(ctx context.Context, sessionID, teamID string) (*model.AnswerMetrics, error)
	Delete(ctx context.Context, sessionID string, teamIDs []string) error
}

type metricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMetricsCache creates a new metrics cache
func NewMetricsCache(client *redis.Client) MetricsCache {
	return &metricsCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *metricsCache) key(sessionID, teamID string) string {
	return fmt.Sprintf("game:%s:metrics:%s", sessionID, teamID)
}

func (c *metricsCache) Accumulate(ctx context.Context, sessionID, teamID string, metrics model.AnswerMetrics) error {
	key := c.key(sessionID, teamID)
	pipe := c.client.Pipeline()
	pipe.HIncrBy(ctx, key, "resource", int64(metrics.Resource))
	pipe.HIncrBy(ctx, key, "energy", int64(metrics.Energy))
	pipe.HIncrBy(ctx, key, "trust", int64(metrics.Trust))
	pipe.HIncrBy(ctx, key, "competency", int64(metrics.Competency))
	pipe.HIncrBy(ctx, key, "insight", int64(metrics.Insight))
	pipe.Expire(ctx, key, c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *metricsCache) GetTeamTotals(ctx context.Context, sessionID, teamID string) (*model.AnswerMetrics, error) {
	fields, err := c.client.HGetAll(ctx, c.key(sessionID, teamID)).Result()
	if err != nil {
		return nil, err
	}

	totals := &model.AnswerMetrics{}
	for field, raw := range fields {
		v, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		switch field {
		case "resource":
			totals.Resource = v
		case "energy":
			totals.Energy = v
		case "trust":
			totals.Trust = v
		case "competency":
			totals.Competency = v
		case "insight":
			totals.Insight = v
		}
	}
	return totals, nil
}

func (c *metricsCache) Delete(ctx context.Context, sessionID string, teamIDs []string) error {
	keys := make([]string, len(teamIDs))
	for i, teamID := range teamIDs {
		keys[i] = c.key(sessionID, teamID)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
