package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache mirrors cumulative team scores into a Redis ZSET
type LeaderboardCache interface {
	UpdateScore(ctx context.Context, sessionID, teamID string, score int) error
	GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, sessionID, teamID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	TeamID string `json:"teamId"`
	Score  int    `json:"score"`
	Rank   int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key(sessionID string) string {
	return fmt.Sprintf("game:%s:lb", sessionID)
}

func (c *leaderboardCache) UpdateScore(ctx context.Context, sessionID, teamID string, score int) error {
	return c.client.ZAdd(ctx, c.key(sessionID), redis.Z{
		Score:  float64(score),
		Member: teamID,
	}).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, sessionID string, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(sessionID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	for i, z := range results {
		entries[i] = LeaderboardEntry{
			TeamID: z.Member.(string),
			Score:  int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, sessionID, teamID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(sessionID), teamID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}

func (c *leaderboardCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
