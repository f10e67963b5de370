package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/skeld-engine/pkg/belief"
	"github.com/jwebster45206/skeld-engine/pkg/game"
	"github.com/jwebster45206/skeld-engine/pkg/reward"
)

// Sessions outlive a single evaluation run but not much more.
const sessionTTL = 24 * time.Hour

// RedisStore implements Store using Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStore{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func sessionKey(id uuid.UUID) string { return "skeld:session:" + id.String() }
func rewardsKey(id uuid.UUID) string { return "skeld:rewards:" + id.String() }
func beliefsKey(id uuid.UUID) string { return "skeld:beliefs:" + id.String() }

func (r *RedisStore) SaveSession(ctx context.Context, s *game.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, sessionTTL).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", sessionKey(s.ID), "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // not found is not an error
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var s game.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	keys := []string{sessionKey(id), rewardsKey(id), beliefsKey(id)}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// AppendRewards pushes records onto the per-game list. The list is the
// append-only audit log; nothing ever rewrites an entry.
func (r *RedisStore) AppendRewards(ctx context.Context, id uuid.UUID, recs []reward.Record) error {
	if len(recs) == 0 {
		return nil
	}
	vals := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal reward record: %w", err)
		}
		vals = append(vals, data)
	}
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, rewardsKey(id), vals...)
	pipe.Expire(ctx, rewardsKey(id), sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis rpush failed: %w", err)
	}
	return nil
}

func (r *RedisStore) ListRewards(ctx context.Context, id uuid.UUID) ([]reward.Record, error) {
	raw, err := r.client.LRange(ctx, rewardsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange failed: %w", err)
	}
	out := make([]reward.Record, 0, len(raw))
	for _, item := range raw {
		var rec reward.Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reward record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisStore) SaveBeliefs(ctx context.Context, id uuid.UUID, snapshots map[game.PlayerID]belief.Matrix) error {
	data, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("failed to marshal belief snapshots: %w", err)
	}
	if err := r.client.Set(ctx, beliefsKey(id), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadBeliefs(ctx context.Context, id uuid.UUID) (map[game.PlayerID]belief.Matrix, error) {
	data, err := r.client.Get(ctx, beliefsKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var out map[game.PlayerID]belief.Matrix
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal belief snapshots: %w", err)
	}
	return out, nil
}
