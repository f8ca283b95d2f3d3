package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const runsKey = "spanscore:runs"

// RedisStorage provides Redis-backed persistence for run history.
// Records live in a sorted set scored by start timestamp for efficient
// range queries.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStorage creates a new Redis storage backend.
// Returns an error if the connection fails.
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		ttl:    30 * 24 * time.Hour, // Keep a month of runs by default
	}, nil
}

// SaveRun stores a run record and trims entries older than the TTL.
func (rs *RedisStorage) SaveRun(ctx context.Context, rec RunRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}

	pipe := rs.client.Pipeline()

	pipe.ZAdd(ctx, runsKey, redis.Z{
		Score:  float64(rec.StartedAt.Unix()),
		Member: string(data),
	})

	minScore := time.Now().Add(-rs.ttl).Unix()
	pipe.ZRemRangeByScore(ctx, runsKey, "-inf", fmt.Sprintf("%d", minScore))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run record: %w", err)
	}

	return nil
}

// ListRuns returns records started at or after since, oldest first.
func (rs *RedisStorage) ListRuns(ctx context.Context, since time.Time) ([]RunRecord, error) {
	results, err := rs.client.ZRangeByScore(ctx, runsKey, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading run history: %w", err)
	}

	records := make([]RunRecord, 0, len(results))
	for _, member := range results {
		var rec RunRecord
		if err := json.Unmarshal([]byte(member), &rec); err != nil {
			// Skip invalid entries
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Close closes the Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
