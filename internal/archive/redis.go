package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces all archive keys in redis.
const keyPrefix = "revboard:archive"

// RedisRecorder stores archive entries as JSON in redis lists, one list per
// scope/identifier pair.
type RedisRecorder struct {
	client *redis.Client
}

// RedisOptions configures the redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisRecorder connects to redis and verifies the connection.
func NewRedisRecorder(ctx context.Context, opts RedisOptions) (*RedisRecorder, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisRecorder{client: client}, nil
}

// Record appends an entry to the list for its scope/identifier.
func (r *RedisRecorder) Record(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal archive entry: %w", err)
	}
	key := redisKey(entry.Scope, entry.Identifier)
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("push archive entry: %w", err)
	}
	return nil
}

// List returns entries for a scope/identifier pair, oldest first. Entries
// that fail to decode are skipped rather than failing the whole read.
func (r *RedisRecorder) List(ctx context.Context, scope, identifier string) ([]Entry, error) {
	raw, err := r.client.LRange(ctx, redisKey(scope, identifier), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read archive entries: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var entry Entry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the redis connection.
func (r *RedisRecorder) Close() error {
	return r.client.Close()
}

func redisKey(scope, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, scope, identifier)
}
