package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisItemPrefix      = "notification:item:"
	redisRecipientPrefix = "notification:recipient:"
	redisScanBatch       = 100
)

// RedisStore persists notifications as JSON under "notification:item:<id>"
// with a retention TTL. Each recipient has a sorted set of IDs scored by
// creation time.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a Redis-backed store. A non-positive retention keeps
// entries forever.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func itemKey(id string) string { return redisItemPrefix + id }

func recipientKey(recipient string) string { return redisRecipientPrefix + recipient }

func (s *RedisStore) ttl() time.Duration {
	if s.retention <= 0 {
		return 0
	}
	return s.retention
}

func (s *RedisStore) Save(ctx context.Context, n *Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(n.ID), b, s.ttl())
		pipe.ZAdd(ctx, recipientKey(n.Recipient), redis.Z{
			Score:  float64(n.CreatedAt.UnixNano()),
			Member: n.ID,
		})
		if s.retention > 0 {
			pipe.Expire(ctx, recipientKey(n.Recipient), s.retention)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Notification, error) {
	b, err := s.client.Get(ctx, itemKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var n Notification
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient skips IDs whose item has already expired.
func (s *RedisStore) ListByRecipient(ctx context.Context, recipient string, limit int) ([]*Notification, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, recipientKey(recipient), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(id)
	}
	return s.load(ctx, keys)
}

func (s *RedisStore) load(ctx context.Context, keys []string) ([]*Notification, error) {
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	result := make([]*Notification, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var n Notification
		if err := json.Unmarshal([]byte(str), &n); err != nil {
			return nil, err
		}
		result = append(result, &n)
	}
	return result, nil
}

func (s *RedisStore) Stats(ctx context.Context) (map[string]int, error) {
	stats := map[string]int{
		StatusPending: 0,
		StatusSent:    0,
		StatusFailed:  0,
	}
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisItemPrefix+"*", redisScanBatch).Result()
		if err != nil {
			return nil, err
		}
		if len(keys) > 0 {
			items, err := s.load(ctx, keys)
			if err != nil {
				return nil, err
			}
			for _, n := range items {
				stats[n.Status]++
			}
		}
		if next == 0 {
			return stats, nil
		}
		cursor = next
	}
}
