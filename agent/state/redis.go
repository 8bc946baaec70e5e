package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr        string        `default:"localhost:6379"`
	Username    string        `default:""`
	Password    string        `default:""`
	DB          int           `envconfig:"DB" default:"0"`
	DialTimeout time.Duration `split_words:"true" default:"5s"`
}

// RedisStore persists ConversationState in a Redis server.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, opts ...StoreOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	store, err := NewRedisStoreFromClient(client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// NewRedisStoreFromClient wraps an existing client. The store takes ownership and
// closes it in Close.
func NewRedisStoreFromClient(client *redis.Client, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, keyPrefix: o.keyPrefix, ttl: o.ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, threadID string) (*ConversationState, error) {
	key, err := storeKey(s.keyPrefix, threadID)
	if err != nil {
		return nil, err
	}
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeState(payload)
}

func (s *RedisStore) Save(ctx context.Context, st *ConversationState) error {
	payload, err := prepareSave(st)
	if err != nil {
		return err
	}
	key, err := storeKey(s.keyPrefix, st.ThreadID)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	key, err := storeKey(s.keyPrefix, threadID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
