package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	configx "github.com/tanpawarit/chative-customer-service/pkg/config"
)

var ErrStateNotFound = errors.New("conversation state not found")

const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendUpstash = "upstash"

	defaultStoreKeyPrefix = "cs:thread:"
	defaultStoreTTL       = 24 * time.Hour
	maxResponseSizeBytes  = 2 << 20
)

// Store is the persistence contract used by the orchestrator.
type Store interface {
	Load(ctx context.Context, threadID string) (*ConversationState, error)
	Save(ctx context.Context, st *ConversationState) error
	Delete(ctx context.Context, threadID string) error
	Close() error
}

type Config struct {
	Backend   string        `default:"memory"`
	TTL       time.Duration `envconfig:"TTL" default:"24h"`
	KeyPrefix string        `split_words:"true" default:"cs:thread:"`
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendMemory, BackendRedis, BackendUpstash:
	default:
		return fmt.Errorf("unknown state backend %q", c.Backend)
	}
	if c.TTL < 0 {
		return errors.New("state ttl must be >= 0")
	}
	return nil
}

// Open builds the configured backend. Backend specific settings are read from the
// UPSTASH_REDIS_ or REDIS_ environment.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := []StoreOption{WithKeyPrefix(cfg.KeyPrefix), WithTTL(cfg.TTL)}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendRedis:
		rc, err := configx.New[RedisConfig]("REDIS")
		if err != nil {
			return nil, fmt.Errorf("load redis config: %w", err)
		}
		return NewRedisStore(ctx, *rc, opts...)
	case BackendUpstash:
		uc, err := configx.New[UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, fmt.Errorf("load upstash config: %w", err)
		}
		return NewUpstashRedisStore(*uc, opts...)
	default:
		return NewMemoryStore(opts...), nil
	}
}

type storeOptions struct {
	keyPrefix  string
	ttl        time.Duration
	httpClient *http.Client
}

func defaultOptions() storeOptions {
	return storeOptions{
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
	}
}

// StoreOption customizes a Store backend.
type StoreOption func(*storeOptions)

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

// WithHTTPClient only affects the Upstash REST backend.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func applyOptions(opts []StoreOption) (storeOptions, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

func storeKey(prefix, threadID string) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		return "", ErrInvalidThread
	}
	return prefix + threadID, nil
}

// prepareSave stamps bookkeeping fields and returns the encoded payload.
func prepareSave(st *ConversationState) ([]byte, error) {
	if st == nil {
		return nil, ErrNilState
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	st.Version++
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	} else {
		st.UpdatedAt = st.UpdatedAt.UTC()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation state: %w", err)
	}
	return payload, nil
}

func decodeState(payload []byte) (*ConversationState, error) {
	var st ConversationState
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation state loaded from store: %w", err)
	}
	return &st, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
