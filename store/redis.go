package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"articleforge/types"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix  = "document:"
	ingestedIndex = "documents:by_ingested"
)

// RedisConfig configures the Redis-backed document store.
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
}

// RedisStore persists documents as JSON values with a sorted-set index
// on ingestion time for listing.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStoreFromEnv creates a RedisStore using REDIS_ADDR, REDIS_PASS
// and REDIS_DB.
func NewRedisStoreFromEnv() (*RedisStore, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	return NewRedisStore(RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASS"),
		DB:       db,
	})
}

// NewRedisStore creates a RedisStore and verifies connectivity.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*types.Document, error) {
	data, err := s.client.Get(ctx, docKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeDocument(data)
}

func (s *RedisStore) Save(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKeyPrefix+doc.ID, data, 0)
	pipe.ZAdd(ctx, ingestedIndex, redis.Z{
		Score:  float64(doc.IngestedAt.UnixNano()),
		Member: doc.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, docKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if err := s.client.ZRem(ctx, ingestedIndex, id).Err(); err != nil {
		return fmt.Errorf("redis delete index: %w", err)
	}
	return nil
}

// List loads all indexed documents and filters/sorts/pages in memory.
// Fine for the collection sizes this system handles; revisit with a
// per-status index if collections grow past tens of thousands.
func (s *RedisStore) List(ctx context.Context, opts ListOptions) ([]*types.Document, int, error) {
	opts.normalize()

	ids, err := s.client.ZRange(ctx, ingestedIndex, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis list index: %w", err)
	}
	if len(ids) == 0 {
		return []*types.Document{}, 0, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis list mget: %w", err)
	}

	matched := make([]*types.Document, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry with no value: document deleted out of band.
			continue
		}
		doc, err := decodeDocument([]byte(raw))
		if err != nil {
			return nil, 0, err
		}
		if opts.Status != "" && doc.Status != opts.Status {
			continue
		}
		matched = append(matched, doc)
	}

	sortDocuments(matched, opts)
	return paginate(matched, opts)
}

func decodeDocument(data []byte) (*types.Document, error) {
	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &doc, nil
}
