// Package storage persists fetched sales tables so a restart or a second
// replica can serve data without hitting the upstream source again.
package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-kpi/internal/config"
	"sales-kpi/internal/models"
)

const cacheVersion = "v1"

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one fetched table with its provenance.
type Snapshot struct {
	Source    string
	FellBack  bool
	FetchedAt time.Time
	Rows      []models.Transaction
}

func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

type Store interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap *Snapshot) error
	Close() error
}

// New returns the store selected by cfg.Store, or nil for "none".
func New(cfg config.CacheConfig) (Store, error) {
	switch cfg.Store {
	case config.StoreNone, "":
		return nil, nil
	case config.StoreFile:
		return NewFileStore(cfg.Dir), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported cache store: %s", cfg.Store)
	}
}

func encode(snap *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
