// Package redistasks keeps reconciliation tasks in Redis as JSON values
// under {prefix}:task:{id}, the layout the task service's state store used.
package redistasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkasozi/reconciler-backend/internal/recon"
)

// Options configures the client built by Dial.
type Options struct {
	Addr      string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements recon.TaskStore on Redis.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New wraps an existing client.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "recon"
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects and pings the server.
func Dial(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, recon.WrapError(recon.KindConnectionError, fmt.Errorf("redis %s: %w", opts.Addr, err))
	}
	return New(client, opts.KeyPrefix), nil
}

func (s *Store) key(id string) string { return s.prefix + ":task:" + id }

func (s *Store) Save(ctx context.Context, task recon.ReconTask) error {
	b, err := json.Marshal(task)
	if err != nil {
		return recon.WrapError(recon.KindInternalError, err)
	}
	if err := s.client.Set(ctx, s.key(task.ID), b, 0).Err(); err != nil {
		return recon.WrapError(recon.KindConnectionError, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, taskID string) (recon.ReconTask, error) {
	raw, err := s.client.Get(ctx, s.key(taskID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return recon.ReconTask{}, recon.NewError(recon.KindNotFound, "no recon task with id %s", taskID)
	case err != nil:
		return recon.ReconTask{}, recon.WrapError(recon.KindConnectionError, err)
	}
	var task recon.ReconTask
	if err := json.Unmarshal(raw, &task); err != nil {
		return recon.ReconTask{}, recon.WrapError(recon.KindResponseUnmarshalError, err)
	}
	return task, nil
}

// List scans {prefix}:task:* and returns up to limit tasks ordered by id.
func (s *Store) List(ctx context.Context, limit int) ([]recon.ReconTask, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, recon.WrapError(recon.KindConnectionError, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, recon.WrapError(recon.KindConnectionError, err)
	}
	out := make([]recon.ReconTask, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		var task recon.ReconTask
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return nil, recon.WrapError(recon.KindResponseUnmarshalError, err)
		}
		out = append(out, task)
	}
	return out, nil
}

// Ping reports whether the server answers within timeout.
func (s *Store) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return s.client.Close() }

var _ recon.TaskStore = (*Store)(nil)
