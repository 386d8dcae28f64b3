// Package redis is the kvstore backend over Redis hashes. Every key is a
// hash with a value and a version field; commits run under WATCH/MULTI.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"foodbridge/internal/errors"
	"foodbridge/internal/infra/kvstore"

	goredis "github.com/redis/go-redis/v9"
)

const (
	fieldValue   = "value"
	fieldVersion = "version"
)

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Backend struct {
	client *goredis.Client
	prefix string
}

// Open connects to Redis and verifies the connection with PING.
func Open(ctx context.Context, opts Options) (*Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, opts.KeyPrefix), nil
}

func NewWithClient(client *goredis.Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

func (b *Backend) key(k string) string {
	return b.prefix + k
}

func (b *Backend) Load(ctx context.Context, key string) (kvstore.Entry, bool, error) {
	res, err := b.client.HMGet(ctx, b.key(key), fieldValue, fieldVersion).Result()
	if err != nil {
		return kvstore.Entry{}, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if len(res) != 2 || res[0] == nil {
		return kvstore.Entry{}, false, nil
	}

	value, _ := res[0].(string)
	versionText, _ := res[1].(string)
	version, err := strconv.ParseInt(versionText, 10, 64)
	if err != nil {
		return kvstore.Entry{}, false, fmt.Errorf("corrupt version for %s: %w", key, err)
	}

	return kvstore.Entry{Value: []byte(value), Version: version}, true, nil
}

func (b *Backend) Commit(ctx context.Context, writes []kvstore.Write) error {
	keys := make([]string, len(writes))
	for i, w := range writes {
		keys[i] = b.key(w.Key)
	}

	txf := func(tx *goredis.Tx) error {
		for i, w := range writes {
			if w.ExpectedVersion == kvstore.AnyVersion {
				continue
			}

			current, err := tx.HGet(ctx, keys[i], fieldVersion).Int64()
			if errors.Is(err, goredis.Nil) {
				current = 0
			} else if err != nil {
				return err
			}
			if current != w.ExpectedVersion {
				return kvstore.ErrVersionConflict
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			for i, w := range writes {
				pipe.HSet(ctx, keys[i], fieldValue, w.Value)
				pipe.HIncrBy(ctx, keys[i], fieldVersion, 1)
			}

			return nil
		})

		return err
	}

	err := b.client.Watch(ctx, txf, keys...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, kvstore.ErrVersionConflict), errors.Is(err, goredis.TxFailedErr):
		return kvstore.ErrVersionConflict
	case strings.HasPrefix(err.Error(), "OOM"):
		return kvstore.ErrQuotaExceeded
	default:
		return fmt.Errorf("failed to commit: %w", err)
	}
}

func (b *Backend) Close() error {
	return b.client.Close()
}
