package common

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/redis/go-redis/v9"
)

var ErrPubSubClosed = errors.New("redis pubsub channel closed")

// RedisClient wraps a single-node or cluster client behind one type.
type RedisClient struct {
	redis.UniversalClient
}

type RedisClientOption func(*redis.UniversalOptions)

func WithClientName(name string) RedisClientOption {
	return func(opts *redis.UniversalOptions) {
		opts.ClientName = name
	}
}

func NewRedisClient(cfg types.RedisConfig, options ...RedisClientOption) (*RedisClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:           cfg.Addrs,
		Username:        cfg.Username,
		Password:        cfg.Password,
		ClientName:      cfg.ClientName,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		MaxRedirects:    cfg.MaxRedirects,
		MaxRetries:      cfg.MaxRetries,
		RouteByLatency:  cfg.RouteByLatency,
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	}
	for _, opt := range options {
		opt(opts)
	}

	var client redis.UniversalClient
	if cfg.Mode == types.RedisModeCluster {
		client = redis.NewClusterClient(opts.Cluster())
	} else {
		client = redis.NewClient(opts.Simple())
	}

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisClient{client}, nil
}

// Subscribe forwards messages from channels until ctx is done. The error
// channel receives at most one error and both channels close when the
// subscription ends.
func (r *RedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan *redis.Message, <-chan error) {
	out := make(chan *redis.Message)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		pubsub := r.UniversalClient.Subscribe(ctx, channels...)
		defer pubsub.Close()

		if _, err := pubsub.Receive(ctx); err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return
		}

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					errs <- ErrPubSubClosed
					return
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, errs
}
