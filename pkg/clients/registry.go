package clients

import (
	"context"
	"sync"

	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// ClientFactory constructs a client for the bucket named in perm.
type ClientFactory func(ctx context.Context, perm types.BucketPermission) (BucketClient, error)

// NewS3ClientFactory returns a factory that reads the current metadata settings
// on every construction, so retry count, region and endpoint changes apply to
// clients created after the next clear.
func NewS3ClientFactory(settings func() types.MetadataConfig) ClientFactory {
	return func(ctx context.Context, perm types.BucketPermission) (BucketClient, error) {
		return NewS3BucketClient(ctx, settings(), perm)
	}
}

// Registry holds one client per bucket. Entries are created lazily from the
// first credentials seen for a bucket and dropped only by Clear.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]BucketClient
	factory ClientFactory
}

func NewRegistry(factory ClientFactory) *Registry {
	return &Registry{
		clients: make(map[string]BucketClient),
		factory: factory,
	}
}

// Get returns the client for bucket, if one has been created.
func (r *Registry) Get(bucket string) (BucketClient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[bucket]
	return c, ok
}

// GetOrCreate returns the existing client for perm.Bucket or constructs one.
// Construction runs outside the lock; concurrent callers may both build a
// client, and the first one stored wins. Failures are not cached.
func (r *Registry) GetOrCreate(ctx context.Context, perm types.BucketPermission) (BucketClient, error) {
	if c, ok := r.Get(perm.Bucket); ok {
		return c, nil
	}

	c, err := r.factory(ctx, perm)
	if err != nil {
		if !types.IsClientCreationError(err) {
			err = &types.ClientCreationError{Bucket: perm.Bucket, Err: err}
		}
		log.Warn().Err(err).Str("bucket", perm.Bucket).Msg("failed to create bucket client")
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.clients[perm.Bucket]; ok {
		return existing, nil
	}
	r.clients[perm.Bucket] = c
	return c, nil
}

// Clear releases every client.
func (r *Registry) Clear() {
	r.mu.Lock()
	n := len(r.clients)
	r.clients = make(map[string]BucketClient)
	r.mu.Unlock()

	log.Debug().Int("count", n).Msg("bucket clients cleared")
}

// Len returns the number of cached clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
