package clients

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/beam-cloud/s3meta/pkg/types"
)

// MemoryBucketClient serves a fixed key list in pages. Tokens are decimal
// offsets into the list.
type MemoryBucketClient struct {
	bucket   string
	pageSize int

	mu    sync.Mutex
	keys  []string
	err   error
	lists int
}

func NewMemoryBucketClient(bucket string, pageSize int, keys ...string) *MemoryBucketClient {
	if pageSize <= 0 {
		pageSize = types.DefaultListPageSize
	}
	return &MemoryBucketClient{bucket: bucket, pageSize: pageSize, keys: keys}
}

func (c *MemoryBucketClient) Bucket() string { return c.bucket }

// SetKeys replaces the listing served from the next page request on.
func (c *MemoryBucketClient) SetKeys(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = keys
}

// FailWith makes every page request return err. A nil err clears it.
func (c *MemoryBucketClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Lists returns the number of page requests served.
func (c *MemoryBucketClient) Lists() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists
}

func (c *MemoryBucketClient) ListPage(ctx context.Context, token string) (*ObjectPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists++
	if c.err != nil {
		return nil, c.err
	}

	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(c.keys) {
			return nil, fmt.Errorf("invalid continuation token %q", token)
		}
		offset = n
	}

	end := min(offset+c.pageSize, len(c.keys))
	page := &ObjectPage{Keys: append([]string(nil), c.keys[offset:end]...)}
	if end < len(c.keys) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// NewMemoryClientFactory serves the given clients by bucket name. Unknown
// buckets fail with a *ClientCreationError.
func NewMemoryClientFactory(clients ...*MemoryBucketClient) ClientFactory {
	byBucket := make(map[string]*MemoryBucketClient, len(clients))
	for _, c := range clients {
		byBucket[c.bucket] = c
	}
	return func(ctx context.Context, perm types.BucketPermission) (BucketClient, error) {
		c, ok := byBucket[perm.Bucket]
		if !ok {
			return nil, &types.ClientCreationError{Bucket: perm.Bucket, Err: fmt.Errorf("no such bucket")}
		}
		return c, nil
	}
}
