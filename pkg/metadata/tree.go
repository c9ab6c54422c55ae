package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// Insert adds key to the tree rooted at root. root.Name is taken as the bucket
// stamped on file nodes.
//
// A key ending in "/" is a directory marker: it creates the directory chain
// without a file leaf. Empty keys and keys with empty segments return
// ErrInvalidKey. If key would turn an existing file into a directory, or an
// existing directory into a file, the tree is left untouched and a
// *TreeConflictError is returned. Re-inserting an existing key is a no-op.
func Insert(root *types.MetadataNode, key string) error {
	segments, dirMarker, err := splitKey(key)
	if err != nil {
		return err
	}

	// Conflicts can only occur on nodes that already exist, and every node
	// below a newly created one is new too, so the tree is never mutated
	// before a conflict is detected.
	node := root
	for i, seg := range segments {
		last := i == len(segments)-1
		wantFile := last && !dirMarker

		child := node.Child(seg)
		if child == nil {
			if wantFile {
				child = types.NewFileNode(seg, root.Name, key)
			} else {
				child = types.NewDirNode(seg)
			}
			node = node.AddChild(child)
			continue
		}

		switch {
		case wantFile && child.IsFile:
			return nil
		case wantFile:
			return &types.TreeConflictError{Bucket: root.Name, Key: key, Segment: seg, Reason: "directory already exists"}
		case child.IsFile:
			return &types.TreeConflictError{Bucket: root.Name, Key: key, Segment: seg, Reason: "file already exists"}
		}
		node = child
	}
	return nil
}

func splitKey(key string) ([]string, bool, error) {
	dirMarker := strings.HasSuffix(key, "/")
	trimmed := strings.TrimSuffix(key, "/")
	if trimmed == "" {
		return nil, false, fmt.Errorf("%w: %q", types.ErrInvalidKey, key)
	}

	segments := strings.Split(trimmed, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, false, fmt.Errorf("%w: %q has an empty segment", types.ErrInvalidKey, key)
		}
	}
	return segments, dirMarker, nil
}

// TreeBuilder folds a stream of keys into one bucket tree.
type TreeBuilder struct {
	root      *types.MetadataNode
	keys      int
	conflicts int
	invalid   int
}

func NewTreeBuilder(bucket string) *TreeBuilder {
	return &TreeBuilder{root: types.NewDirNode(bucket)}
}

// Add inserts key. Conflicting and invalid keys are logged, counted and
// skipped; the error is returned so callers can collect them.
func (b *TreeBuilder) Add(key string) error {
	b.keys++
	err := Insert(b.root, key)
	if err == nil {
		return nil
	}

	var conflict *types.TreeConflictError
	if errors.As(err, &conflict) {
		b.conflicts++
	} else {
		b.invalid++
	}
	log.Warn().Err(err).Str("bucket", b.root.Name).Str("key", key).Msg("skipping object key")
	return err
}

// Tree returns the root. The tree must not be modified once it is published.
func (b *TreeBuilder) Tree() *types.MetadataNode { return b.root }

func (b *TreeBuilder) Keys() int      { return b.keys }
func (b *TreeBuilder) Conflicts() int { return b.conflicts }
func (b *TreeBuilder) Invalid() int   { return b.invalid }

// BuildBucketTree lists every page of client's bucket and folds all keys into
// a single tree. pageTimeout bounds each page request when positive.
func BuildBucketTree(ctx context.Context, client clients.BucketClient, pageTimeout time.Duration) (*types.MetadataNode, error) {
	bucket := client.Bucket()
	builder := NewTreeBuilder(bucket)
	start := time.Now()

	token := ""
	pages := 0
	for {
		page, err := listPage(ctx, client, token, pageTimeout)
		if err != nil {
			return nil, &types.ListingError{Bucket: bucket, Page: pages, Err: err}
		}
		pages++

		for _, key := range page.Keys {
			builder.Add(key)
		}

		if page.NextToken == "" {
			break
		}
		if page.NextToken == token {
			return nil, &types.ListingError{Bucket: bucket, Page: pages, Err: fmt.Errorf("continuation token %q repeated", token)}
		}
		token = page.NextToken
	}

	log.Info().
		Str("bucket", bucket).
		Int("pages", pages).
		Int("keys", builder.Keys()).
		Int("conflicts", builder.Conflicts()).
		Int("invalid", builder.Invalid()).
		Dur("duration", time.Since(start)).
		Msg("built bucket tree")

	return builder.Tree(), nil
}

func listPage(ctx context.Context, client clients.BucketClient, token string, timeout time.Duration) (*clients.ObjectPage, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.ListPage(ctx, token)
}
