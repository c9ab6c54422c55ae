package metadata

import (
	"context"
	"sort"
	"time"

	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/repository"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// MetadataResult is the per-user metadata response: one tree per readable
// bucket in bucket-name order, plus an error annotation per omitted bucket.
type MetadataResult struct {
	Trees  []*types.MetadataNode `json:"trees"`
	Errors map[string]string     `json:"errors,omitempty"`
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	Config   types.MetadataConfig
	Resolver repository.PermissionRepository
	Factory  clients.ClientFactory
}

// Service ties the bucket client registry, the global tree cache, the per-user
// cache and the invalidation scheduler together.
type Service struct {
	registry  *clients.Registry
	global    *GlobalCache
	users     *UserCache
	resolver  repository.PermissionRepository
	scheduler *InvalidationScheduler
}

// NewService builds the cache stack and arms the invalidation scheduler, which
// clears once immediately.
func NewService(opts ServiceOptions) *Service {
	cfg := opts.Config.WithDefaults()

	registry := clients.NewRegistry(opts.Factory)
	global := NewGlobalCache(registry, cfg.ListTimeout)
	users := NewUserCache(opts.Resolver, global, UserCacheConfig{
		Size:        cfg.UserCacheSize,
		Concurrency: cfg.BuildConcurrency,
	})

	s := &Service{
		registry: registry,
		global:   global,
		users:    users,
		resolver: opts.Resolver,
	}
	s.scheduler = NewInvalidationScheduler(cfg.ReloadPeriod, s.clear)

	log.Info().
		Dur("reload_period", cfg.ReloadPeriod).
		Int("build_concurrency", cfg.BuildConcurrency).
		Msg("metadata service ready")
	return s
}

// GetMetadata rebuilds the caller's view on every call, reusing cached bucket
// trees, and returns the visible trees in bucket-name order. Buckets that fail
// to list are omitted and reported in Errors; only a permission lookup failure
// fails the whole call.
func (s *Service) GetMetadata(ctx context.Context, user types.UserIdentity) (*MetadataResult, error) {
	view, err := s.users.Rebuild(ctx, user)
	if err != nil {
		return nil, err
	}

	result := &MetadataResult{Trees: view.SortedTrees()}
	if len(view.Errors) > 0 {
		result.Errors = make(map[string]string, len(view.Errors))
		for bucket, err := range view.Errors {
			result.Errors[bucket] = err.Error()
		}
	}
	return result, nil
}

// GetAllowedBuckets returns the lower-cased buckets the user may query.
func (s *Service) GetAllowedBuckets(ctx context.Context, user types.UserIdentity) ([]string, error) {
	view, err := s.users.MetadataFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return view.AllowedList(), nil
}

// GetShareableBuckets returns the lower-cased buckets marked shareable for the
// user's groups. The result is not cached.
func (s *Service) GetShareableBuckets(ctx context.Context, user types.UserIdentity) ([]string, error) {
	buckets, err := s.resolver.ShareableBuckets(ctx, user.Groups)
	if err != nil {
		return nil, &types.PermissionResolutionError{UserId: user.UserId, Err: err}
	}

	set := make(map[string]struct{}, len(buckets))
	for _, b := range buckets {
		set[types.BucketPermission{Bucket: b}.NormalizedBucket()] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out, nil
}

// GetClient returns the cached client for bucket, if any.
func (s *Service) GetClient(bucket string) (clients.BucketClient, bool) {
	return s.registry.Get(bucket)
}

// InvalidateUser drops one user's cached view.
func (s *Service) InvalidateUser(userId string) {
	s.users.Invalidate(userId)
}

// Reconfigure re-arms the invalidation scheduler with a new period.
func (s *Service) Reconfigure(period time.Duration) {
	s.scheduler.Reconfigure(period)
}

// ReloadPeriod returns the period the scheduler is armed with.
func (s *Service) ReloadPeriod() time.Duration {
	return s.scheduler.Period()
}

// ForceClear clears the global and user caches once, out of schedule.
func (s *Service) ForceClear() {
	s.scheduler.ForceClear()
}

// Epoch returns the current cache epoch.
func (s *Service) Epoch() uint64 {
	return s.global.Epoch()
}

// Global exposes the bucket tree cache.
func (s *Service) Global() *GlobalCache { return s.global }

// Users exposes the per-user cache.
func (s *Service) Users() *UserCache { return s.users }

// Close stops the invalidation scheduler.
func (s *Service) Close() {
	s.scheduler.Stop()
}

func (s *Service) clear() {
	s.global.Clear()
}
