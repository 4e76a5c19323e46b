package schema

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
)

// RepositoryOption configures schema repository construction.
type RepositoryOption func(*RepositoryOptions)

// RepositoryOptions captures optional behavior for schema persistence.
// Definitions change rarely but are read on every screen, so the cache
// decorator pays off quickly for list-heavy hosts.
type RepositoryOptions struct {
	CacheEnabled bool
	CacheConfig  *cache.Config
}

// WithCache toggles the repository cache decorator.
func WithCache(enabled bool) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheEnabled = enabled
	}
}

// WithCacheConfig supplies the cache configuration to use when caching is enabled.
func WithCacheConfig(cfg cache.Config) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheConfig = &cfg
	}
}

func applyRepositoryOptions(options []RepositoryOption) RepositoryOptions {
	var opts RepositoryOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

// decorateRepository wraps the base store in the cache decorator when enabled.
// Already-cached repositories are passed through so callers cannot double-wrap.
func decorateRepository(repo repository.Repository[*Record], opts RepositoryOptions) repository.Repository[*Record] {
	if !opts.CacheEnabled || repo == nil {
		return repo
	}
	if _, ok := repo.(*repositorycache.CachedRepository[*Record]); ok {
		return repo
	}
	cfg := cache.DefaultConfig()
	if opts.CacheConfig != nil {
		cfg = *opts.CacheConfig
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return repo
	}
	return repositorycache.New(repo, service, cache.NewDefaultKeySerializer())
}
