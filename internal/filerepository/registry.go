package filerepository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/config"
	"fileuploader/internal/infra/logging"
)

// Registry holds the configured repositories and resolves stored files by id.
type Registry struct {
	repos map[string]*Repository
	index Index
	cache DescriptorCache
}

// NewRegistry builds a registry. cache may be nil.
func NewRegistry(index Index, cache DescriptorCache, repos ...*Repository) *Registry {
	r := &Registry{
		repos: make(map[string]*Repository, len(repos)),
		index: index,
		cache: cache,
	}
	for _, repo := range repos {
		r.repos[repo.Name()] = repo
	}
	return r
}

// FromConfig creates one Repository per configured entry. storeFor picks the
// storage backend of each repository.
func FromConfig(repos map[string]config.RepositoryConfig, storeFor func(name string, rc config.RepositoryConfig) fiber.Storage, index Index, cache DescriptorCache) *Registry {
	list := make([]*Repository, 0, len(repos))
	for name, rc := range repos {
		list = append(list, New(name, rc, storeFor(name, rc), index))
	}
	return NewRegistry(index, cache, list...)
}

// Get returns the repository called name.
func (r *Registry) Get(name string) (*Repository, error) {
	repo, ok := r.repos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRepository, name)
	}
	return repo, nil
}

// Names returns the configured repository names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.repos))
	for name := range r.repos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put stores u in the named repository and primes the descriptor cache.
func (r *Registry) Put(ctx context.Context, repository string, u Upload) (*StoredFile, error) {
	repo, err := r.Get(repository)
	if err != nil {
		return nil, err
	}
	f, err := repo.Put(ctx, u)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, f); err != nil {
			logging.Warn("Descriptor cache write failed", "id", f.ID, "error", err)
		}
	}
	return f, nil
}

// Describe looks id up in the cache first and falls back to the index.
func (r *Registry) Describe(ctx context.Context, id string) (*StoredFile, error) {
	if r.cache != nil {
		f, err := r.cache.Get(ctx, id)
		if err != nil {
			logging.Warn("Descriptor cache read failed", "id", id, "error", err)
		} else if f != nil {
			return f, nil
		}
	}
	if r.index == nil {
		return nil, ErrFileNotFound
	}

	f, err := r.index.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, f); err != nil {
			logging.Warn("Descriptor cache write failed", "id", id, "error", err)
		}
	}
	return f, nil
}

// Content resolves id and returns its descriptor together with the stored bytes.
func (r *Registry) Content(ctx context.Context, id string) (*StoredFile, []byte, error) {
	f, err := r.Describe(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	repo, err := r.Get(f.Repository)
	if err != nil {
		if errors.Is(err, ErrUnknownRepository) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	data, err := repo.Content(f)
	if err != nil {
		return nil, nil, err
	}
	return f, data, nil
}

// Delete removes f from its repository, the index and the descriptor cache.
func (r *Registry) Delete(ctx context.Context, f *StoredFile) error {
	repo, err := r.Get(f.Repository)
	if err != nil {
		return err
	}
	err = repo.Delete(ctx, f)
	if r.cache != nil {
		if cerr := r.cache.Delete(ctx, f.ID); cerr != nil {
			logging.Warn("Descriptor cache delete failed", "id", f.ID, "error", cerr)
		}
	}
	return err
}
