package filerepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/xid"

	"fileuploader/internal/config"
	"fileuploader/internal/infra/logging"
)

// StoredFile describes a file accepted by a repository.
type StoredFile struct {
	ID         string    `json:"id"`
	Repository string    `json:"repository"`
	Filename   string    `json:"filename"`
	Extension  string    `json:"extension"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Index persists StoredFile descriptors so they outlive the request that created them.
type Index interface {
	Save(ctx context.Context, f *StoredFile) error
	Find(ctx context.Context, id string) (*StoredFile, error)
	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// DescriptorCache is a best-effort read-through cache in front of the Index.
// Get returns nil, nil on a miss.
type DescriptorCache interface {
	Get(ctx context.Context, id string) (*StoredFile, error)
	Set(ctx context.Context, f *StoredFile) error
	Delete(ctx context.Context, id string) error
}

// Repository validates uploads against its Rules and stores the accepted
// content in a fiber.Storage backend.
type Repository struct {
	name      string
	keyPrefix string
	rules     Rules
	store     fiber.Storage
	index     Index

	clock func() time.Time
	idGen func() string
}

// New creates a repository. index may be nil when descriptors do not need to be kept.
func New(name string, cfg config.RepositoryConfig, store fiber.Storage, index Index) *Repository {
	return &Repository{
		name:      name,
		keyPrefix: cfg.KeyPrefix,
		rules: Rules{
			MaxFileBytes:      cfg.MaxFileBytes,
			AllowedExtensions: cfg.AllowedExtensions,
			AllowedMimeTypes:  cfg.AllowedMimeTypes,
		},
		store: store,
		index: index,
		clock: time.Now,
		idGen: func() string { return xid.New().String() },
	}
}

func (r *Repository) Name() string { return r.name }

// Validate reports whether u would be accepted. A rejected upload yields a
// *ValidationError; nil means accepted.
func (r *Repository) Validate(u Upload) error {
	if verr := r.rules.Validate(u); verr != nil {
		return verr
	}
	return nil
}

// Put validates u, writes its content to storage and records the descriptor.
func (r *Repository) Put(ctx context.Context, u Upload) (*StoredFile, error) {
	if err := r.Validate(u); err != nil {
		return nil, err
	}

	id := r.idGen()
	f := &StoredFile{
		ID:         id,
		Repository: r.name,
		Filename:   u.Filename,
		Extension:  u.Extension(),
		MimeType:   mimetype.Detect(u.Content).String(),
		Size:       int64(len(u.Content)),
		StorageKey: r.keyPrefix + id,
		CreatedAt:  r.clock().UTC(),
	}

	if err := r.store.Set(f.StorageKey, u.Content, 0); err != nil {
		return nil, fmt.Errorf("store %s: %w", f.StorageKey, err)
	}

	if r.index != nil {
		if err := r.index.Save(ctx, f); err != nil {
			// Keep storage and index consistent; the blob is useless without a descriptor.
			if derr := r.store.Delete(f.StorageKey); derr != nil {
				logging.Warn("Failed to remove orphaned blob", "key", f.StorageKey, "error", derr)
			}
			return nil, fmt.Errorf("index %s: %w", f.ID, err)
		}
	}

	logging.Info("File stored", "repository", r.name, "id", f.ID, "filename", f.Filename, "size", f.Size)
	return f, nil
}

// Content returns the stored bytes of f.
func (r *Repository) Content(f *StoredFile) ([]byte, error) {
	data, err := r.store.Get(f.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.StorageKey, err)
	}
	if data == nil {
		return nil, ErrFileNotFound
	}
	return data, nil
}

// Delete removes the blob and the index entry of f.
func (r *Repository) Delete(ctx context.Context, f *StoredFile) error {
	var errs []error
	if err := r.store.Delete(f.StorageKey); err != nil {
		errs = append(errs, fmt.Errorf("delete %s: %w", f.StorageKey, err))
	}
	if r.index != nil {
		if err := r.index.Delete(ctx, f.ID); err != nil {
			errs = append(errs, fmt.Errorf("unindex %s: %w", f.ID, err))
		}
	}
	return errors.Join(errs...)
}
