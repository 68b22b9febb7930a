package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"fileuploader/internal/filerepository"
)

// FileIndex stores StoredFile descriptors in the stored_files table.
type FileIndex struct {
	DB  *DB
	DSN string

	mu          sync.Mutex
	schemaReady bool
}

func NewFileIndex(db *DB, dsn string) *FileIndex {
	return &FileIndex{DB: db, DSN: dsn}
}

func (i *FileIndex) conn(ctx context.Context) (*sql.DB, error) {
	db, err := i.DB.Get(i.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.schemaReady {
		return db, nil
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS stored_files (
		id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		filename TEXT NOT NULL,
		extension TEXT NOT NULL DEFAULT '',
		mime_type TEXT NOT NULL,
		size BIGINT NOT NULL,
		storage_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`)
	if err != nil {
		return nil, fmt.Errorf("ensure stored_files schema: %w", err)
	}
	i.schemaReady = true
	return db, nil
}

// Save implements filerepository.Index.
func (i *FileIndex) Save(ctx context.Context, f *filerepository.StoredFile) error {
	db, err := i.conn(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO stored_files (id, repository, filename, extension, mime_type, size, storage_key, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.Repository, f.Filename, f.Extension, f.MimeType, f.Size, f.StorageKey, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stored file: %w", err)
	}
	return nil
}

// Find implements filerepository.Index.
func (i *FileIndex) Find(ctx context.Context, id string) (*filerepository.StoredFile, error) {
	db, err := i.conn(ctx)
	if err != nil {
		return nil, err
	}

	var f filerepository.StoredFile
	err = db.QueryRowContext(ctx,
		`SELECT id, repository, filename, extension, mime_type, size, storage_key, created_at
		 FROM stored_files WHERE id = $1`, id,
	).Scan(&f.ID, &f.Repository, &f.Filename, &f.Extension, &f.MimeType, &f.Size, &f.StorageKey, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, filerepository.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select stored file: %w", err)
	}
	return &f, nil
}

// Delete implements filerepository.Index.
func (i *FileIndex) Delete(ctx context.Context, id string) error {
	db, err := i.conn(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM stored_files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}
