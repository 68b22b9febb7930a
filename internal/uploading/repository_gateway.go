package uploading

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"

	"fileuploader/internal/filerepository"
	"fileuploader/internal/infra/logging"
)

// RepositoryGateway stores multipart files into a file repository. The
// repository is chosen with the "repository" (or "_repository") form value.
type RepositoryGateway struct {
	repos             *filerepository.Registry
	fieldName         string
	defaultRepository string
}

func NewRepositoryGateway(repos *filerepository.Registry, fieldName, defaultRepository string) *RepositoryGateway {
	if fieldName == "" {
		fieldName = "file"
	}
	return &RepositoryGateway{
		repos:             repos,
		fieldName:         fieldName,
		defaultRepository: defaultRepository,
	}
}

func (g *RepositoryGateway) Name() string { return "repository" }

// IsResponsible claims multipart requests that carry at least one file in the configured field.
func (g *RepositoryGateway) IsResponsible(c *fiber.Ctx) bool {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return false
	}
	form, err := c.MultipartForm()
	if err != nil {
		return false
	}
	return len(form.File[g.fieldName]) > 0
}

func (g *RepositoryGateway) repositoryName(c *fiber.Ctx) string {
	for _, key := range []string{"repository", "_repository"} {
		if v := strings.TrimSpace(c.FormValue(key)); v != "" {
			return v
		}
	}
	return g.defaultRepository
}

// Upload validates every file first and stores nothing unless all of them pass.
// With several files each message is prefixed with its filename. Files stored
// before a storage failure are removed again.
func (g *RepositoryGateway) Upload(c *fiber.Ctx) (Envelope, error) {
	name := g.repositoryName(c)
	if name == "" {
		return nil, filerepository.NewValidationError("", "No repository was specified for this upload.")
	}
	repo, err := g.repos.Get(name)
	if err != nil {
		if errors.Is(err, filerepository.ErrUnknownRepository) {
			return nil, filerepository.NewValidationError("", fmt.Sprintf("Unknown repository %q.", name))
		}
		return nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("read multipart form: %w", err)
	}

	headers := form.File[g.fieldName]
	uploads := make([]filerepository.Upload, 0, len(headers))
	var verr *filerepository.ValidationError
	for _, fh := range headers {
		u, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		if err := repo.Validate(u); err != nil {
			var fileErr *filerepository.ValidationError
			if !errors.As(err, &fileErr) {
				return nil, err
			}
			if len(headers) > 1 {
				fileErr = fileErr.Prefixed()
			}
			verr = verr.Merge(fileErr)
			continue
		}
		uploads = append(uploads, u)
	}
	if verr != nil {
		return nil, verr
	}

	ids := make([]string, 0, len(uploads))
	files := make([]*filerepository.StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := g.repos.Put(c.UserContext(), name, u)
		if err != nil {
			g.rollback(c.UserContext(), files)
			return nil, err
		}
		ids = append(ids, f.ID)
		files = append(files, f)
	}

	return Envelope{
		"success":    true,
		"repository": name,
		"ids":        ids,
		"files":      files,
	}, nil
}

// rollback removes files stored earlier in a request that failed part way.
func (g *RepositoryGateway) rollback(ctx context.Context, files []*filerepository.StoredFile) {
	for _, f := range files {
		if err := g.repos.Delete(ctx, f); err != nil {
			logging.Error("Failed to roll back stored file", "id", f.ID, "repository", f.Repository, "error", err)
		}
	}
}

func readUpload(fh *multipart.FileHeader) (filerepository.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return filerepository.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return filerepository.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return filerepository.Upload{Filename: fh.Filename, Content: content}, nil
}
