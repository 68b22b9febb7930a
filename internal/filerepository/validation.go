package filerepository

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is one incoming file before it has been accepted by a repository.
type Upload struct {
	Filename string
	Content  []byte
}

// Extension returns the lower-cased extension of the upload without the dot.
func (u Upload) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(u.Filename), "."))
}

// Rules is the validation policy of a repository. Zero values disable a rule.
type Rules struct {
	MaxFileBytes      int64
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

// Validate runs the rules in a fixed order (empty, size, extension, mime type)
// and reports every failed rule. It returns nil when the upload is acceptable.
func (r Rules) Validate(u Upload) *ValidationError {
	var messages []string

	size := int64(len(u.Content))
	if size == 0 {
		messages = append(messages, "File is empty.")
	}
	if r.MaxFileBytes > 0 && size > r.MaxFileBytes {
		messages = append(messages, fmt.Sprintf("File is too large (%d bytes). Allowed maximum size is %d bytes.", size, r.MaxFileBytes))
	}

	if len(r.AllowedExtensions) > 0 && !extensionAllowed(u.Extension(), r.AllowedExtensions) {
		ext := u.Extension()
		if ext == "" {
			messages = append(messages, "Files without an extension are not allowed.")
		} else {
			messages = append(messages, fmt.Sprintf("File extension %q is not allowed. Allowed extensions: %s.", ext, strings.Join(r.AllowedExtensions, ", ")))
		}
	}

	if len(r.AllowedMimeTypes) > 0 && size > 0 {
		mtype := mimetype.Detect(u.Content)
		if !mimeAllowed(mtype, r.AllowedMimeTypes) {
			messages = append(messages, fmt.Sprintf("File type %q is not allowed.", mtype.String()))
		}
	}

	if len(messages) == 0 {
		return nil
	}
	return NewValidationError(u.Filename, messages...)
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimPrefix(a, "."), ext) {
			return true
		}
	}
	return false
}

// mimeAllowed accepts exact types (aliases and parents included, e.g.
// text/plain for text/html) and "type/*" wildcards.
func mimeAllowed(mtype *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if prefix, ok := strings.CutSuffix(a, "/*"); ok {
			for m := mtype; m != nil; m = m.Parent() {
				if strings.HasPrefix(m.String(), prefix+"/") {
					return true
				}
			}
			continue
		}
		for m := mtype; m != nil; m = m.Parent() {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}
