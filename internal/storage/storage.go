// Package storage defines the interface for client-scoped image storage.
// Swap implementations by changing the concrete type injected at startup:
// Disk is the production default, Minio works with any S3-compatible
// provider, Memory backs tests.
//
// Every operation is keyed by a client ID and confined to that client's
// namespace. File names supplied by callers never select a namespace.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the named file does not exist in the
	// client's namespace.
	ErrNotFound = errors.New("file not found")

	// ErrPathEscape is returned when a file name would resolve outside the
	// client's namespace. It is rejected before any storage access.
	ErrPathEscape = errors.New("file name escapes client directory")

	// ErrInvalidClientID is returned for identities that fail the hex
	// pattern. The auth middleware already rejects these; the check here is
	// defense in depth.
	ErrInvalidClientID = errors.New("invalid client id")
)

// clientIDPattern mirrors the capability package's identity shape.
var clientIDPattern = regexp.MustCompile(`^[a-f0-9]{32,128}$`)

// FileInfo describes one stored file.
type FileInfo struct {
	Name       string
	Size       int64
	UploadTime time.Time
}

// OwnedFileInfo is a FileInfo tagged with the owning client, used by the
// admin listing across all namespaces.
type OwnedFileInfo struct {
	FileInfo
	ClientID string
}

// Engine is the storage port. Handlers depend on this interface only.
type Engine interface {
	// Save persists the stream under storedName in the client's namespace,
	// creating the namespace on first use.
	Save(ctx context.Context, clientID, storedName string, r io.Reader, size int64, contentType string) error

	// List enumerates the client's namespace. A namespace that was never
	// written to lists as empty, not as an error.
	List(ctx context.Context, clientID string) ([]FileInfo, error)

	// Delete removes one file. ErrPathEscape for traversal attempts,
	// ErrNotFound when the file does not exist (including double delete).
	Delete(ctx context.Context, clientID, name string) error

	// ListAll enumerates every namespace, tagging each file with its owner.
	ListAll(ctx context.Context) ([]OwnedFileInfo, error)

	// PublicURL constructs the browser-accessible URL for a stored file.
	// The URL path embeds the client ID, so the path itself carries the
	// same isolation as the API.
	PublicURL(clientID, storedName string) string
}

// GenerateStoredName builds a collision-resistant stored file name:
// millisecond timestamp, random token, then the sanitized original base
// name. Uniqueness holds even under rapid concurrent uploads from one
// client.
func GenerateStoredName(original string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), token, sanitizeName(original))
}

// sanitizeName reduces a user-supplied file name to a safe base name.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.Map(func(r rune) rune {
		if r == 0 || r == '/' || r == '\\' {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// validClientID reports whether id matches the identity pattern.
func validClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}
