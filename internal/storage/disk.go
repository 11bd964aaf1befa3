package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Disk stores files on the local filesystem: one directory per client,
// created lazily on first use, directly under the upload root.
type Disk struct {
	root       string // absolute upload root
	publicBase string
}

var _ Engine = (*Disk)(nil)

// NewDisk creates the upload root if absent and returns a Disk engine.
// publicBase ("" for relative URLs) is prepended to public image URLs.
func NewDisk(root, publicBase string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Disk{root: abs, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Root returns the absolute upload root, for wiring the static file server.
func (d *Disk) Root() string {
	return d.root
}

// clientDir validates the identity and returns its directory, creating it
// if absent. MkdirAll is idempotent, so concurrent first-use by the same
// client cannot fail the race loser.
func (d *Disk) clientDir(clientID string) (string, error) {
	if !validClientID(clientID) {
		return "", ErrInvalidClientID
	}
	dir := filepath.Join(d.root, clientID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create client dir: %w", err)
	}
	return dir, nil
}

// resolveWithin joins name onto dir and rejects any result that does not
// stay under dir. This blocks ".." traversal and absolute-path injection
// through the filename parameter before any filesystem access.
func resolveWithin(dir, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) {
		return "", ErrPathEscape
	}
	abs := filepath.Clean(filepath.Join(dir, filepath.FromSlash(name)))
	if abs == dir || !strings.HasPrefix(abs, dir+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	// The resolved file must be a direct child, not a nested path.
	if filepath.Dir(abs) != dir {
		return "", ErrPathEscape
	}
	return abs, nil
}

// Save writes the stream to the client's directory under storedName.
func (d *Disk) Save(ctx context.Context, clientID, storedName string, r io.Reader, size int64, contentType string) error {
	dir, err := d.clientDir(clientID)
	if err != nil {
		return err
	}
	dst, err := resolveWithin(dir, storedName)
	if err != nil {
		return err
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w", storedName, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write %q: %w", storedName, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %q: %w", storedName, err)
	}
	return nil
}

// List enumerates the client's directory, newest first.
func (d *Disk) List(ctx context.Context, clientID string) ([]FileInfo, error) {
	dir, err := d.clientDir(clientID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read client dir: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue // deleted between ReadDir and stat
		}
		files = append(files, FileInfo{
			Name:       e.Name(),
			Size:       st.Size(),
			UploadTime: st.ModTime(),
		})
	}
	sortNewestFirst(files)
	return files, nil
}

// Delete removes one file from the client's directory.
func (d *Disk) Delete(ctx context.Context, clientID, name string) error {
	if !validClientID(clientID) {
		return ErrInvalidClientID
	}
	dir := filepath.Join(d.root, clientID)
	target, err := resolveWithin(dir, name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove %q: %w", name, err)
	}
	return nil
}

// ListAll walks every client directory under the root.
func (d *Disk) ListAll(ctx context.Context) ([]OwnedFileInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("read upload root: %w", err)
	}

	var all []OwnedFileInfo
	for _, e := range entries {
		if !e.IsDir() || !validClientID(e.Name()) {
			continue
		}
		files, err := d.List(ctx, e.Name())
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			all = append(all, OwnedFileInfo{FileInfo: f, ClientID: e.Name()})
		}
	}
	return all, nil
}

// PublicURL returns the browser-accessible URL for a stored file, e.g.
// "/images/<clientID>/<storedName>" or the same path under the public base.
func (d *Disk) PublicURL(clientID, storedName string) string {
	return d.publicBase + "/images/" + clientID + "/" + storedName
}

func sortNewestFirst(files []FileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if !files[i].UploadTime.Equal(files[j].UploadTime) {
			return files[i].UploadTime.After(files[j].UploadTime)
		}
		return files[i].Name > files[j].Name
	})
}
