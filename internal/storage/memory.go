package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Memory is an in-memory Engine for tests. It applies the same identity and
// file-name validation as the real adapters.
type Memory struct {
	mu      sync.Mutex
	clients map[string]map[string]memFile
}

var _ Engine = (*Memory)(nil)

type memFile struct {
	data       []byte
	uploadTime time.Time
}

// NewMemory returns an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{clients: make(map[string]map[string]memFile)}
}

// validMemName rejects names that would escape a directory on a real
// filesystem, keeping Memory behaviorally interchangeable with Disk.
func validMemName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

func (m *Memory) Save(ctx context.Context, clientID, storedName string, r io.Reader, size int64, contentType string) error {
	if !validClientID(clientID) {
		return ErrInvalidClientID
	}
	if !validMemName(storedName) {
		return ErrPathEscape
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	files, ok := m.clients[clientID]
	if !ok {
		files = make(map[string]memFile)
		m.clients[clientID] = files
	}
	files[storedName] = memFile{data: buf.Bytes(), uploadTime: time.Now()}
	return nil
}

func (m *Memory) List(ctx context.Context, clientID string) ([]FileInfo, error) {
	if !validClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	files := make([]FileInfo, 0, len(m.clients[clientID]))
	for name, f := range m.clients[clientID] {
		files = append(files, FileInfo{Name: name, Size: int64(len(f.data)), UploadTime: f.uploadTime})
	}
	sortNewestFirst(files)
	return files, nil
}

func (m *Memory) Delete(ctx context.Context, clientID, name string) error {
	if !validClientID(clientID) {
		return ErrInvalidClientID
	}
	if !validMemName(name) {
		return ErrPathEscape
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[clientID][name]; !ok {
		return ErrNotFound
	}
	delete(m.clients[clientID], name)
	return nil
}

func (m *Memory) ListAll(ctx context.Context) ([]OwnedFileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []OwnedFileInfo
	for clientID, files := range m.clients {
		for name, f := range files {
			all = append(all, OwnedFileInfo{
				FileInfo: FileInfo{Name: name, Size: int64(len(f.data)), UploadTime: f.uploadTime},
				ClientID: clientID,
			})
		}
	}
	return all, nil
}

func (m *Memory) PublicURL(clientID, storedName string) string {
	return "/images/" + clientID + "/" + storedName
}

// Read returns a stored file's bytes, for test assertions.
func (m *Memory) Read(clientID, storedName string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.clients[clientID][storedName]
	return f.data, ok
}
