// Package client implements the consumer side of the image API: a pending
// upload queue with dedup, a persisted history cache reconciled against
// server truth, and single-flight upload with optional auto-upload
// chaining.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/easyimg/service/internal/fingerprint"
)

var (
	// ErrBusy is returned when an upload is triggered while one is already
	// in flight. The caller retries after the current upload resolves.
	ErrBusy = errors.New("upload already in progress")

	// ErrNoFiles is returned when Upload is triggered with an empty queue.
	ErrNoFiles = errors.New("no files pending")

	// ErrNotConfigured is returned when the session lacks a base URL or
	// API key.
	ErrNotConfigured = errors.New("api url and api key must be configured")
)

// PendingFile is a file staged for upload, identified by
// (name, size, lastModified) for dedup. Never persisted.
type PendingFile struct {
	Name         string
	Size         int64
	LastModified int64 // unix milliseconds
	Path         string
}

type dedupKey struct {
	name         string
	size         int64
	lastModified int64
}

func (p PendingFile) key() dedupKey {
	return dedupKey{name: p.Name, size: p.Size, lastModified: p.LastModified}
}

// ImageRecord is one entry of the history cache.
type ImageRecord struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimetype,omitempty"`
	UploadTime string `json:"uploadTime,omitempty"`
}

// persistedState is the on-disk session state, the analogue of the web
// client's localStorage entries.
type persistedState struct {
	APIURL     string        `json:"apiUrl"`
	APIKey     string        `json:"apiKey"`
	History    []ImageRecord `json:"history"`
	AutoUpload bool          `json:"autoUpload"`
}

// Session owns all client-side state: the pending queue, the history
// cache, configuration, and the single upload-in-flight flag. All methods
// are safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	baseURL    string
	apiKey     string
	clientID   string
	pending    []PendingFile
	history    []ImageRecord
	autoUpload bool
	uploading  bool
	statePath  string // empty disables persistence
	httpc      *http.Client
}

// NewSession creates a session for the given API base URL. statePath may
// be empty to keep all state in memory.
func NewSession(baseURL, apiKey, statePath string) *Session {
	return &Session{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		clientID:  fingerprint.ClientID(),
		statePath: statePath,
		httpc:     &http.Client{Timeout: 60 * time.Second},
	}
}

// ClientID returns the derived client identity.
func (s *Session) ClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// SetAPIKey stores the capability used on every tenant-scoped call.
func (s *Session) SetAPIKey(key string) {
	s.mu.Lock()
	s.apiKey = key
	s.mu.Unlock()
	s.persist()
}

// SetAutoUpload toggles auto-upload chaining.
func (s *Session) SetAutoUpload(on bool) {
	s.mu.Lock()
	s.autoUpload = on
	s.mu.Unlock()
	s.persist()
}

// AutoUpload reports whether auto-upload chaining is on.
func (s *Session) AutoUpload() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoUpload
}

// AddFiles merges files into the pending queue and returns how many were
// actually added. A file already queued under the same
// (name, size, lastModified) key is skipped, so the picker, drag-drop, and
// paste intake paths can all feed the queue safely.
func (s *Session) AddFiles(files ...PendingFile) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[dedupKey]bool, len(s.pending))
	for _, p := range s.pending {
		known[p.key()] = true
	}

	added := 0
	for _, f := range files {
		if known[f.key()] {
			continue
		}
		known[f.key()] = true
		s.pending = append(s.pending, f)
		added++
	}
	return added
}

// Pending returns a snapshot of the queue.
func (s *Session) Pending() []PendingFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingFile, len(s.pending))
	copy(out, s.pending)
	return out
}

// History returns a snapshot of the history cache.
func (s *Session) History() []ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ImageRecord, len(s.history))
	copy(out, s.history)
	return out
}

// Uploading reports whether an upload is in flight.
func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// LoadState restores persisted state from the state file, if configured.
func (s *Session) LoadState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statePath == "" {
		return nil
	}

	raw, err := os.ReadFile(s.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state file: %w", err)
	}

	var st persistedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return fmt.Errorf("parse state file: %w", err)
	}
	if st.APIURL != "" {
		s.baseURL = strings.TrimRight(st.APIURL, "/")
	}
	if st.APIKey != "" {
		s.apiKey = st.APIKey
	}
	s.history = st.History
	s.autoUpload = st.AutoUpload
	sortHistory(s.history)
	return nil
}

// persist writes the current state to the state file. Failures are
// swallowed: losing a cache write never blocks an operation that already
// succeeded remotely.
func (s *Session) persist() {
	s.mu.Lock()
	st := persistedState{
		APIURL:     s.baseURL,
		APIKey:     s.apiKey,
		History:    append([]ImageRecord(nil), s.history...),
		AutoUpload: s.autoUpload,
	}
	path := s.statePath
	s.mu.Unlock()

	if path == "" {
		return
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, raw, 0o600)
}

// recordTimestamp extracts a best-effort upload timestamp in unix
// milliseconds. It tries RFC3339 variants, then a raw integer, and
// defaults to 0 when nothing parses.
func recordTimestamp(rec ImageRecord) int64 {
	v := strings.TrimSpace(rec.UploadTime)
	if v == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts.UnixMilli()
		}
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
		return n
	}
	return 0
}

// sortHistory applies the cache ordering invariant: timestamp descending,
// then name descending for a deterministic tie-break.
func sortHistory(records []ImageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := recordTimestamp(records[i]), recordTimestamp(records[j])
		if ti != tj {
			return ti > tj
		}
		return records[i].Name > records[j].Name
	})
}
