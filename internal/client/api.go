package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const apiKeyHeader = "X-API-Key"

type errorPayload struct {
	Error string `json:"error"`
}

// apiError extracts the server's error message or falls back to the status.
func apiError(resp *http.Response, body []byte) error {
	var p errorPayload
	if json.Unmarshal(body, &p) == nil && p.Error != "" {
		return fmt.Errorf("server: %s", p.Error)
	}
	return fmt.Errorf("server: unexpected status %s", resp.Status)
}

// ObtainKey exchanges the shared access password for a personal API key
// bound to this session's derived client identity, and stores it.
func (s *Session) ObtainKey(ctx context.Context, password string) (string, error) {
	s.mu.Lock()
	base, clientID := s.baseURL, s.clientID
	s.mu.Unlock()
	if base == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"password": password,
		"clientId": clientID,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/auth/api-key", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("request api key: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp, body)
	}

	var out struct {
		Success bool   `json:"success"`
		APIKey  string `json:"apiKey"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Success || out.APIKey == "" {
		return "", fmt.Errorf("parse api key response: unexpected payload")
	}

	s.SetAPIKey(out.APIKey)
	return out.APIKey, nil
}

// Upload sends the pending queue to the server. At most one upload may be
// in flight: concurrent triggers fail with ErrBusy instead of queueing.
//
// On success the uploaded entries leave the queue, the returned records
// (stamped with an upload time when the server omitted one) are merged
// into the history cache, and the cache is re-sorted and persisted. On
// failure the queue and cache stay exactly as they were.
//
// With auto-upload enabled, files added while a batch was in flight are
// drained by looping here, still under the same single flight.
func (s *Session) Upload(ctx context.Context) ([]ImageRecord, error) {
	s.mu.Lock()
	if s.baseURL == "" || s.apiKey == "" {
		s.mu.Unlock()
		return nil, ErrNotConfigured
	}
	if s.uploading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil, ErrNoFiles
	}
	s.uploading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.uploading = false
		s.mu.Unlock()
	}()

	var all []ImageRecord
	for {
		s.mu.Lock()
		batch := make([]PendingFile, len(s.pending))
		copy(batch, s.pending)
		s.mu.Unlock()
		if len(batch) == 0 {
			break
		}

		records, err := s.uploadBatch(ctx, batch)
		if err != nil {
			return all, err
		}

		now := time.Now().Format(time.RFC3339)
		for i := range records {
			if records[i].UploadTime == "" {
				records[i].UploadTime = now
			}
		}

		s.mu.Lock()
		sent := make(map[dedupKey]bool, len(batch))
		for _, f := range batch {
			sent[f.key()] = true
		}
		remaining := s.pending[:0]
		for _, f := range s.pending {
			if !sent[f.key()] {
				remaining = append(remaining, f)
			}
		}
		s.pending = remaining
		s.history = append(append([]ImageRecord(nil), records...), s.history...)
		sortHistory(s.history)
		chain := s.autoUpload && len(s.pending) > 0
		s.mu.Unlock()

		s.persist()
		all = append(all, records...)

		if !chain {
			break
		}
	}
	return all, nil
}

// uploadBatch sends one multipart request carrying the whole batch.
func (s *Session) uploadBatch(ctx context.Context, batch []PendingFile) ([]ImageRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range batch {
		if err := writeFilePart(mw, f); err != nil {
			mw.Close()
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	base, key := s.baseURL, s.apiKey
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(apiKeyHeader, key)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, body)
	}

	var out struct {
		Success bool          `json:"success"`
		Files   []ImageRecord `json:"files"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Success {
		return nil, fmt.Errorf("parse upload response: unexpected payload")
	}
	return out.Files, nil
}

func writeFilePart(mw *multipart.Writer, f PendingFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %q: %w", f.Path, err)
	}
	defer src.Close()

	ct := mime.TypeByExtension(filepath.Ext(f.Name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	// Strip charset etc. so the server's allow-list sees the bare type.
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, "images", f.Name))
	header.Set("Content-Type", ct)
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("read %q: %w", f.Path, err)
	}
	return nil
}

// Refresh fetches the server's file list and replaces the history cache
// wholesale: server truth wins, unconfirmed local-only entries are
// discarded.
func (s *Session) Refresh(ctx context.Context) ([]ImageRecord, error) {
	s.mu.Lock()
	base, key := s.baseURL, s.apiKey
	s.mu.Unlock()
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/images", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, key)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp, body)
	}

	var out struct {
		Success bool          `json:"success"`
		Files   []ImageRecord `json:"files"`
	}
	if err := json.Unmarshal(body, &out); err != nil || !out.Success {
		return nil, fmt.Errorf("parse list response: unexpected payload")
	}

	records := out.Files
	sortHistory(records)

	s.mu.Lock()
	s.history = records
	s.mu.Unlock()
	s.persist()

	return s.History(), nil
}

// DeleteImage removes one stored file and, on success, reconciles the
// cache through the same refresh path the UI uses.
func (s *Session) DeleteImage(ctx context.Context, storedName string) error {
	s.mu.Lock()
	base, key := s.baseURL, s.apiKey
	s.mu.Unlock()
	if base == "" || key == "" {
		return ErrNotConfigured
	}
	if strings.TrimSpace(storedName) == "" {
		return fmt.Errorf("stored name is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, base+"/api/images/"+url.PathEscape(storedName), nil)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, key)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return apiError(resp, body)
	}

	_, err = s.Refresh(ctx)
	return err
}
