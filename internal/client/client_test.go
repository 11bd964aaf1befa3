package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempImage(t *testing.T, name, content string) PendingFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return PendingFile{
		Name:         name,
		Size:         int64(len(content)),
		LastModified: time.Now().UnixMilli(),
		Path:         path,
	}
}

// uploadServer answers /api/upload by echoing a record per received file
// and tracks how many files arrived per request.
func uploadServer(t *testing.T, requests *atomic.Int64, filesPerRequest *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/upload":
			requests.Add(1)
			require.NoError(t, r.ParseMultipartForm(32<<20))
			headers := r.MultipartForm.File["images"]
			*filesPerRequest = append(*filesPerRequest, len(headers))

			type rec struct {
				Name     string `json:"name"`
				URL      string `json:"url"`
				Size     int64  `json:"size"`
				MimeType string `json:"mimetype"`
			}
			out := struct {
				Success bool  `json:"success"`
				Files   []rec `json:"files"`
			}{Success: true}
			for _, fh := range headers {
				out.Files = append(out.Files, rec{
					Name: fh.Filename,
					URL:  "/images/client/" + fh.Filename,
					Size: fh.Size,
				})
			}
			json.NewEncoder(w).Encode(out)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestAddFilesDedup(t *testing.T) {
	t.Parallel()

	s := NewSession("http://localhost", "key", "")
	f := PendingFile{Name: "a.png", Size: 10, LastModified: 111, Path: "/tmp/a.png"}

	assert.Equal(t, 1, s.AddFiles(f))
	assert.Equal(t, 0, s.AddFiles(f), "same dedup key must not queue twice")
	assert.Len(t, s.Pending(), 1)

	// Differing in any key component queues a new entry.
	assert.Equal(t, 1, s.AddFiles(PendingFile{Name: "a.png", Size: 11, LastModified: 111}))
	assert.Equal(t, 1, s.AddFiles(PendingFile{Name: "a.png", Size: 10, LastModified: 222}))
	assert.Equal(t, 1, s.AddFiles(PendingFile{Name: "b.png", Size: 10, LastModified: 111}))
	assert.Len(t, s.Pending(), 4)

	// Dedup also applies within a single AddFiles call.
	s2 := NewSession("http://localhost", "key", "")
	assert.Equal(t, 1, s2.AddFiles(f, f, f))
}

func TestUploadSuccessMovesQueueToHistory(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	var perRequest []int
	srv := uploadServer(t, &requests, &perRequest)
	defer srv.Close()

	statePath := filepath.Join(t.TempDir(), "state.json")
	s := NewSession(srv.URL, "key", statePath)
	s.AddFiles(tempImage(t, "one.png", "aaaa"), tempImage(t, "two.png", "bbbbbb"))

	records, err := s.Upload(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Empty(t, s.Pending(), "uploaded files leave the queue")
	assert.Len(t, s.History(), 2)
	for _, rec := range s.History() {
		assert.NotEmpty(t, rec.UploadTime, "records are stamped when the server omits uploadTime")
	}
	assert.False(t, s.Uploading())

	// State was persisted.
	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var st persistedState
	require.NoError(t, json.Unmarshal(raw, &st))
	assert.Len(t, st.History, 2)
	assert.Equal(t, "key", st.APIKey)
}

func TestUploadFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"success":false,"error":"upload failed"}`)
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.history = []ImageRecord{{Name: "known-good.png", UploadTime: "2026-01-01T00:00:00Z"}}
	s.AddFiles(tempImage(t, "one.png", "aaaa"))

	_, err := s.Upload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed")

	assert.Len(t, s.Pending(), 1, "queue untouched on failure")
	require.Len(t, s.History(), 1, "cache untouched on failure")
	assert.Equal(t, "known-good.png", s.History()[0].Name)
	assert.False(t, s.Uploading())
}

func TestUploadSingleFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		fmt.Fprint(w, `{"success":true,"files":[]}`)
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.AddFiles(tempImage(t, "one.png", "aaaa"))

	done := make(chan error, 1)
	go func() {
		_, err := s.Upload(context.Background())
		done <- err
	}()

	<-started
	_, err := s.Upload(context.Background())
	assert.ErrorIs(t, err, ErrBusy, "second trigger while in flight reports busy")

	close(release)
	require.NoError(t, <-done)

	// After resolution the flag clears; a new trigger is allowed again
	// (and fails with ErrNoFiles since the queue is empty).
	_, err = s.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUploadEmptyQueue(t *testing.T) {
	t.Parallel()

	s := NewSession("http://localhost", "key", "")
	_, err := s.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUploadRequiresConfiguration(t *testing.T) {
	t.Parallel()

	s := NewSession("", "", "")
	s.AddFiles(PendingFile{Name: "a.png", Size: 1})
	_, err := s.Upload(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAutoUploadSendsWholeQueueInOneRequest(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	var perRequest []int
	srv := uploadServer(t, &requests, &perRequest)
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.SetAutoUpload(true)
	s.AddFiles(
		tempImage(t, "one.png", "a"),
		tempImage(t, "two.png", "bb"),
		tempImage(t, "three.png", "ccc"),
	)

	records, err := s.Upload(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Equal(t, int64(1), requests.Load(), "one batched request, not one per file")
	require.Len(t, perRequest, 1)
	assert.Equal(t, 3, perRequest[0])
	assert.Empty(t, s.Pending())
}

func TestRefreshReplacesCacheWithServerTruth(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/images", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("X-API-Key"))
		fmt.Fprint(w, `{"success":true,"files":[
			{"name":"server-1.png","url":"/images/c/server-1.png","size":5,"uploadTime":"2026-02-01T10:00:00Z"},
			{"name":"server-2.png","url":"/images/c/server-2.png","size":7,"uploadTime":"2026-03-01T10:00:00Z"}
		]}`)
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.history = []ImageRecord{
		{Name: "local-only.png", UploadTime: "2026-04-01T00:00:00Z"},
	}

	records, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Local-only entry discarded, server order applied (newest first).
	assert.Equal(t, "server-2.png", records[0].Name)
	assert.Equal(t, "server-1.png", records[1].Name)
}

func TestDeleteImageRefreshesOnSuccess(t *testing.T) {
	t.Parallel()

	var deleted, listed atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete:
			assert.Equal(t, "/api/images/gone.png", r.URL.Path)
			deleted.Add(1)
			fmt.Fprint(w, `{"success":true}`)
		case r.Method == http.MethodGet:
			listed.Add(1)
			fmt.Fprint(w, `{"success":true,"files":[]}`)
		}
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.history = []ImageRecord{{Name: "gone.png"}}

	require.NoError(t, s.DeleteImage(context.Background(), "gone.png"))
	assert.Equal(t, int64(1), deleted.Load())
	assert.Equal(t, int64(1), listed.Load(), "delete success triggers the refresh path")
	assert.Empty(t, s.History())
}

func TestDeleteImageFailureLeavesCache(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"error":"file not found"}`)
	}))
	defer srv.Close()

	s := NewSession(srv.URL, "key", "")
	s.history = []ImageRecord{{Name: "still-here.png"}}

	err := s.DeleteImage(context.Background(), "still-here.png")
	require.Error(t, err)
	assert.Len(t, s.History(), 1)
}

func TestSortHistoryOrderingInvariant(t *testing.T) {
	t.Parallel()

	records := []ImageRecord{
		{Name: "alpha.png", UploadTime: "2026-01-01T00:00:00Z"},
		{Name: "beta.png", UploadTime: "2026-02-01T00:00:00Z"},
		{Name: "old.png", UploadTime: "2025-06-01T00:00:00Z"},
	}
	sortHistory(records)
	assert.Equal(t, []string{"beta.png", "alpha.png", "old.png"}, recordNames(records))
}

func TestSortHistoryTieBreakByNameDescending(t *testing.T) {
	t.Parallel()

	// Identical timestamps.
	records := []ImageRecord{
		{Name: "aaa.png", UploadTime: "2026-01-01T00:00:00Z"},
		{Name: "zzz.png", UploadTime: "2026-01-01T00:00:00Z"},
	}
	sortHistory(records)
	assert.Equal(t, []string{"zzz.png", "aaa.png"}, recordNames(records))

	// Absent/unparseable timestamps collapse to zero and fall back to name.
	records = []ImageRecord{
		{Name: "m.png"},
		{Name: "z.png", UploadTime: "not-a-time"},
		{Name: "a.png", UploadTime: ""},
	}
	sortHistory(records)
	assert.Equal(t, []string{"z.png", "m.png", "a.png"}, recordNames(records))
}

func TestRecordTimestampFallbackChain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), recordTimestamp(ImageRecord{}))
	assert.Equal(t, int64(0), recordTimestamp(ImageRecord{UploadTime: "garbage"}))
	assert.Equal(t, int64(1700000000000), recordTimestamp(ImageRecord{UploadTime: "1700000000000"}))

	ts := recordTimestamp(ImageRecord{UploadTime: "2026-01-02T03:04:05Z"})
	want, _ := time.Parse(time.RFC3339, "2026-01-02T03:04:05Z")
	assert.Equal(t, want.UnixMilli(), ts)
}

func TestLoadStateRoundTrip(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "state.json")
	s := NewSession("http://one.example", "key-1", statePath)
	s.SetAutoUpload(true)
	s.history = []ImageRecord{{Name: "a.png", UploadTime: "2026-01-01T00:00:00Z"}}
	s.persist()

	restored := NewSession("http://one.example", "", statePath)
	require.NoError(t, restored.LoadState())
	assert.Len(t, restored.History(), 1)

	restored.mu.Lock()
	assert.Equal(t, "key-1", restored.apiKey)
	assert.True(t, restored.autoUpload)
	restored.mu.Unlock()
}

func recordNames(records []ImageRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}
