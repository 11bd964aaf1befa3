package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clientA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	clientB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestDisk(t *testing.T) *Disk {
	t.Helper()
	d, err := NewDisk(t.TempDir(), "")
	require.NoError(t, err)
	return d
}

func TestDiskSaveAndList(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, clientA, "a.png", strings.NewReader("png-bytes"), 9, "image/png"))
	require.NoError(t, d.Save(ctx, clientA, "b.png", strings.NewReader("more-bytes"), 10, "image/png"))

	files, err := d.List(ctx, clientA)
	require.NoError(t, err)
	require.Len(t, files, 2)

	sizes := map[string]int64{}
	for _, f := range files {
		sizes[f.Name] = f.Size
		assert.False(t, f.UploadTime.IsZero())
	}
	assert.Equal(t, int64(9), sizes["a.png"])
	assert.Equal(t, int64(10), sizes["b.png"])
}

func TestDiskTenantIsolation(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, clientA, "only-a.png", strings.NewReader("x"), 1, "image/png"))

	files, err := d.List(ctx, clientB)
	require.NoError(t, err)
	assert.Empty(t, files)

	// Client B cannot delete client A's file by name.
	assert.ErrorIs(t, d.Delete(ctx, clientB, "only-a.png"), ErrNotFound)

	files, err = d.List(ctx, clientA)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDiskRejectsInvalidClientID(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	for _, id := range []string{"", "short", "ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ", "../escape"} {
		assert.ErrorIs(t, d.Save(ctx, id, "f.png", strings.NewReader("x"), 1, "image/png"), ErrInvalidClientID)
		_, err := d.List(ctx, id)
		assert.ErrorIs(t, err, ErrInvalidClientID)
		assert.ErrorIs(t, d.Delete(ctx, id, "f.png"), ErrInvalidClientID)
	}
}

func TestDiskDeleteTraversalRejectedBeforeFilesystem(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	// Plant a file outside the tenant directory; a traversal delete must
	// fail with ErrPathEscape even though the target exists.
	outside := filepath.Join(d.Root(), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep me"), 0o644))

	for _, name := range []string{
		"../victim.txt",
		"..",
		".",
		"",
		"sub/../../victim.txt",
		"/etc/passwd",
		"nested/file.png",
	} {
		err := d.Delete(ctx, clientA, name)
		assert.ErrorIs(t, err, ErrPathEscape, "name=%q", name)
	}

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the tenant dir must survive")
}

func TestDiskDeleteAndDoubleDelete(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, clientA, "gone.png", strings.NewReader("x"), 1, "image/png"))
	require.NoError(t, d.Delete(ctx, clientA, "gone.png"))
	assert.ErrorIs(t, d.Delete(ctx, clientA, "gone.png"), ErrNotFound)
}

func TestDiskConcurrentFirstUse(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			name := GenerateStoredName("race.png")
			errs <- d.Save(ctx, clientA, name, strings.NewReader("x"), 1, "image/png")
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	files, err := d.List(ctx, clientA)
	require.NoError(t, err)
	assert.Len(t, files, 8)
}

func TestDiskListAll(t *testing.T) {
	t.Parallel()

	d := newTestDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Save(ctx, clientA, "a1.png", strings.NewReader("x"), 1, "image/png"))
	require.NoError(t, d.Save(ctx, clientA, "a2.png", strings.NewReader("x"), 1, "image/png"))
	require.NoError(t, d.Save(ctx, clientB, "b1.png", strings.NewReader("x"), 1, "image/png"))

	// Stray files and non-identity directories at the root are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "stray.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(d.Root(), "not-an-identity"), 0o755))

	all, err := d.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	owners := map[string]int{}
	for _, f := range all {
		owners[f.ClientID]++
	}
	assert.Equal(t, 2, owners[clientA])
	assert.Equal(t, 1, owners[clientB])
}

func TestDiskPublicURL(t *testing.T) {
	t.Parallel()

	d, err := NewDisk(t.TempDir(), "https://img.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/images/"+clientA+"/x.png", d.PublicURL(clientA, "x.png"))

	rel := newTestDisk(t)
	assert.Equal(t, "/images/"+clientA+"/x.png", rel.PublicURL(clientA, "x.png"))
}

func TestGenerateStoredName(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := GenerateStoredName("photo.png")
		assert.True(t, strings.HasSuffix(name, "-photo.png"), "name=%q", name)
		assert.False(t, seen[name], "collision: %q", name)
		seen[name] = true
	}

	// Path components in the original name never survive.
	assert.True(t, strings.HasSuffix(GenerateStoredName("../../evil.png"), "-evil.png"))
	assert.True(t, strings.HasSuffix(GenerateStoredName(`..\..\evil.png`), "-evil.png"))
	assert.True(t, strings.HasSuffix(GenerateStoredName("/etc/passwd"), "-passwd"))
	assert.True(t, strings.HasSuffix(GenerateStoredName(""), "-file"))
	assert.True(t, strings.HasSuffix(GenerateStoredName(".."), "-file"))
}
