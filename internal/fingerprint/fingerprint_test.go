package fingerprint

import (
	"math"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexPattern = regexp.MustCompile(`^[a-f0-9]{32,128}$`)

func TestSHA256DeriverDeterministic(t *testing.T) {
	t.Parallel()

	d := SHA256Deriver{}
	signals := []string{"host", "linux", "amd64", "8", "alice", "UTC"}

	first := d.Derive(signals)
	second := d.Derive(signals)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.Regexp(t, hexPattern, first)

	changed := d.Derive([]string{"host", "linux", "amd64", "16", "alice", "UTC"})
	assert.NotEqual(t, first, changed)
}

func TestFallbackDeriverShape(t *testing.T) {
	t.Parallel()

	d := FallbackDeriver{}
	for _, signals := range [][]string{
		{},
		{""},
		{"host", "linux", "amd64", "8", "alice", "UTC"},
		{"another", "darwin", "arm64", "10", "bob", "CET"},
	} {
		id := d.Derive(signals)
		assert.Len(t, id, 64, "signals=%v", signals)
		assert.Regexp(t, hexPattern, id, "signals=%v", signals)
		assert.Equal(t, id, d.Derive(signals), "must be deterministic")
	}
}

func TestAbsHashMinInt32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(1)<<31, absHash(math.MinInt32))
	assert.Equal(t, int64(math.MaxInt32), absHash(math.MaxInt32))
	assert.Equal(t, int64(7), absHash(-7))
	assert.NotContains(t, strconv.FormatInt(absHash(math.MinInt32), 16), "-")
}

func TestClientIDMatchesIdentityPattern(t *testing.T) {
	t.Parallel()

	id := ClientID()
	assert.Regexp(t, hexPattern, id)
	assert.Equal(t, id, ClientID(), "stable within a session")
}
