// Package fingerprint derives a stable pseudo-identity from local
// environment signals. The result keys a storage namespace; it is not a
// secret and carries no uniqueness guarantee — collisions between devices
// are acceptable and merely merge their namespaces.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Deriver turns an ordered list of environment signals into a client ID.
type Deriver interface {
	Derive(signals []string) string
}

// SHA256Deriver is the default strategy: a hex SHA-256 digest of the
// signals joined with "|".
type SHA256Deriver struct{}

func (SHA256Deriver) Derive(signals []string) string {
	sum := sha256.Sum256([]byte(strings.Join(signals, "|")))
	return hex.EncodeToString(sum[:])
}

// FallbackDeriver is a non-cryptographic strategy for environments without
// a digest primitive: a 31-based rolling 32-bit hash, hex-padded to 32
// chars and doubled to 64. It has no collision resistance and must never
// back anything beyond a low-stakes pseudo-identity.
type FallbackDeriver struct{}

func (FallbackDeriver) Derive(signals []string) string {
	entropy := strings.Join(signals, "|")
	var h int32
	for _, c := range []byte(entropy) {
		h = h<<5 - h + int32(c)
	}
	padded := strconv.FormatInt(absHash(h), 16)
	for len(padded) < 32 {
		padded = "0" + padded
	}
	return (padded + padded)[:64]
}

// absHash widens before negating; negating math.MinInt32 in 32 bits stays
// negative and would leak a "-" into the hex encoding.
func absHash(h int32) int64 {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// Signals collects the local environment signals used for derivation:
// hostname, OS, architecture, logical CPU count, user, and timezone.
// Deterministic for a given machine and session.
func Signals() []string {
	hostname, _ := os.Hostname()
	zone, _ := time.Now().Zone()
	return []string{
		hostname,
		runtime.GOOS,
		runtime.GOARCH,
		strconv.Itoa(runtime.NumCPU()),
		os.Getenv("USER"),
		zone,
	}
}

// ClientID derives the default client identity for this machine.
func ClientID() string {
	return SHA256Deriver{}.Derive(Signals())
}
