// Package capability issues and verifies self-contained API keys.
//
// A key is "<clientID>.<signature>" where the signature is an HMAC-SHA256
// tag over the client ID, hex-encoded. Verification is stateless: the server
// keeps no record of issued keys, only the signing secret.
package capability

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"regexp"
	"strings"
)

// ClientIDPattern matches a derived client identity: lowercase hex, 32-128
// chars. Anything else is rejected before any cryptographic work.
var ClientIDPattern = regexp.MustCompile(`^[a-f0-9]{32,128}$`)

// signaturePattern matches a hex-encoded HMAC-SHA256 tag.
var signaturePattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

var (
	// ErrIssuanceDisabled is returned by Issue when no API password is
	// configured and the server runs on an ephemeral secret.
	ErrIssuanceDisabled = errors.New("api key issuance is disabled")

	// ErrWrongPassword is returned by Issue on a password mismatch.
	ErrWrongPassword = errors.New("wrong password")

	// ErrInvalidClientID is returned when the client ID fails the pattern check.
	ErrInvalidClientID = errors.New("invalid client id")

	// ErrInvalidKey is the generic verification failure. Callers never learn
	// which part of the key was wrong.
	ErrInvalidKey = errors.New("invalid api key")
)

// Service signs and verifies API keys with a single secret.
type Service struct {
	secret    []byte
	issueable bool
	password  string
}

// NewService derives the signing secret from apiPassword. An empty password
// switches the service to ephemeral mode: a random secret is generated,
// issuance is disabled, and keys issued before a restart no longer verify.
func NewService(apiPassword string) *Service {
	if apiPassword == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("capability: generate ephemeral secret: %v", err)
		}
		log.Println("capability: no API_PASSWORD configured, using ephemeral secret (restart invalidates all issued keys)")
		return &Service{secret: secret}
	}

	sum := sha256.Sum256([]byte(apiPassword))
	return &Service{secret: sum[:], issueable: true, password: apiPassword}
}

// IssuanceEnabled reports whether Issue can ever succeed.
func (s *Service) IssuanceEnabled() bool {
	return s.issueable
}

// Issue exchanges the shared API password and a client ID for a signed key.
// The service keeps no record of what it issued.
func (s *Service) Issue(password, clientID string) (string, error) {
	if !s.issueable {
		return "", ErrIssuanceDisabled
	}
	if password != s.password {
		return "", ErrWrongPassword
	}
	if !ClientIDPattern.MatchString(clientID) {
		return "", ErrInvalidClientID
	}
	return clientID + "." + s.sign(clientID), nil
}

// Verify checks a presented key and recovers the client ID it was issued
// for. Every failure path returns ErrInvalidKey.
func (s *Service) Verify(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", ErrInvalidKey
	}
	clientID, sig := parts[0], parts[1]
	if !ClientIDPattern.MatchString(clientID) || !signaturePattern.MatchString(sig) {
		return "", ErrInvalidKey
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidKey
	}
	want, err := hex.DecodeString(s.sign(clientID))
	if err != nil {
		return "", ErrInvalidKey
	}
	if len(got) != len(want) {
		return "", ErrInvalidKey
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return "", ErrInvalidKey
	}
	return clientID, nil
}

func (s *Service) sign(clientID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(clientID))
	return hex.EncodeToString(mac.Sum(nil))
}
