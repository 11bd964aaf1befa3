package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyimg/service/internal/capability"
)

func post(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/api-key", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.IssueAPIKey(rec, req)
	return rec
}

func TestIssueAPIKeySuccess(t *testing.T) {
	t.Parallel()

	caps := capability.NewService("pw")
	h := NewHandler(caps)

	sum := sha256.Sum256([]byte("my-device"))
	clientID := hex.EncodeToString(sum[:])

	rec := post(t, h, fmt.Sprintf(`{"password":"pw","clientId":%q}`, clientID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Success  bool   `json:"success"`
		APIKey   string `json:"apiKey"`
		ClientID string `json:"clientId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.Equal(t, clientID, out.ClientID)

	// The returned key verifies back to the same identity.
	got, err := caps.Verify(out.APIKey)
	require.NoError(t, err)
	assert.Equal(t, clientID, got)
}

func TestIssueAPIKeyRejections(t *testing.T) {
	t.Parallel()

	h := NewHandler(capability.NewService("pw"))
	validID := strings.Repeat("ab", 16)

	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing password", fmt.Sprintf(`{"clientId":%q}`, validID), http.StatusBadRequest},
		{"missing clientId", `{"password":"pw"}`, http.StatusBadRequest},
		{"wrong password", fmt.Sprintf(`{"password":"nope","clientId":%q}`, validID), http.StatusUnauthorized},
		{"malformed clientId", `{"password":"pw","clientId":"XYZ"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := post(t, h, tc.body)
		assert.Equal(t, tc.code, rec.Code, tc.name)
		assert.Contains(t, rec.Body.String(), `"success":false`, tc.name)
	}
}

func TestIssueAPIKeyDisabledWithoutPassword(t *testing.T) {
	t.Parallel()

	h := NewHandler(capability.NewService(""))
	rec := post(t, h, fmt.Sprintf(`{"password":"whatever","clientId":%q}`, strings.Repeat("ab", 16)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "disabled")
}
