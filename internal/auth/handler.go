// Package auth exposes the API key issuance endpoint.
package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/easyimg/service/internal/capability"
	"github.com/easyimg/service/internal/response"
)

// Handler holds the HTTP handler for API key issuance.
type Handler struct {
	caps *capability.Service
}

// NewHandler creates a new auth Handler.
func NewHandler(caps *capability.Service) *Handler {
	return &Handler{caps: caps}
}

type apiKeyRequest struct {
	Password string `json:"password"`
	ClientID string `json:"clientId"`
}

type apiKeyResponse struct {
	Success  bool   `json:"success"`
	APIKey   string `json:"apiKey"`
	ClientID string `json:"clientId"`
}

// IssueAPIKey godoc
//
//	@Summary		Issue a personal API key
//	@Description	Exchange the shared access password and a client identity for a signed API key. The server stores nothing; the key is verified cryptographically on every request.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		apiKeyRequest	true	"Password and client identity"
//	@Success		200		{object}	apiKeyResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Router			/auth/api-key [post]
func (h *Handler) IssueAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Password == "" {
		response.BadRequest(w, "password is required")
		return
	}
	if req.ClientID == "" {
		response.BadRequest(w, "clientId is required")
		return
	}

	key, err := h.caps.Issue(req.Password, req.ClientID)
	switch {
	case errors.Is(err, capability.ErrIssuanceDisabled):
		response.Unauthorized(w, "API key issuance is disabled on this server")
		return
	case errors.Is(err, capability.ErrWrongPassword):
		response.Unauthorized(w, "wrong password")
		return
	case errors.Is(err, capability.ErrInvalidClientID):
		response.BadRequest(w, "clientId must be 32-128 lowercase hex characters")
		return
	case err != nil:
		response.InternalError(w)
		return
	}

	response.OK(w, apiKeyResponse{Success: true, APIKey: key, ClientID: req.ClientID})
}
