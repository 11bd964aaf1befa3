// Package admin exposes the administrative surface: login, session check,
// and listing or deleting images across every client namespace.
package admin

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/easyimg/service/internal/response"
	"github.com/easyimg/service/internal/storage"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
	tokenTTL        = 12 * time.Hour
)

// Handler holds the administrative HTTP handlers.
type Handler struct {
	engine   storage.Engine
	password string // empty disables the admin surface
	secret   []byte
}

// NewHandler creates an admin Handler. The session-token signing secret is
// derived from the admin password, so tokens survive restarts as long as
// the password is unchanged. An empty password disables the surface and
// switches to a random ephemeral secret so no token can ever verify.
func NewHandler(engine storage.Engine, adminPassword string) *Handler {
	if adminPassword == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatalf("admin: generate ephemeral secret: %v", err)
		}
		return &Handler{engine: engine, secret: secret}
	}
	sum := sha256.Sum256([]byte("admin-session:" + adminPassword))
	return &Handler{engine: engine, password: adminPassword, secret: sum[:]}
}

// Secret returns the token signing secret, for wiring the admin middleware.
func (h *Handler) Secret() []byte {
	return h.secret
}

// Enabled reports whether an admin password is configured.
func (h *Handler) Enabled() bool {
	return h.password != ""
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type sessionResponse struct {
	Success bool `json:"success"`
}

// AdminFile is a stored file tagged with its owning client.
type AdminFile struct {
	ClientID   string `json:"clientId"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	UploadTime string `json:"uploadTime"`
}

// Pagination describes one page of the flattened admin listing.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type adminListResponse struct {
	Success    bool        `json:"success"`
	Files      []AdminFile `json:"files"`
	Pagination Pagination  `json:"pagination"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Exchange the admin password for a session token.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Admin password"
//	@Success		200		{object}	loginResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Router			/admin/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if !h.Enabled() {
		response.Unauthorized(w, "admin access is disabled on this server")
		return
	}
	if req.Password != h.password {
		response.Unauthorized(w, "wrong password")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString(h.secret)
	if err != nil {
		log.Printf("admin: sign session token: %v", err)
		response.InternalError(w)
		return
	}

	response.OK(w, loginResponse{Success: true, Token: signed})
}

// Session godoc
//
//	@Summary	Check admin session
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	sessionResponse
//	@Failure	401	{object}	response.ErrorBody
//	@Router		/admin/session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	response.OK(w, sessionResponse{Success: true})
}

// ListImages godoc
//
//	@Summary		List images across all clients
//	@Description	Flattens every client namespace into one newest-first collection and returns the requested page.
//	@Tags			admin
//	@Produce		json
//	@Param			page		query		int	false	"1-indexed page"	default(1)
//	@Param			pageSize	query		int	false	"Page size"		default(24)
//	@Success		200			{object}	adminListResponse
//	@Failure		401			{object}	response.ErrorBody
//	@Failure		500			{object}	response.ErrorBody
//	@Router			/admin/images [get]
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "pageSize", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	all, err := h.engine.ListAll(r.Context())
	if err != nil {
		log.Printf("admin: list all images: %v", err)
		response.InternalError(w)
		return
	}

	// Deterministic newest-first ordering across clients.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].UploadTime.Equal(all[j].UploadTime) {
			return all[i].UploadTime.After(all[j].UploadTime)
		}
		if all[i].Name != all[j].Name {
			return all[i].Name > all[j].Name
		}
		return all[i].ClientID > all[j].ClientID
	})

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	files := make([]AdminFile, 0, end-start)
	for _, f := range all[start:end] {
		files = append(files, AdminFile{
			ClientID:   f.ClientID,
			Name:       f.Name,
			URL:        h.engine.PublicURL(f.ClientID, f.Name),
			Size:       f.Size,
			UploadTime: f.UploadTime.Format(time.RFC3339),
		})
	}

	response.OK(w, adminListResponse{
		Success: true,
		Files:   files,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// DeleteImage godoc
//
//	@Summary		Delete any client's image
//	@Tags			admin
//	@Produce		json
//	@Param			clientId	path	string	true	"Owning client identity"
//	@Param			filename	path	string	true	"Stored file name"
//	@Success		200	{object}	deleteResponse
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/admin/images/{clientId}/{filename} [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	filename := chi.URLParam(r, "filename")
	if dec, decErr := url.PathUnescape(filename); decErr == nil {
		filename = dec
	}

	err := h.engine.Delete(r.Context(), clientID, filename)
	switch {
	case errors.Is(err, storage.ErrInvalidClientID):
		response.BadRequest(w, "invalid client id")
		return
	case errors.Is(err, storage.ErrPathEscape):
		response.BadRequest(w, "invalid file name")
		return
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "file not found")
		return
	case err != nil:
		log.Printf("admin: delete %s/%s: %v", clientID, filename, err)
		response.InternalError(w)
		return
	}

	response.OK(w, deleteResponse{Success: true})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
