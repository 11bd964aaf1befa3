// Package images holds the tenant-scoped image endpoints: upload, list,
// delete. Every handler runs behind the API key middleware and operates
// only inside the verified client's storage namespace.
package images

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/easyimg/service/internal/middleware"
	"github.com/easyimg/service/internal/response"
	"github.com/easyimg/service/internal/storage"
)

// allowedMIMETypes is the upload allow-list. Validation is a MIME check at
// the transport layer, not pixel inspection; disallowed types never reach
// storage.
var allowedMIMETypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

// UploadField is the multipart field carrying image files.
const UploadField = "images"

// Handler holds HTTP handlers for tenant-scoped image operations.
type Handler struct {
	engine   storage.Engine
	maxFiles int
	maxSize  int64
}

// NewHandler creates an image Handler with the given upload limits.
func NewHandler(engine storage.Engine, maxFiles int, maxSize int64) *Handler {
	return &Handler{engine: engine, maxFiles: maxFiles, maxSize: maxSize}
}

// UploadedFile is the per-file metadata returned on upload.
type UploadedFile struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
}

type uploadResponse struct {
	Success bool           `json:"success"`
	Files   []UploadedFile `json:"files"`
}

// ListedFile is the per-file metadata returned on list.
type ListedFile struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	UploadTime string `json:"uploadTime"`
}

type listResponse struct {
	Success bool         `json:"success"`
	Files   []ListedFile `json:"files"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

// Upload godoc
//
//	@Summary		Upload images
//	@Description	Accepts up to 10 image files (JPEG, PNG, GIF, WebP, SVG) of at most 10 MiB each under the "images" multipart field. A single disallowed or oversized file rejects the whole request.
//	@Tags			images
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			images	formData	file	true	"Image files"
//	@Success		200		{object}	uploadResponse
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		401		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.ClientIDFromContext(r.Context())
	if clientID == "" {
		response.Unauthorized(w, "API key required")
		return
	}

	// Cap the request body: maxFiles files of maxSize each, plus headroom
	// for multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxFiles)*h.maxSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[UploadField]
	if len(headers) == 0 {
		response.BadRequest(w, "no files uploaded")
		return
	}
	if len(headers) > h.maxFiles {
		response.BadRequest(w, "too many files in one request")
		return
	}

	// Validate the whole batch before anything is written: one bad file
	// rejects the request and nothing reaches storage.
	for _, fh := range headers {
		ct := fh.Header.Get("Content-Type")
		if !allowedMIMETypes[ct] {
			response.BadRequest(w, "only image files are allowed (JPEG, PNG, GIF, WebP, SVG)")
			return
		}
		if fh.Size > h.maxSize {
			response.BadRequest(w, "file exceeds the maximum size")
			return
		}
	}

	uploaded := make([]UploadedFile, 0, len(headers))
	for _, fh := range headers {
		ct := fh.Header.Get("Content-Type")
		src, err := fh.Open()
		if err != nil {
			log.Printf("images: open multipart file %q: %v", fh.Filename, err)
			response.InternalError(w)
			return
		}

		storedName := storage.GenerateStoredName(fh.Filename)
		err = h.engine.Save(r.Context(), clientID, storedName, src, fh.Size, ct)
		src.Close()
		if err != nil {
			log.Printf("images: save %q for client %s: %v", storedName, clientID, err)
			response.InternalError(w)
			return
		}

		uploaded = append(uploaded, UploadedFile{
			Name:     fh.Filename,
			URL:      h.engine.PublicURL(clientID, storedName),
			Size:     fh.Size,
			MimeType: ct,
		})
	}

	response.OK(w, uploadResponse{Success: true, Files: uploaded})
}

// List godoc
//
//	@Summary		List uploaded images
//	@Description	Enumerates every image in the caller's namespace.
//	@Tags			images
//	@Produce		json
//	@Success		200	{object}	listResponse
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/images [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.ClientIDFromContext(r.Context())
	if clientID == "" {
		response.Unauthorized(w, "API key required")
		return
	}

	files, err := h.engine.List(r.Context(), clientID)
	if err != nil {
		log.Printf("images: list for client %s: %v", clientID, err)
		response.InternalError(w)
		return
	}

	listed := make([]ListedFile, 0, len(files))
	for _, f := range files {
		listed = append(listed, ListedFile{
			Name:       f.Name,
			URL:        h.engine.PublicURL(clientID, f.Name),
			Size:       f.Size,
			UploadTime: f.UploadTime.Format(time.RFC3339),
		})
	}

	response.OK(w, listResponse{Success: true, Files: listed})
}

// Delete godoc
//
//	@Summary		Delete an image
//	@Description	Removes one image from the caller's namespace. File names that resolve outside the namespace are rejected.
//	@Tags			images
//	@Produce		json
//	@Param			filename	path	string	true	"Stored file name"
//	@Success		200	{object}	deleteResponse
//	@Failure		400	{object}	response.ErrorBody
//	@Failure		401	{object}	response.ErrorBody
//	@Failure		404	{object}	response.ErrorBody
//	@Failure		500	{object}	response.ErrorBody
//	@Router			/images/{filename} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.ClientIDFromContext(r.Context())
	if clientID == "" {
		response.Unauthorized(w, "API key required")
		return
	}

	filename := chi.URLParam(r, "filename")
	if dec, decErr := url.PathUnescape(filename); decErr == nil {
		filename = dec
	}

	err := h.engine.Delete(r.Context(), clientID, filename)
	switch {
	case errors.Is(err, storage.ErrPathEscape), errors.Is(err, storage.ErrInvalidClientID):
		response.BadRequest(w, "invalid file name")
		return
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "file not found")
		return
	case err != nil:
		log.Printf("images: delete %q for client %s: %v", filename, clientID, err)
		response.InternalError(w)
		return
	}

	response.OK(w, deleteResponse{Success: true})
}
