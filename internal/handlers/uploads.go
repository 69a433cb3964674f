package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/internal/web"
)

const multipartMemory = 8 << 20

// UploadOptions tunes the dashboard and upload endpoints.
type UploadOptions struct {
	RecentLimit       int
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// UploadHandler serves the dashboard, upload and download endpoints.
type UploadHandler struct {
	*Pages
	uploads *services.UploadService
	opts    UploadOptions
}

// UploadRouter registers the authenticated upload routes.
func UploadRouter(r chi.Router, pages *Pages, uploads *services.UploadService, opts UploadOptions) {
	handler := &UploadHandler{Pages: pages, uploads: uploads, opts: opts}

	r.Group(func(r chi.Router) {
		r.Use(pages.RequireAuth)
		r.Get("/dashboard", handler.Dashboard)
		r.Post("/upload", handler.Upload)
		r.Get("/uploads/{storedName}", handler.Download)
	})
}

// Dashboard shows the upload form and the most recent uploads.
func (h *UploadHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	view := web.DashboardView{
		Accept:         strings.Join(h.opts.AllowedExtensions, ","),
		MaxUploadMB:    h.opts.MaxUploadBytes >> 20,
		CanManageUsers: services.RequireRole(user, userAdminRoles...) == nil,
	}

	items, err := h.uploads.ListRecent(r.Context(), h.opts.RecentLimit)
	if err != nil {
		h.logger(r).Error().Err(err).Msg("failed to list uploads")
		session.FromContext(r.Context()).AddFlash(session.FlashError, msgUnexpected)
	}
	for _, item := range items {
		view.Uploads = append(view.Uploads, web.UploadRow{
			ID:           item.ID,
			OriginalName: item.OriginalName,
			StoredName:   item.StoredName,
			Uploader:     item.UploaderUsername,
			UploadedAt:   formatTime(item.UploadedAt),
			Notes:        item.Notes,
		})
	}

	h.render(w, r, web.PageDashboard, "Sistema local RRHH", view)
}

// Upload accepts a spreadsheet from the dashboard form.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.flashRedirect(w, r, session.FlashError, msgUploadTooLarge, "/dashboard")
			return
		}
		h.flashRedirect(w, r, session.FlashError, msgNoFile, "/dashboard")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.flashRedirect(w, r, session.FlashError, msgNoFile, "/dashboard")
		return
	}
	defer file.Close()

	upload, err := h.uploads.Accept(r.Context(), services.UploadInput{
		Filename: header.Filename,
		File:     file,
		Size:     header.Size,
		Notes:    r.FormValue("notes"),
		Uploader: *user,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoFileSelected):
			h.flashRedirect(w, r, session.FlashError, msgNoFile, "/dashboard")
		case errors.Is(err, services.ErrUnsupportedFormat):
			h.flashRedirect(w, r, session.FlashError, msgUnsupportedFormat, "/dashboard")
		case errors.Is(err, store.ErrForeignKeyViolation):
			// The uploader disappeared between RequireAuth and the insert.
			h.fail(w, r, err, "/login")
		default:
			h.fail(w, r, err, "/dashboard")
		}
		return
	}

	h.logger(r).Info().
		Int("upload_id", upload.ID).
		Int("user_id", user.ID).
		Str("stored_name", upload.StoredName).
		Msg("upload recorded")
	h.flashRedirect(w, r, session.FlashSuccess, msgUploadOK, "/dashboard")
}

// Download streams a stored artifact as an attachment.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.uploads.Fetch(r.Context(), chi.URLParam(r, "storedName"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPathTraversalRejected):
			h.logger(r).Warn().Str("path", r.URL.Path).Msg("download name rejected")
			h.flashRedirect(w, r, session.FlashError, msgInvalidName, "/dashboard")
		case errors.Is(err, services.ErrArtifactNotFound):
			h.flashRedirect(w, r, session.FlashError, msgArtifactNotFound, "/dashboard")
		default:
			h.fail(w, r, err, "/dashboard")
		}
		return
	}
	defer artifact.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Upload.OriginalName})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Upload.StoredName})
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, artifact.Body); err != nil {
		h.logger(r).Warn().Err(err).Str("stored_name", artifact.Upload.StoredName).Msg("download interrupted")
	}
}
