// Package handlers provides HTTP handlers for the diploma generator.
//
// This package contains the upload form, the form submission that answers
// with a zip archive or a redirect carrying a flash message, and the JSON
// flavoured API endpoint for scripted clients.
//
// Example usage:
//
//	h := handlers.NewAPIHandler(sessionManager, processor, handlers.Options{UploadDir: "uploads"})
//	r := chi.NewRouter()
//	r.Get("/", h.Index)
//	r.Post("/", h.Generate)
//
// All handlers are designed to be used with the chi router.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/niklasemond/diploma-generator-2/internal/batch"
	"github.com/niklasemond/diploma-generator-2/internal/logging"
	"github.com/niklasemond/diploma-generator-2/internal/pdf"
	"github.com/niklasemond/diploma-generator-2/internal/session"
	"github.com/niklasemond/diploma-generator-2/internal/utils"
	"github.com/niklasemond/diploma-generator-2/internal/web"
)

var (
	errFilesRequired       = fmt.Errorf("%w: template and names files are required", batch.ErrMissingInput)
	errPlaceholderRequired = fmt.Errorf("%w: placeholder text is required", batch.ErrMissingInput)
	errNoSelectedFile      = fmt.Errorf("%w: no selected file", batch.ErrMissingInput)
)

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	ArchiveName    string
}

type APIHandler struct {
	SessionManager *session.SessionManager
	Processor      *batch.Processor
	UploadDir      string
	MaxUploadBytes int64
	ArchiveName    string
}

func NewAPIHandler(sm *session.SessionManager, processor *batch.Processor, opts Options) *APIHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}
	if opts.ArchiveName == "" {
		opts.ArchiveName = "diplomas.zip"
	}
	return &APIHandler{
		SessionManager: sm,
		Processor:      processor,
		UploadDir:      opts.UploadDir,
		MaxUploadBytes: opts.MaxUploadBytes,
		ArchiveName:    opts.ArchiveName,
	}
}

// Index renders the upload form with any pending flash messages.
func (h *APIHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := web.IndexData{
		Messages:    h.SessionManager.PopMessages(r),
		MaxUploadMB: h.MaxUploadBytes >> 20,
	}
	if err := web.RenderIndex(w, data); err != nil {
		logging.Error("render index failed", "error", err)
	}
}

// Generate handles the form submission. Failures are flashed and redirected
// back to the form.
func (h *APIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	placeholder, err := h.generate(w, r)
	if err == nil {
		return
	}
	msg := userMessage(err, placeholder)
	logging.Warn("batch rejected", "reason", msg, "error", err)
	h.SessionManager.Flash(w, r, msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CreateBatch godoc
// @Summary      Generate documents
// @Description  Replaces the placeholder on page one of the template with every name and returns the documents as a zip archive
// @Tags         batches
// @Accept       multipart/form-data
// @Produce      application/zip
// @Produce      json
// @Param        template     formData  file    true  "PDF template"
// @Param        names        formData  file    true  "Names, one per line (.txt)"
// @Param        placeholder  formData  string  true  "Placeholder text"
// @Success      200  {file}    file               "zip archive"
// @Failure      400  {object}  map[string]string  "{ error: string }"
// @Failure      413  {object}  map[string]string  "{ error: string }"
// @Failure      422  {object}  map[string]string  "{ error: string }"
// @Failure      500  {object}  map[string]string  "{ error: string }"
// @Router       /api/batches [post]
func (h *APIHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	placeholder, err := h.generate(w, r)
	if err == nil {
		return
	}
	status := statusFor(err)
	logging.Warn("batch rejected", "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": userMessage(err, placeholder)})
}

// Health godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string  "{ status: ok }"
// @Router       /healthz [get]
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// generate runs one batch and streams the archive on success. Nothing is
// written to w when it returns an error. All request files are removed
// before it returns.
func (h *APIHandler) generate(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("%w: %v", batch.ErrTooLarge, err)
		}
		return "", fmt.Errorf("%w: %v", errFilesRequired, err)
	}
	defer r.MultipartForm.RemoveAll()

	templateFile, templateHeader, err := r.FormFile("template")
	if err != nil {
		return "", errFilesRequired
	}
	defer templateFile.Close()
	namesFile, namesHeader, err := r.FormFile("names")
	if err != nil {
		return "", errFilesRequired
	}
	defer namesFile.Close()

	placeholder := strings.TrimSpace(r.FormValue("placeholder"))
	if placeholder == "" {
		return "", errPlaceholderRequired
	}
	if templateHeader.Filename == "" || namesHeader.Filename == "" {
		return placeholder, errNoSelectedFile
	}
	if !utils.AllowedExtension(templateHeader.Filename) || !utils.AllowedExtension(namesHeader.Filename) {
		return placeholder, batch.ErrFileType
	}

	rawNames, err := io.ReadAll(namesFile)
	if err != nil {
		return placeholder, fmt.Errorf("%w: read names: %v", batch.ErrProcessing, err)
	}
	names, err := batch.ParseNames(rawNames)
	if err != nil {
		return placeholder, err
	}

	scratch, err := os.MkdirTemp(h.UploadDir, "batch-")
	if err != nil {
		return placeholder, fmt.Errorf("%w: create scratch dir: %v", batch.ErrProcessing, err)
	}
	defer os.RemoveAll(scratch)

	template, err := saveUpload(templateFile, filepath.Join(scratch, utils.SanitizeFilename(templateHeader.Filename)))
	if err != nil {
		return placeholder, err
	}

	archivePath := filepath.Join(scratch, utils.SanitizeFilename(h.ArchiveName))
	archive, err := os.Create(archivePath)
	if err != nil {
		return placeholder, fmt.Errorf("%w: create archive: %v", batch.ErrProcessing, err)
	}
	defer archive.Close()

	job := batch.Job{
		Template:    template,
		Placeholder: placeholder,
		Names:       names,
		WorkDir:     scratch,
	}
	if _, err := h.Processor.Run(r.Context(), job, archive); err != nil {
		return placeholder, err
	}
	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return placeholder, fmt.Errorf("%w: rewind archive: %v", batch.ErrProcessing, err)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.ArchiveName))
	http.ServeContent(w, r, h.ArchiveName, time.Now(), archive)
	return placeholder, nil
}

// saveUpload copies an uploaded file to path and returns its content.
func saveUpload(file multipart.File, path string) ([]byte, error) {
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create file: %v", batch.ErrProcessing, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("%w: failed to save file: %v", batch.ErrProcessing, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read file: %v", batch.ErrProcessing, err)
	}
	return data, nil
}

// userMessage turns err into the text shown to the user.
func userMessage(err error, placeholder string) string {
	var nameErr *batch.NameError
	switch {
	case errors.Is(err, errFilesRequired):
		return "Both template and names files are required"
	case errors.Is(err, errPlaceholderRequired):
		return "Placeholder text is required"
	case errors.Is(err, batch.ErrMissingInput):
		return "No selected file"
	case errors.Is(err, batch.ErrTooLarge):
		return "File too large"
	case errors.Is(err, batch.ErrFileType):
		return "Invalid file type"
	case errors.Is(err, batch.ErrNoNames):
		return "The names file does not contain any names"
	case errors.Is(err, pdf.ErrPlaceholderNotFound):
		return fmt.Sprintf("Placeholder text '%s' not found in the template", placeholder)
	case errors.Is(err, pdf.ErrNoFontForText) && errors.As(err, &nameErr):
		return fmt.Sprintf("No installed font can draw the name %q, set FALLBACK_FONT to a TrueType font that covers it", nameErr.Name)
	case errors.As(err, &nameErr):
		return fmt.Sprintf("Error processing files: could not generate the document for %q", nameErr.Name)
	}
	return "Error processing files"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, batch.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, batch.ErrMissingInput),
		errors.Is(err, batch.ErrFileType),
		errors.Is(err, batch.ErrNoNames):
		return http.StatusBadRequest
	case errors.Is(err, pdf.ErrPlaceholderNotFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("write response failed", "error", err)
	}
}
