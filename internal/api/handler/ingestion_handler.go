package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/ingestion"
	"loan-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

var allowedUploadExt = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true}

type IngestionHandler struct {
	service   ingestion.Service
	uploadDir string
	logger    *slog.Logger
}

func NewIngestionHandler(s ingestion.Service, uploadDir string, l *slog.Logger) *IngestionHandler {
	return &IngestionHandler{
		service:   s,
		uploadDir: uploadDir,
		logger:    l.With("component", "IngestionHandler"),
	}
}

// SubmitJob stores an uploaded spreadsheet and queues an ingestion job for it.
//
// @Summary Submit an ingestion job
// @Tags Ingestion
// @Accept multipart/form-data
// @Produce json
// @Param kind formData string true "customers or loans"
// @Param file formData file true ".xlsx or .csv file"
// @Success 202 {object} dto.JobAcceptedResponse "Job queued"
// @Failure 400 {object} dto.ErrorResponse "Invalid kind or file"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 503 {object} dto.ErrorResponse "Queue unavailable"
// @Router /ingestion/jobs [post]
// @Security BearerAuth
func (h *IngestionHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	kind, err := ingestion.ParseKind(r.FormValue("kind"))
	if err != nil {
		respondError(w, err)
		return
	}

	path, err := h.saveUpload(r, kind)
	if err != nil {
		respondError(w, err)
		return
	}

	req, err := h.service.Submit(r.Context(), kind, path)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			h.logger.WarnContext(r.Context(), "Failed to remove upload of rejected job", "path", path, "error", rmErr)
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, dto.NewJobAcceptedResponse(req))
}

func (h *IngestionHandler) saveUpload(r *http.Request, kind ingestion.Kind) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", badRequest(fmt.Errorf("file is required: %w", err))
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadExt[ext] {
		return "", fmt.Errorf("%w: unsupported file type %q", apperrors.ErrInvalidArgument, ext)
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	dst, err := os.CreateTemp(h.uploadDir, string(kind)+"-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	path, err := filepath.Abs(dst.Name())
	if err != nil {
		return dst.Name(), nil
	}
	h.logger.InfoContext(r.Context(), "Stored ingestion upload", "kind", string(kind), "path", path, "bytes", header.Size)
	return path, nil
}

// GetJob reports the current state of an ingestion job.
//
// @Summary Get ingestion job status
// @Tags Ingestion
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {object} ingestion.JobResult "Job status"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Job not found"
// @Router /ingestion/jobs/{jobID} [get]
// @Security BearerAuth
func (h *IngestionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	result, err := h.service.Status(r.Context(), jobID)
	if err != nil {
		if !errors.Is(err, ingestion.ErrJobNotFound) {
			h.logger.ErrorContext(r.Context(), "Failed to read job status", "jobID", jobID, "error", err)
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
