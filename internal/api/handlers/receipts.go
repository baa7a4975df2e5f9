package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/ocr"
	"github.com/eshaffer321/ticketsplit-backend/internal/api/dto"
	"github.com/eshaffer321/ticketsplit-backend/internal/application/service"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/assignment"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/splitter"
)

// ReceiptService is the part of the application service the handlers use.
type ReceiptService interface {
	Process(ctx context.Context, up service.Upload) (*receipt.Receipt, error)
	Get(ctx context.Context, id string) (*receipt.Receipt, error)
	Split(ctx context.Context, id string, assignments assignment.Assignments) (*splitter.Result, error)
}

// ReceiptsHandler handles upload, lookup and split requests.
type ReceiptsHandler struct {
	*Base
	svc            ReceiptService
	maxUploadBytes int64
}

// NewReceiptsHandler creates a receipts handler. maxUploadBytes <= 0 means no limit.
func NewReceiptsHandler(svc ReceiptService, maxUploadBytes int64, logger *slog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		Base:           NewBase(logger),
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload handles POST /receipts/upload.
func (h *ReceiptsHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(c, http.StatusRequestEntityTooLarge,
				dto.ValidationError(fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes)))
			return
		}
		h.WriteError(c, http.StatusUnprocessableEntity, dto.ValidationError("multipart field 'file' is required"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", "error", err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
		return
	}

	r, err := h.svc.Process(c.Request.Context(), service.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.ToReceiptResponse(r))
}

// Get handles GET /receipts/{id}.
func (h *ReceiptsHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.ToReceiptResponse(r))
}

// Split handles POST /receipts/{id}/split.
func (h *ReceiptsHandler) Split(c *gin.Context) {
	var req dto.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid split request: "+err.Error()))
		return
	}

	res, err := h.svc.Split(c.Request.Context(), c.Param("id"), req.UserItemAssignments)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.ToSplitResponse(res))
}

func (h *ReceiptsHandler) writeServiceError(c *gin.Context, err error) {
	var unknown *service.UnknownItemError

	switch {
	case errors.Is(err, service.ErrReceiptNotFound):
		h.WriteError(c, http.StatusNotFound, dto.NotFoundError("receipt"))
	case errors.Is(err, service.ErrNotAnImage):
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
	case errors.Is(err, ocr.ErrInvalidImage):
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("file could not be decoded as an image"))
	case errors.Is(err, service.ErrNoItems), errors.Is(err, service.ErrNoAssignments):
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
	case errors.As(err, &unknown):
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(unknown.Error()))
	case errors.Is(err, service.ErrExtraction):
		h.WriteError(c, http.StatusBadGateway, dto.UpstreamError())
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		_ = c.Error(err)
		h.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}
