package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/services/storage"
)

var errArchiveDisabled = errors.New("debug archive is not configured")

// DebugHandler reads back records archived for forms in debug mode.
type DebugHandler struct {
	archive interfaces.DebugArchiver
}

func NewDebugHandler(archive interfaces.DebugArchiver) *DebugHandler {
	return &DebugHandler{archive: archive}
}

func (h *DebugHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DebugHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if h.archive == nil {
			respondWithError(c, span, http.StatusNotFound, "Debug archive disabled", errArchiveDisabled)
			return
		}

		record, err := h.archive.Load(ctx, c.Param("formId"), c.Param("submissionId"))
		if err != nil {
			respondWithError(c, span, archiveStatus(err), "Failed to load debug record", err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func (h *DebugHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DebugHandler.Delete")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if h.archive == nil {
			respondWithError(c, span, http.StatusNotFound, "Debug archive disabled", errArchiveDisabled)
			return
		}

		if err := h.archive.Remove(ctx, c.Param("formId"), c.Param("submissionId")); err != nil {
			respondWithError(c, span, archiveStatus(err), "Failed to delete debug record", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func archiveStatus(err error) int {
	if errors.Is(err, storage.ErrInvalidSubmissionID) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
