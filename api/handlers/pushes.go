package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/tracing"
)

var (
	errPushLogDisabled = errors.New("push log is not configured")
	errPushNotFound    = errors.New("push not found")
)

// PushesHandler exposes the server-side push log written by the broker
// listener.
type PushesHandler struct {
	pushes interfaces.DataLayerPushRepository
}

func NewPushesHandler(pushes interfaces.DataLayerPushRepository) *PushesHandler {
	return &PushesHandler{pushes: pushes}
}

func (h *PushesHandler) Count() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "PushesHandler.Count")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if h.pushes == nil {
			respondWithError(c, span, http.StatusNotFound, "Push log disabled", errPushLogDisabled)
			return
		}

		formID := c.Param("formId")
		count, err := h.pushes.CountByFormID(ctx, formID)
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to count pushes", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"formId": formID, "count": count})
	}
}

func (h *PushesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "PushesHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		if h.pushes == nil {
			respondWithError(c, span, http.StatusNotFound, "Push log disabled", errPushLogDisabled)
			return
		}

		push, err := h.pushes.GetBySubmissionID(ctx, c.Param("submissionId"))
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to load push", err)
			return
		}
		// a submission id from another form is treated as unknown
		if push == nil || push.FormID != c.Param("formId") {
			respondWithError(c, span, http.StatusNotFound, "Push not found", errPushNotFound)
			return
		}
		c.JSON(http.StatusOK, push)
	}
}
