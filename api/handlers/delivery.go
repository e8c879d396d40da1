package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

type ConfirmationRequest struct {
	Message string `json:"message"`
}

// DeliveryHandler serves the hook points where the host hands a page or a
// response back to the browser. Lookup failures never fail the request: the
// host content is returned unchanged.
type DeliveryHandler struct {
	log      logger.Logger
	delivery interfaces.DeliveryService
}

func NewDeliveryHandler(log logger.Logger, delivery interfaces.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{log: log, delivery: delivery}
}

func (h *DeliveryHandler) AjaxResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DeliveryHandler.AjaxResponse")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var response map[string]any
		if err := c.ShouldBindJSON(&response); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		augmented, err := h.delivery.AugmentAjaxResponse(ctx, c.Param("formId"), utils.GetSessionKeyFromContext(ctx), response)
		if err != nil {
			tracing.TraceErr(span, err)
			h.log.Errorf("failed to augment ajax response for form %s: %v", c.Param("formId"), err)
		}
		c.JSON(http.StatusOK, augmented)
	}
}

func (h *DeliveryHandler) Confirmation() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DeliveryHandler.Confirmation")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request ConfirmationRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		message, err := h.delivery.ConfirmationScript(ctx, c.Param("formId"), utils.GetSessionKeyFromContext(ctx), request.Message)
		if err != nil {
			tracing.TraceErr(span, err)
			h.log.Errorf("failed to build confirmation script for form %s: %v", c.Param("formId"), err)
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

// Footer returns an HTML fragment for the page footer of the session.
func (h *DeliveryHandler) Footer() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetSessionKeyInContext(c.Request.Context(), c.Param("sessionKey"))
		span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryHandler.Footer")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		script, err := h.delivery.FooterScript(ctx, c.Param("sessionKey"))
		if err != nil {
			tracing.TraceErr(span, err)
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(script))
	}
}

func (h *DeliveryHandler) Sweep() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "DeliveryHandler.Sweep")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		result, err := h.delivery.Sweep(ctx)
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Sweep failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
