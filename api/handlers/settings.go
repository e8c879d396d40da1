package handlers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/customeros/formlayer/api/errors"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

const maxEventNameLength = 255

var fieldIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type SettingsRequest struct {
	FormTitle        string `json:"formTitle"`
	EventName        string `json:"eventName"`
	ExcludedFieldIDs string `json:"excludedFieldIds"`
	Debug            bool   `json:"debug"`
}

type SettingsHandler struct {
	settings interfaces.FormSettingsService
}

func NewSettingsHandler(settings interfaces.FormSettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

func (h *SettingsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "SettingsHandler.Get")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		settings, err := h.settings.Get(ctx, c.Param("formId"))
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to load settings", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func (h *SettingsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "SettingsHandler.List")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		forms, err := h.settings.List(ctx)
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to list settings", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"forms": forms})
	}
}

func (h *SettingsHandler) Put() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "SettingsHandler.Put")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		var request SettingsRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		errs := h.validateRequest(ctx, &request)
		if errs.HasErrors() {
			tracing.TraceErr(span, errs)
			c.JSON(http.StatusBadRequest, errs)
			return
		}

		settings := &models.FormSettings{
			FormID:           c.Param("formId"),
			FormTitle:        strings.TrimSpace(request.FormTitle),
			EventName:        request.EventName,
			ExcludedFieldIDs: request.ExcludedFieldIDs,
			Debug:            request.Debug,
		}
		if err := h.settings.Save(ctx, settings); err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to save settings", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func (h *SettingsHandler) validateRequest(ctx context.Context, request *SettingsRequest) *custom_err.MultiErrors {
	span, _ := opentracing.StartSpanFromContext(ctx, "SettingsHandler.validateRequest")
	defer span.Finish()
	tracing.TagComponentRest(span)

	errs := custom_err.NewMultiErrors()

	if len(request.EventName) > maxEventNameLength {
		errs.Add("eventName", "event name is too long", errors.New("event name exceeds 255 characters"))
	}
	if strings.ContainsAny(strings.TrimSpace(request.EventName), " \t\n") {
		errs.Add("eventName", "event name cannot contain whitespace", errors.New("event name has whitespace"))
	}
	for _, id := range utils.SplitCommaList(request.ExcludedFieldIDs) {
		if !fieldIDPattern.MatchString(id) {
			errs.Add("excludedFieldIds", "invalid field id "+id, errors.New("invalid field id"))
		}
	}

	return errs
}
