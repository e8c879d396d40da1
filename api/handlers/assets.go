package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/formlayer/assets"
	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
	"github.com/customeros/formlayer/services/delivery"
)

type AssetsHandler struct {
	cfg      *config.DataLayerConfig
	settings interfaces.FormSettingsService
}

func NewAssetsHandler(cfg *config.DataLayerConfig, settings interfaces.FormSettingsService) *AssetsHandler {
	if cfg == nil {
		cfg = &config.DataLayerConfig{}
	}
	return &AssetsHandler{cfg: cfg, settings: settings}
}

// Listener serves the browser listener with the namespace of the forms
// rendered on the page, passed as ?forms=1,2.
func (h *AssetsHandler) Listener() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "AssetsHandler.Listener")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		forms, err := h.settings.EventNames(ctx, utils.SplitCommaList(c.Query("forms")))
		if err != nil {
			// the listener still works without event names
			tracing.TraceErr(span, err)
			forms = map[string]string{}
		}

		script, err := assets.ListenerScript(assets.Namespace{
			AjaxURL:      h.cfg.AjaxURL,
			Forms:        forms,
			AjaxPatterns: h.cfg.AjaxURLPatterns,
			Version:      delivery.EnvelopeVersion,
		})
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to render listener", err)
			return
		}

		c.Header("Cache-Control", "public, max-age=300")
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(script))
	}
}
