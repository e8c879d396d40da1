package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/customeros/formlayer/api/errors"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
	"github.com/customeros/formlayer/internal/fieldmap"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

// FieldID accepts both numeric and string ids.
type FieldID string

func (id *FieldID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FieldID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "field id must be a string or a number")
	}
	*id = FieldID(n.String())
	return nil
}

type FieldRequest struct {
	ID    FieldID `json:"id"`
	Label string  `json:"label"`
	Type  string  `json:"type"`
	Value any     `json:"value"`
}

// SubmissionRequest is the "form submission completed" signal.
type SubmissionRequest struct {
	FormTitle string              `json:"formTitle"`
	EntryID   FieldID             `json:"entryId"`
	EntryMeta map[string]any      `json:"entryMeta"`
	Fields    []FieldRequest      `json:"fields"`
	Settings  *datalayer.Settings `json:"settings"`
	Ajax      bool                `json:"ajax"`
}

type SubmissionResponse struct {
	Origin     enum.SubmissionOrigin  `json:"origin"`
	SessionKey string                 `json:"sessionKey"`
	Record     *datalayer.EventRecord `json:"datalayer"`
	Version    int                    `json:"datalayer_version"`
}

type SubmissionsHandler struct {
	log       logger.Logger
	assembler interfaces.EventAssembler
	settings  interfaces.FormSettingsService
	delivery  interfaces.DeliveryService
}

func NewSubmissionsHandler(log logger.Logger, assembler interfaces.EventAssembler,
	settings interfaces.FormSettingsService, delivery interfaces.DeliveryService) *SubmissionsHandler {
	return &SubmissionsHandler{
		log:       log,
		assembler: assembler,
		settings:  settings,
		delivery:  delivery,
	}
}

// Submit assembles the Event Record of a completed submission and dispatches
// it to the delivery channels of its origin.
func (h *SubmissionsHandler) Submit() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "SubmissionsHandler.Submit")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		formID := c.Param("formId")
		sessionKey := utils.GetSessionKeyFromContext(ctx)

		var request SubmissionRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			respondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		errs := h.validateRequest(ctx, formID, &request)
		if errs.HasErrors() {
			tracing.TraceErr(span, errs)
			c.JSON(http.StatusBadRequest, errs)
			return
		}

		settings, storedTitle, err := h.settings.Resolve(ctx, formID, request.Settings)
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to load form settings", err)
			return
		}

		record, err := h.assembler.Assemble(ctx, datalayer.Submission{
			FormID:    formID,
			FormTitle: utils.FirstNotEmpty(request.FormTitle, storedTitle),
			EntryID:   string(request.EntryID),
			EntryMeta: request.EntryMeta,
			Fields:    request.fields(),
			Settings:  settings,
		})
		if err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to assemble event", err)
			return
		}

		origin := enum.OriginFullPage
		if request.Ajax || strings.EqualFold(c.GetHeader("X-Requested-With"), "XMLHttpRequest") {
			origin = enum.OriginAjax
		}

		if err := h.delivery.Dispatch(ctx, record, origin, sessionKey); err != nil {
			respondWithError(c, span, http.StatusInternalServerError, "Failed to store event", err)
			return
		}

		c.JSON(http.StatusCreated, SubmissionResponse{
			Origin:     origin,
			SessionKey: sessionKey,
			Record:     record,
			Version:    1,
		})
	}
}

func (h *SubmissionsHandler) validateRequest(ctx context.Context, formID string, request *SubmissionRequest) *custom_err.MultiErrors {
	span, _ := opentracing.StartSpanFromContext(ctx, "SubmissionsHandler.validateRequest")
	defer span.Finish()
	tracing.TagComponentRest(span)

	errs := custom_err.NewMultiErrors()

	if strings.TrimSpace(formID) == "" {
		errs.Add("formId", "please provide a form id", errors.New("form id is empty"))
	}

	seen := make(map[FieldID]struct{}, len(request.Fields))
	for _, field := range request.Fields {
		if strings.TrimSpace(string(field.ID)) == "" {
			errs.Add("fields", "every field needs an id", errors.New("field id is empty"))
			continue
		}
		if _, dup := seen[field.ID]; dup {
			errs.Add("fields", "field id "+string(field.ID)+" is repeated", errors.New("duplicate field id"))
		}
		seen[field.ID] = struct{}{}
	}

	return errs
}

func (r *SubmissionRequest) fields() []fieldmap.Field {
	fields := make([]fieldmap.Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, fieldmap.Field{
			ID:    string(f.ID),
			Label: f.Label,
			Type:  fieldmap.FieldType(f.Type),
			Value: f.Value,
		})
	}
	return fields
}

func respondWithError(c *gin.Context, span opentracing.Span, statusCode int, message string, err error) {
	tracing.TraceErr(span, err)
	c.JSON(statusCode, gin.H{"error": message, "details": err.Error()})
}
