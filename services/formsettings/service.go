package formsettings

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/config"
	formlayer_errors "github.com/customeros/formlayer/errors"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

type Service struct {
	cfg  *config.DataLayerConfig
	repo interfaces.FormSettingsRepository
}

func NewService(cfg *config.DataLayerConfig, repo interfaces.FormSettingsRepository) *Service {
	if cfg == nil {
		cfg = &config.DataLayerConfig{}
	}
	return &Service{cfg: cfg, repo: repo}
}

// Get returns the stored settings of formID, or the defaults when the form
// was never configured.
func (s *Service) Get(ctx context.Context, formID string) (*models.FormSettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsService.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFormId(span, formID)

	if formID == "" {
		return nil, formlayer_errors.ErrFormIDRequired
	}

	settings, err := s.repo.GetByFormID(ctx, formID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load form settings")
	}
	if settings == nil {
		settings = &models.FormSettings{FormID: formID}
	}
	return settings, nil
}

func (s *Service) Save(ctx context.Context, settings *models.FormSettings) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsService.Save")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if settings == nil || settings.FormID == "" {
		return formlayer_errors.ErrFormIDRequired
	}
	tracing.TagFormId(span, settings.FormID)

	settings.EventName = strings.TrimSpace(settings.EventName)
	settings.ExcludedFieldIDs = utils.SliceToString(utils.SplitCommaList(settings.ExcludedFieldIDs))

	if err := s.repo.Upsert(ctx, settings); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to save form settings")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.FormSettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsService.List")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	list, err := s.repo.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list form settings")
	}
	if list == nil {
		list = []*models.FormSettings{}
	}
	return list, nil
}

func (s *Service) Resolve(ctx context.Context, formID string, override *datalayer.Settings) (datalayer.Settings, string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsService.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	stored, err := s.Get(ctx, formID)
	if err != nil {
		tracing.TraceErr(span, err)
		return datalayer.Settings{}, "", err
	}

	resolved := datalayer.Settings{
		EventName:        stored.EventName,
		ExcludedFieldIDs: stored.ExcludedFieldIDs,
		Debug:            stored.Debug,
	}
	if override != nil {
		if strings.TrimSpace(override.EventName) != "" {
			resolved.EventName = override.EventName
		}
		if strings.TrimSpace(override.ExcludedFieldIDs) != "" {
			resolved.ExcludedFieldIDs = override.ExcludedFieldIDs
		}
		resolved.Debug = resolved.Debug || override.Debug
	}
	return resolved, stored.FormTitle, nil
}

// EventNames maps each form id to the event name its records will carry.
func (s *Service) EventNames(ctx context.Context, formIDs []string) (map[string]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsService.EventNames")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	names := make(map[string]string, len(formIDs))
	for _, id := range formIDs {
		if id == "" {
			continue
		}
		settings, err := s.Get(ctx, id)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		names[id] = datalayer.Settings{EventName: settings.EventName}.ResolvedEventName(s.cfg.DefaultEventName)
	}
	return names, nil
}
