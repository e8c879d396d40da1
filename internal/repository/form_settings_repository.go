package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

type formSettingsRepository struct {
	db *gorm.DB
}

func NewFormSettingsRepository(db *gorm.DB) interfaces.FormSettingsRepository {
	return &formSettingsRepository{db: db}
}

func (r *formSettingsRepository) GetByFormID(ctx context.Context, formID string) (*models.FormSettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsRepository.GetByFormID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagFormId(span, formID)

	var settings models.FormSettings
	err := r.db.WithContext(ctx).Where("form_id = ?", formID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &settings, nil
}

func (r *formSettingsRepository) Upsert(ctx context.Context, settings *models.FormSettings) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsRepository.Upsert")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if settings == nil || settings.FormID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	tracing.TagFormId(span, settings.FormID)

	now := utils.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "form_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"form_title", "event_name", "excluded_field_ids", "debug", "updated_at"}),
	}).Create(settings).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *formSettingsRepository) List(ctx context.Context) ([]*models.FormSettings, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "FormSettingsRepository.List")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var settings []*models.FormSettings
	if err := r.db.WithContext(ctx).Order("form_id").Find(&settings).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return settings, nil
}
