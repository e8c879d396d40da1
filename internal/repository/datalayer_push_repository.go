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

type dataLayerPushRepository struct {
	db *gorm.DB
}

func NewDataLayerPushRepository(db *gorm.DB) interfaces.DataLayerPushRepository {
	return &dataLayerPushRepository{db: db}
}

func (r *dataLayerPushRepository) Record(ctx context.Context, push *models.DataLayerPush) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DataLayerPushRepository.Record")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if push == nil || push.SubmissionID == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return false, ErrInvalidInput
	}
	tracing.TagEntity(span, push.SubmissionID)

	if push.PushedAt.IsZero() {
		push.PushedAt = utils.Now()
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "submission_id"}}, DoNothing: true}).
		Create(push)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *dataLayerPushRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*models.DataLayerPush, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DataLayerPushRepository.GetBySubmissionID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, submissionID)

	var push models.DataLayerPush
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&push).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &push, nil
}

func (r *dataLayerPushRepository) CountByFormID(ctx context.Context, formID string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DataLayerPushRepository.CountByFormID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagFormId(span, formID)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.DataLayerPush{}).Where("form_id = ?", formID).Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}
