package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

type optionRepository struct {
	db *gorm.DB
}

func NewOptionRepository(db *gorm.DB) interfaces.OptionRepository {
	return &optionRepository{db: db}
}

func live(db *gorm.DB) *gorm.DB {
	return db.Where("(expires_at IS NULL OR expires_at > ?)", utils.Now())
}

func expiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := utils.Now().Add(ttl)
	return &t
}

func (r *optionRepository) Get(ctx context.Context, name string) (*models.Option, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.Get")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("name", name))

	var option models.Option
	err := live(r.db.WithContext(ctx)).Where("name = ?", name).First(&option).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &option, nil
}

func (r *optionRepository) Set(ctx context.Context, name string, value any, ttl time.Duration) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.Set")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("name", name), log.String("ttl", ttl.String()))

	if name == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}

	raw, err := json.Marshal(value)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	now := utils.Now()
	option := models.Option{
		Name:      name,
		Value:     models.JSONValue(raw),
		ExpiresAt: expiresAt(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&option).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// Take reads and deletes the option in one statement. Single-use entries
// are consumed this way so two readers never both get the value.
func (r *optionRepository) Take(ctx context.Context, name string) (*models.Option, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.Take")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("name", name))

	var taken []models.Option
	err := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("name = ?", name).
		Delete(&taken).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if len(taken) == 0 || taken[0].Expired(utils.Now()) {
		return nil, nil
	}
	return &taken[0], nil
}

// AppendToList adds item to the JSON string list stored under name and
// refreshes its expiry.
func (r *optionRepository) AppendToList(ctx context.Context, name, item string, ttl time.Duration) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.AppendToList")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("name", name), log.String("item", item))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Option
		var items []string

		err := live(tx.Clauses(clause.Locking{Strength: "UPDATE"})).Where("name = ?", name).First(&existing).Error
		switch {
		case err == nil:
			if decodeErr := existing.Decode(&items); decodeErr != nil {
				items = nil
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		if !utils.IsStringInSlice(item, items) {
			items = append(items, item)
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return err
		}

		now := utils.Now()
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
		}).Create(&models.Option{
			Name:      name,
			Value:     models.JSONValue(raw),
			ExpiresAt: expiresAt(ttl),
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (r *optionRepository) Delete(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.Delete")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("name", name))

	err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Option{}).Error
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

// ListNames returns the names of live options starting with prefix.
func (r *optionRepository) ListNames(ctx context.Context, prefix string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.ListNames")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(log.String("prefix", prefix))

	var names []string
	err := live(r.db.WithContext(ctx).Model(&models.Option{})).
		Where("name LIKE ?", escapeLike(prefix)+"%").
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return names, nil
}

func (r *optionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OptionRepository.DeleteExpired")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", utils.Now()).
		Delete(&models.Option{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	span.LogFields(log.Int64("deleted", result.RowsAffected))
	return result.RowsAffected, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
