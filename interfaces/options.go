package interfaces

import (
	"context"
	"time"

	"github.com/customeros/formlayer/internal/models"
)

// OptionRepository is the expiring key-value relay. Expired rows are
// invisible to reads and removed by DeleteExpired.
type OptionRepository interface {
	Get(ctx context.Context, name string) (*models.Option, error)
	Set(ctx context.Context, name string, value any, ttl time.Duration) error
	Take(ctx context.Context, name string) (*models.Option, error)
	AppendToList(ctx context.Context, name, item string, ttl time.Duration) error
	Delete(ctx context.Context, name string) error
	ListNames(ctx context.Context, prefix string) ([]string, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type FormSettingsRepository interface {
	GetByFormID(ctx context.Context, formID string) (*models.FormSettings, error)
	Upsert(ctx context.Context, settings *models.FormSettings) error
	List(ctx context.Context) ([]*models.FormSettings, error)
}

type DataLayerPushRepository interface {
	// Record inserts the push and reports false when the submission id was
	// already recorded.
	Record(ctx context.Context, push *models.DataLayerPush) (bool, error)
	GetBySubmissionID(ctx context.Context, submissionID string) (*models.DataLayerPush, error)
	CountByFormID(ctx context.Context, formID string) (int64, error)
}
