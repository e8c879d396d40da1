package interfaces

import (
	"context"

	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
	"github.com/customeros/formlayer/internal/models"
)

type DeliveryService interface {
	Dispatch(ctx context.Context, record *datalayer.EventRecord, origin enum.SubmissionOrigin, sessionKey string) error
	AugmentAjaxResponse(ctx context.Context, formID, sessionKey string, response map[string]any) (map[string]any, error)
	ConfirmationScript(ctx context.Context, formID, sessionKey, message string) (string, error)
	FooterScript(ctx context.Context, sessionKey string) (string, error)
	Sweep(ctx context.Context) (dto.SweepResult, error)
}

type FormSettingsService interface {
	Get(ctx context.Context, formID string) (*models.FormSettings, error)
	Save(ctx context.Context, settings *models.FormSettings) error
	List(ctx context.Context) ([]*models.FormSettings, error)
	// Resolve merges stored settings with a request override. Non-empty
	// override fields win.
	Resolve(ctx context.Context, formID string, override *datalayer.Settings) (datalayer.Settings, string, error)
	EventNames(ctx context.Context, formIDs []string) (map[string]string, error)
}

type StatusService interface {
	Probe(ctx context.Context) error
	Notices() []dto.Notice
}

type EventAssembler interface {
	Assemble(ctx context.Context, sub datalayer.Submission) (*datalayer.EventRecord, error)
}
