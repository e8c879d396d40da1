package interfaces

import (
	"context"

	"github.com/customeros/formlayer/internal/datalayer"
)

type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type DebugArchiver interface {
	Archive(ctx context.Context, record *datalayer.EventRecord) error
	Load(ctx context.Context, formID, submissionID string) (*datalayer.EventRecord, error)
	Remove(ctx context.Context, formID, submissionID string) error
}
