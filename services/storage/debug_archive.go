package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

// DebugArchive keeps a copy of every record assembled for a form in debug mode.
type DebugArchive struct {
	storage interfaces.StorageService
}

func NewDebugArchive(storage interfaces.StorageService) *DebugArchive {
	return &DebugArchive{storage: storage}
}

var ErrInvalidSubmissionID = errors.New("submission id carries no timestamp")

// ArchiveKey is "<formId>/<yyyy-mm-dd>/<submissionId>.json", dated by the record timestamp.
func ArchiveKey(record *datalayer.EventRecord) string {
	return archiveKey(record.FormID, record.SubmissionID, record.Timestamp)
}

func archiveKey(formID, submissionID string, unix int64) string {
	day := utils.UnixToTime(unix).Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s.json", formID, day, submissionID)
}

// keyForSubmission rebuilds the archive key from the timestamp embedded in
// "<prefix>_<formId>_<unix>_<digits>".
func keyForSubmission(formID, submissionID string) (string, error) {
	parts := strings.Split(submissionID, "_")
	if len(parts) < 4 {
		return "", ErrInvalidSubmissionID
	}
	unix, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return "", ErrInvalidSubmissionID
	}
	return archiveKey(formID, submissionID, unix), nil
}

func (a *DebugArchive) Archive(ctx context.Context, record *datalayer.EventRecord) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DebugArchive.Archive")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if record == nil {
		return nil
	}
	tracing.TagEntity(span, record.SubmissionID)

	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to marshal record")
	}

	if err := a.storage.Upload(ctx, ArchiveKey(record), body, "application/json"); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to upload debug record")
	}
	return nil
}

// Load reads back an archived record.
func (a *DebugArchive) Load(ctx context.Context, formID, submissionID string) (*datalayer.EventRecord, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DebugArchive.Load")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, submissionID)

	key, err := keyForSubmission(formID, submissionID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	body, err := a.storage.Download(ctx, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to download debug record")
	}

	var record datalayer.EventRecord
	if err := json.Unmarshal(body, &record); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to decode debug record")
	}
	return &record, nil
}

func (a *DebugArchive) Remove(ctx context.Context, formID, submissionID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DebugArchive.Remove")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, submissionID)

	key, err := keyForSubmission(formID, submissionID)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err := a.storage.Delete(ctx, key); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to delete debug record")
	}
	return nil
}
