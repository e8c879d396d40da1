// Package delivery persists assembled Event Records in the option relay and
// hands them to the browser through redundant channels.
package delivery

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/dto"
	formlayer_errors "github.com/customeros/formlayer/errors"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/metrics"
	"github.com/customeros/formlayer/internal/tracing"
)

const (
	defaultRecordTTL     = 5 * time.Minute
	defaultFallbackDelay = 2 * time.Second
)

var ErrInvalidOrigin = errors.New("invalid submission origin")

type Service struct {
	cfg       *config.DataLayerConfig
	log       logger.Logger
	keys      Keys
	options   interfaces.OptionRepository
	publisher interfaces.EventPublisher
	archive   interfaces.DebugArchiver
}

// NewService builds the delivery service. publisher and archive are
// optional and may be nil.
func NewService(cfg *config.DataLayerConfig, log logger.Logger, options interfaces.OptionRepository,
	publisher interfaces.EventPublisher, archive interfaces.DebugArchiver) *Service {
	if cfg == nil {
		cfg = &config.DataLayerConfig{}
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "wpforms_datalayer"
	}
	return &Service{
		cfg:       cfg,
		log:       log,
		keys:      Keys{Prefix: prefix},
		options:   options,
		publisher: publisher,
		archive:   archive,
	}
}

func (s *Service) recordTTL() time.Duration {
	if s.cfg.RecordTTL > 0 {
		return s.cfg.RecordTTL
	}
	return defaultRecordTTL
}

func (s *Service) fallbackDelay() time.Duration {
	if s.cfg.FallbackDelay > 0 {
		return s.cfg.FallbackDelay
	}
	return defaultFallbackDelay
}

// Dispatch persists record for the channels of its origin. A full-page
// submission is stashed for the next footer render of the session; an
// AJAX submission is stored by id with a cleanup marker, pointed to by the
// session's last-submission pointer and queued for the footer fallback.
func (s *Service) Dispatch(ctx context.Context, record *datalayer.EventRecord, origin enum.SubmissionOrigin, sessionKey string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(log.String("origin", origin.String()))

	if record == nil {
		err := errors.New("record is nil")
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagEntity(span, record.SubmissionID)
	tracing.TagFormId(span, record.FormID)

	if !origin.IsValid() {
		tracing.TraceErr(span, ErrInvalidOrigin)
		return ErrInvalidOrigin
	}
	if sessionKey == "" {
		tracing.TraceErr(span, formlayer_errors.ErrSessionKeyNotSet)
		return formlayer_errors.ErrSessionKeyNotSet
	}

	switch origin {
	case enum.OriginFullPage:
		if err := s.options.Set(ctx, s.keys.Session(sessionKey), record, s.recordTTL()); err != nil {
			tracing.TraceErr(span, err)
			return errors.Wrap(err, "failed to stash record for session")
		}
	case enum.OriginAjax:
		if err := s.storeAjax(ctx, record, sessionKey); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
	}
	metrics.SubmissionsTotal.WithLabelValues(origin.String()).Inc()

	s.publish(ctx, record, origin, sessionKey)

	if record.Debug {
		s.log.Infof("dataLayer record for form %s stored (%s): %+v", record.FormID, origin, record)
		if s.archive != nil {
			if err := s.archive.Archive(ctx, record); err != nil {
				tracing.TraceErr(span, err)
				s.log.Errorf("failed to archive debug record %s: %v", record.SubmissionID, err)
			}
		}
	}

	return nil
}

func (s *Service) storeAjax(ctx context.Context, record *datalayer.EventRecord, sessionKey string) error {
	id := record.SubmissionID
	if err := s.options.Set(ctx, s.keys.Ajax(id), record, 0); err != nil {
		return errors.Wrap(err, "failed to store ajax record")
	}
	if err := s.options.Set(ctx, s.keys.Cleanup(id), true, s.recordTTL()); err != nil {
		return errors.Wrap(err, "failed to store cleanup marker")
	}
	if err := s.options.Set(ctx, s.keys.LastSubmission(record.FormID, sessionKey), id, s.recordTTL()); err != nil {
		return errors.Wrap(err, "failed to update last submission pointer")
	}
	if err := s.options.AppendToList(ctx, s.keys.Fallback(sessionKey), id, s.recordTTL()); err != nil {
		return errors.Wrap(err, "failed to queue footer fallback")
	}
	return nil
}

func (s *Service) publish(ctx context.Context, record *datalayer.EventRecord, origin enum.SubmissionOrigin, sessionKey string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishSubmissionCaptured(ctx, dto.SubmissionCaptured{
		Record:     *record,
		Origin:     origin,
		SessionKey: sessionKey,
	})
	if err != nil {
		s.log.Errorf("failed to publish submission %s: %v", record.SubmissionID, err)
		return
	}
	metrics.DeliveriesTotal.WithLabelValues(string(datalayer.ChannelBroker)).Inc()
}

// lookupRecord returns the ajax record for id while its cleanup marker is live.
func (s *Service) lookupRecord(ctx context.Context, id string) (*datalayer.EventRecord, error) {
	if id == "" {
		return nil, nil
	}
	marker, err := s.options.Get(ctx, s.keys.Cleanup(id))
	if err != nil || marker == nil {
		return nil, err
	}
	option, err := s.options.Get(ctx, s.keys.Ajax(id))
	if err != nil || option == nil {
		return nil, err
	}
	var record datalayer.EventRecord
	if err := option.Decode(&record); err != nil {
		return nil, errors.Wrapf(err, "failed to decode record %s", id)
	}
	return &record, nil
}

// currentRecord follows the session pointer of formID to its record.
func (s *Service) currentRecord(ctx context.Context, formID, sessionKey string) (*datalayer.EventRecord, error) {
	pointer, err := s.options.Get(ctx, s.keys.LastSubmission(formID, sessionKey))
	if err != nil || pointer == nil {
		return nil, err
	}
	var id string
	if err := pointer.Decode(&id); err != nil {
		return nil, errors.Wrap(err, "failed to decode last submission pointer")
	}
	return s.lookupRecord(ctx, id)
}
