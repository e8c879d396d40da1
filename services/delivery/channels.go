package delivery

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/metrics"
	"github.com/customeros/formlayer/internal/tracing"
)

const (
	ResponseDataKey    = "data"
	ResponseRecordKey  = "datalayer"
	ResponseVersionKey = "datalayer_version"
	EnvelopeVersion    = 1
)

// AugmentAjaxResponse sets data.datalayer and data.datalayer_version on the
// host's AJAX success response when the session has a pending record for
// formID. The response is returned unchanged otherwise.
func (s *Service) AugmentAjaxResponse(ctx context.Context, formID, sessionKey string, response map[string]any) (map[string]any, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.AugmentAjaxResponse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFormId(span, formID)

	if response == nil {
		response = map[string]any{}
	}

	record, err := s.currentRecord(ctx, formID, sessionKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return response, err
	}
	if record == nil {
		return response, nil
	}

	var data map[string]any
	switch existing := response[ResponseDataKey].(type) {
	case map[string]any:
		data = existing
	case nil:
		data = map[string]any{}
	default:
		s.log.Warnf("ajax response data for form %s is %T, not augmenting", formID, existing)
		return response, nil
	}

	data[ResponseRecordKey] = record
	data[ResponseVersionKey] = EnvelopeVersion
	response[ResponseDataKey] = data

	tracing.TagEntity(span, record.SubmissionID)
	metrics.DeliveriesTotal.WithLabelValues(string(datalayer.ChannelAjaxResponse)).Inc()
	return response, nil
}

// ConfirmationScript appends an inline delivery script to the confirmation
// message when the session has a pending record for formID.
func (s *Service) ConfirmationScript(ctx context.Context, formID, sessionKey, message string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.ConfirmationScript")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFormId(span, formID)

	record, err := s.currentRecord(ctx, formID, sessionKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return message, err
	}
	if record == nil {
		return message, nil
	}

	script, err := renderInlineScript(record, datalayer.ChannelConfirmation)
	if err != nil {
		tracing.TraceErr(span, err)
		return message, err
	}

	tracing.TagEntity(span, record.SubmissionID)
	metrics.DeliveriesTotal.WithLabelValues(string(datalayer.ChannelConfirmation)).Inc()
	return message + script, nil
}

// FooterScript renders the footer scripts of a session: the stashed
// full-page record, pushed at once, and the AJAX fallbacks, pushed on page
// unload or after the fallback delay. Both entries are single use. Lookup
// errors are logged and the scripts that could be built are still returned.
func (s *Service) FooterScript(ctx context.Context, sessionKey string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.FooterScript")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var out strings.Builder
	var firstErr error
	keep := func(err error) {
		if err == nil {
			return
		}
		tracing.TraceErr(span, err)
		s.log.Errorf("footer script for session %s: %v", sessionKey, err)
		if firstErr == nil {
			firstErr = err
		}
	}

	stashed, err := s.takeStash(ctx, sessionKey)
	keep(err)
	if stashed != nil {
		script, err := renderInlineScript(stashed, datalayer.ChannelSession)
		keep(err)
		if err == nil {
			out.WriteString(script)
			metrics.DeliveriesTotal.WithLabelValues(string(datalayer.ChannelSession)).Inc()
		}
	}

	fallbacks, err := s.takeFallbacks(ctx, sessionKey)
	keep(err)
	if len(fallbacks) > 0 {
		script, err := renderFallbackScript(fallbacks, s.fallbackDelay().Milliseconds())
		keep(err)
		if err == nil {
			out.WriteString(script)
			metrics.DeliveriesTotal.WithLabelValues(string(datalayer.ChannelFooterTimeout)).Add(float64(len(fallbacks)))
		}
	}

	return out.String(), firstErr
}

func (s *Service) takeStash(ctx context.Context, sessionKey string) (*datalayer.EventRecord, error) {
	option, err := s.options.Take(ctx, s.keys.Session(sessionKey))
	if err != nil || option == nil {
		return nil, err
	}
	var record datalayer.EventRecord
	if err := option.Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) takeFallbacks(ctx context.Context, sessionKey string) ([]*datalayer.EventRecord, error) {
	option, err := s.options.Take(ctx, s.keys.Fallback(sessionKey))
	if err != nil || option == nil {
		return nil, err
	}
	var ids []string
	if err := option.Decode(&ids); err != nil {
		return nil, err
	}

	var records []*datalayer.EventRecord
	var firstErr error
	for _, id := range ids {
		record, err := s.lookupRecord(ctx, id)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if record != nil {
			records = append(records, record)
		}
	}
	return records, firstErr
}
