package delivery

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/internal/metrics"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

// Sweep deletes ajax records whose cleanup marker lapsed, then every other
// expired relay entry. Best effort: a failed delete is logged and counted
// and the sweep moves on. Only a failure to list entries is returned.
func (s *Service) Sweep(ctx context.Context) (dto.SweepResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DeliveryService.Sweep")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var result dto.SweepResult

	records, err := s.options.ListNames(ctx, s.keys.AjaxPrefix())
	if err != nil {
		tracing.TraceErr(span, err)
		return result, err
	}
	markers, err := s.options.ListNames(ctx, s.keys.CleanupPrefix())
	if err != nil {
		tracing.TraceErr(span, err)
		return result, err
	}
	live := utils.SliceToSet(markers)

	for _, name := range records {
		id, ok := s.keys.SubmissionIDFromAjax(name)
		if !ok {
			continue
		}
		if _, alive := live[s.keys.Cleanup(id)]; alive {
			continue
		}
		if err := s.options.Delete(ctx, name); err != nil {
			s.log.Warnf("sweep: failed to delete %s: %v", name, err)
			result.Failures++
			metrics.SweepErrorsTotal.Inc()
			continue
		}
		result.Records++
	}

	expired, err := s.options.DeleteExpired(ctx)
	if err != nil {
		s.log.Warnf("sweep: failed to delete expired entries: %v", err)
		result.Failures++
		metrics.SweepErrorsTotal.Inc()
	}
	result.Expired = expired

	metrics.SweptRecordsTotal.Add(float64(result.Records) + float64(result.Expired))
	span.LogFields(
		log.Int("records", result.Records),
		log.Int64("expired", result.Expired),
		log.Int("failures", result.Failures),
	)
	if result.Records > 0 || result.Expired > 0 || result.Failures > 0 {
		s.log.Infof("sweep: deleted %d records and %d expired entries, %d failures", result.Records, result.Expired, result.Failures)
	}
	return result, nil
}
