package listeners

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/listener"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
	"github.com/customeros/formlayer/services/events"
)

// DataLayerPushListener applies captured submissions to the server-side
// push log, once per submission id.
type DataLayerPushListener struct {
	events.BaseEventListener
	listener *listener.Listener
}

func NewDataLayerPushListener(log logger.Logger, pushes interfaces.DataLayerPushRepository, dedup *listener.Listener) interfaces.EventListener {
	if dedup == nil {
		dedup = listener.New(PushLogQueue(pushes), log, 0, 0)
	}
	return &DataLayerPushListener{
		BaseEventListener: events.NewBaseEventListener(
			log,
			events.GetEventType[dto.SubmissionCaptured](),
			events.QueueDataLayerPush,
		),
		listener: dedup,
	}
}

// PushLogQueue records pushes in the repository. A submission already
// recorded by another replica counts as pushed.
func PushLogQueue(pushes interfaces.DataLayerPushRepository) listener.Queue {
	return listener.QueueFunc(func(ctx context.Context, record datalayer.EventRecord, channel datalayer.Channel) error {
		_, err := pushes.Record(ctx, &models.DataLayerPush{
			SubmissionID: record.SubmissionID,
			FormID:       record.FormID,
			Event:        record.Event,
			Channel:      string(channel),
			Payload:      models.JSONMap(record.FormFields),
			PushedAt:     utils.UnixToTime(record.Timestamp),
		})
		return err
	})
}

func (l *DataLayerPushListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DataLayerPushListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)
	tracing.LogObjectAsJson(span, "event", baseEvent)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	captured, err := events.DecodeEventData[dto.SubmissionCaptured](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagEntity(span, captured.Record.SubmissionID)

	_, err = l.listener.Deliver(ctx, &captured.Record, datalayer.ChannelBroker)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
