package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type recordingQueue struct {
	mu      sync.Mutex
	pushes  []datalayer.EventRecord
	fail    error
	pushSeq []datalayer.Channel
}

func (q *recordingQueue) Push(_ context.Context, record datalayer.EventRecord, channel datalayer.Channel) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail != nil {
		return q.fail
	}
	q.pushes = append(q.pushes, record)
	q.pushSeq = append(q.pushSeq, channel)
	return nil
}

func sampleRecord() *datalayer.EventRecord {
	return &datalayer.EventRecord{
		Event:        "wpforms_submission",
		FormID:       "12",
		SubmissionID: "wpforms_12_1709287200_4821",
		Timestamp:    1709287200,
		Debug:        true,
		FormFields:   map[string]any{"nome": "Mario"},
	}
}

func TestListener_AjaxThenFallbackPushesOnce(t *testing.T) {
	// Arrange
	queue := &recordingQueue{}
	l := New(queue, getLogger(), 100, time.Minute)
	record := sampleRecord()

	// Act
	first, err := l.Deliver(context.Background(), record, datalayer.ChannelAjaxResponse)
	require.NoError(t, err)
	second, err := l.Deliver(context.Background(), record, datalayer.ChannelFooterTimeout)
	require.NoError(t, err)

	// Assert
	assert.True(t, first)
	assert.False(t, second)
	require.Len(t, queue.pushes, 1)
	assert.Equal(t, []datalayer.Channel{datalayer.ChannelAjaxResponse}, queue.pushSeq)
	assert.True(t, l.Pushed(record.SubmissionID))
}

func TestListener_DebugFlagStripped(t *testing.T) {
	queue := &recordingQueue{}
	l := New(queue, getLogger(), 100, time.Minute)
	record := sampleRecord()

	_, err := l.Deliver(context.Background(), record, datalayer.ChannelConfirmation)

	require.NoError(t, err)
	require.Len(t, queue.pushes, 1)
	assert.False(t, queue.pushes[0].Debug)
	assert.True(t, record.Debug)
}

func TestListener_MissingSubmissionIDGetsTempID(t *testing.T) {
	queue := &recordingQueue{}
	now := time.UnixMilli(1709287200123)
	l := New(queue, getLogger(), 100, time.Minute, WithClock(func() time.Time { return now }))
	record := sampleRecord()
	record.SubmissionID = ""

	pushed, err := l.Deliver(context.Background(), record, datalayer.ChannelSuccessEvent)

	require.NoError(t, err)
	assert.True(t, pushed)
	assert.Equal(t, "temp_1709287200123", queue.pushes[0].SubmissionID)
}

func TestListener_NilRecordIsNoop(t *testing.T) {
	queue := &recordingQueue{}
	l := New(queue, getLogger(), 100, time.Minute)

	pushed, err := l.Deliver(context.Background(), nil, datalayer.ChannelAjaxResponse)

	require.NoError(t, err)
	assert.False(t, pushed)
	assert.Empty(t, queue.pushes)
}

func TestListener_FailedPushCanBeRetried(t *testing.T) {
	queue := &recordingQueue{fail: errors.New("db down")}
	l := New(queue, getLogger(), 100, time.Minute)
	record := sampleRecord()

	_, err := l.Deliver(context.Background(), record, datalayer.ChannelBroker)
	require.Error(t, err)
	assert.False(t, l.Pushed(record.SubmissionID))

	queue.fail = nil
	pushed, err := l.Deliver(context.Background(), record, datalayer.ChannelBroker)
	require.NoError(t, err)
	assert.True(t, pushed)
}

func TestListener_ConcurrentChannelsPushOnce(t *testing.T) {
	queue := &recordingQueue{}
	l := New(queue, getLogger(), 100, time.Minute)
	record := sampleRecord()
	channels := []datalayer.Channel{
		datalayer.ChannelAjaxResponse,
		datalayer.ChannelConfirmation,
		datalayer.ChannelFooterUnload,
		datalayer.ChannelFooterTimeout,
		datalayer.ChannelBroker,
	}

	var wg sync.WaitGroup
	for _, ch := range channels {
		wg.Add(1)
		go func(ch datalayer.Channel) {
			defer wg.Done()
			_, _ = l.Deliver(context.Background(), record, ch)
		}(ch)
	}
	wg.Wait()

	assert.Len(t, queue.pushes, 1)
}
