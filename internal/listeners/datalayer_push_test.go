package listeners

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/utils"
)

type mockPushRepository struct {
	mock.Mock
}

func (m *mockPushRepository) Record(ctx context.Context, push *models.DataLayerPush) (bool, error) {
	args := m.Called(ctx, push)
	return args.Bool(0), args.Error(1)
}

func (m *mockPushRepository) GetBySubmissionID(ctx context.Context, submissionID string) (*models.DataLayerPush, error) {
	args := m.Called(ctx, submissionID)
	push, _ := args.Get(0).(*models.DataLayerPush)
	return push, args.Error(1)
}

func (m *mockPushRepository) CountByFormID(ctx context.Context, formID string) (int64, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(int64), args.Error(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func capturedEvent(t *testing.T, record datalayer.EventRecord) dto.Event {
	raw, err := json.Marshal(dto.SubmissionCaptured{Record: record, Origin: enum.OriginAjax, SessionKey: "sess-1"})
	require.NoError(t, err)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &data))

	return dto.Event{
		Event: dto.EventDetails{
			Id:         "evt-1",
			FormId:     record.FormID,
			EntityId:   record.SubmissionID,
			EntityType: enum.SUBMISSION,
			EventType:  "SubmissionCaptured",
			Data:       data,
		},
	}
}

func formContext(formID string) context.Context {
	return utils.WithCustomContext(context.Background(), &utils.CustomContext{FormID: formID})
}

func TestDataLayerPushListener_RecordsOncePerSubmission(t *testing.T) {
	// Arrange
	repo := new(mockPushRepository)
	repo.On("Record", mock.Anything, mock.MatchedBy(func(p *models.DataLayerPush) bool {
		return p.SubmissionID == "wpforms_12_1709287200_4821" && p.Channel == string(datalayer.ChannelBroker) && p.FormID == "12"
	})).Return(true, nil).Once()

	l := NewDataLayerPushListener(getLogger(), repo, nil)
	record := datalayer.EventRecord{
		Event:        "lead",
		FormID:       "12",
		SubmissionID: "wpforms_12_1709287200_4821",
		Timestamp:    1709287200,
		Debug:        true,
		FormFields:   map[string]any{"email": "a@b.it"},
	}
	event := capturedEvent(t, record)

	// Act
	err1 := l.Handle(formContext("12"), event)
	err2 := l.Handle(formContext("12"), event)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	repo.AssertNumberOfCalls(t, "Record", 1)
	assert.Equal(t, "SubmissionCaptured", l.GetEventType())
}

func TestDataLayerPushListener_RepositoryFailureIsRetryable(t *testing.T) {
	// Arrange
	repo := new(mockPushRepository)
	repo.On("Record", mock.Anything, mock.Anything).Return(false, errors.New("db down")).Once()
	repo.On("Record", mock.Anything, mock.Anything).Return(true, nil).Once()

	l := NewDataLayerPushListener(getLogger(), repo, nil)
	event := capturedEvent(t, datalayer.EventRecord{FormID: "3", SubmissionID: "wpforms_3_1_1000"})

	// Act
	err1 := l.Handle(formContext("3"), event)
	err2 := l.Handle(formContext("3"), event)

	// Assert
	require.Error(t, err1)
	require.NoError(t, err2)
	repo.AssertNumberOfCalls(t, "Record", 2)
}

func TestDataLayerPushListener_RejectsEventWithoutForm(t *testing.T) {
	repo := new(mockPushRepository)
	l := NewDataLayerPushListener(getLogger(), repo, nil)

	err := l.Handle(context.Background(), capturedEvent(t, datalayer.EventRecord{SubmissionID: "x"}))

	require.Error(t, err)
	repo.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
