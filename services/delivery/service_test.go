package delivery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/enum"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/repository"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSubmissionCaptured(ctx context.Context, message dto.SubmissionCaptured) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, record *datalayer.EventRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockArchive) Load(ctx context.Context, formID, submissionID string) (*datalayer.EventRecord, error) {
	args := m.Called(ctx, formID, submissionID)
	record, _ := args.Get(0).(*datalayer.EventRecord)
	return record, args.Error(1)
}

func (m *mockArchive) Remove(ctx context.Context, formID, submissionID string) error {
	return m.Called(ctx, formID, submissionID).Error(0)
}

type fixture struct {
	clock   *testClock
	options interfaces.OptionRepository
	service *Service
}

func newFixture(publisher interfaces.EventPublisher, archive interfaces.DebugArchiver) *fixture {
	clock := &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	options := repository.NewMemoryOptionRepository(clock.Now)
	cfg := &config.DataLayerConfig{
		KeyPrefix:     "wpforms_datalayer",
		RecordTTL:     5 * time.Minute,
		FallbackDelay: 2 * time.Second,
	}
	return &fixture{
		clock:   clock,
		options: options,
		service: NewService(cfg, getLogger(), options, publisher, archive),
	}
}

func record(id string) *datalayer.EventRecord {
	return &datalayer.EventRecord{
		Event:        "wpforms_submission",
		FormID:       "12",
		FormTitle:    "Contatti",
		SubmissionID: id,
		Timestamp:    1709287200,
		FormFields:   map[string]any{"nome": "Mario"},
	}
}

func TestDispatch_AjaxStoresRecordMarkerPointerAndFallback(t *testing.T) {
	// Arrange
	f := newFixture(nil, nil)
	ctx := context.Background()

	// Act
	err := f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "s1")

	// Assert
	require.NoError(t, err)
	for _, name := range []string{
		"wpforms_datalayer_ajax_wpforms_12_1_1111",
		"wpforms_datalayer_cleanup_wpforms_12_1_1111",
		"wpforms_datalayer_last_submission_id_12_s1",
		"wpforms_datalayer_fallback_s1",
	} {
		option, err := f.options.Get(ctx, name)
		require.NoError(t, err)
		assert.NotNil(t, option, name)
	}
	stash, err := f.options.Get(ctx, "wpforms_datalayer_session_s1")
	require.NoError(t, err)
	assert.Nil(t, stash)
}

func TestDispatch_InvalidOrigin(t *testing.T) {
	f := newFixture(nil, nil)

	err := f.service.Dispatch(context.Background(), record("x"), enum.SubmissionOrigin("cron"), "s1")

	assert.ErrorIs(t, err, ErrInvalidOrigin)
}

func TestDispatch_PublishesAndArchivesDebugRecords(t *testing.T) {
	// Arrange
	publisher := new(mockPublisher)
	archive := new(mockArchive)
	f := newFixture(publisher, archive)
	rec := record("wpforms_12_1_2222")
	rec.Debug = true

	publisher.On("PublishSubmissionCaptured", mock.Anything, mock.MatchedBy(func(m dto.SubmissionCaptured) bool {
		return m.Record.SubmissionID == rec.SubmissionID && m.Origin == enum.OriginFullPage && m.SessionKey == "s1"
	})).Return(nil)
	archive.On("Archive", mock.Anything, rec).Return(nil)

	// Act
	err := f.service.Dispatch(context.Background(), rec, enum.OriginFullPage, "s1")

	// Assert
	require.NoError(t, err)
	publisher.AssertExpectations(t)
	archive.AssertExpectations(t)
}

func TestDispatch_PublishFailureDoesNotFail(t *testing.T) {
	publisher := new(mockPublisher)
	archive := new(mockArchive)
	f := newFixture(publisher, archive)
	publisher.On("PublishSubmissionCaptured", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := f.service.Dispatch(context.Background(), record("wpforms_12_1_3333"), enum.OriginAjax, "s1")

	require.NoError(t, err)
	archive.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything)
}

func TestAugmentAjaxResponse(t *testing.T) {
	// Arrange
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "s1"))
	response := map[string]any{"success": true, "data": map[string]any{"confirmation": "Grazie"}}

	// Act
	augmented, err := f.service.AugmentAjaxResponse(ctx, "12", "s1", response)

	// Assert
	require.NoError(t, err)
	data := augmented["data"].(map[string]any)
	assert.Equal(t, "Grazie", data["confirmation"])
	assert.Equal(t, 1, data["datalayer_version"])
	delivered, ok := data["datalayer"].(*datalayer.EventRecord)
	require.True(t, ok)
	assert.Equal(t, "wpforms_12_1_1111", delivered.SubmissionID)
}

func TestAugmentAjaxResponse_OtherSessionSeesNothing(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "visitor-a"))
	response := map[string]any{"success": true}

	augmented, err := f.service.AugmentAjaxResponse(ctx, "12", "visitor-b", response)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"success": true}, augmented)
}

func TestAugmentAjaxResponse_ExpiredRecordNotDelivered(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "s1"))
	f.clock.now = f.clock.now.Add(6 * time.Minute)

	augmented, err := f.service.AugmentAjaxResponse(ctx, "12", "s1", map[string]any{})

	require.NoError(t, err)
	assert.NotContains(t, augmented, "data")
}

func TestConfirmationScript(t *testing.T) {
	// Arrange
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "s1"))

	// Act
	out, err := f.service.ConfirmationScript(ctx, "12", "s1", "<p>Grazie!</p>")

	// Assert
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<p>Grazie!</p><script>"))
	assert.Contains(t, out, `"submissionId":"wpforms_12_1_1111"`)
	assert.Contains(t, out, `"confirmation"`)
	assert.Contains(t, out, "window.formLayerPending")
}

func TestConfirmationScript_NoRecordKeepsMessage(t *testing.T) {
	f := newFixture(nil, nil)

	out, err := f.service.ConfirmationScript(context.Background(), "12", "s1", "<p>Grazie!</p>")

	require.NoError(t, err)
	assert.Equal(t, "<p>Grazie!</p>", out)
}

func TestConfirmationScript_EscapesClosingTags(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()
	rec := record("wpforms_12_1_1111")
	rec.FormFields["Message"] = "</script><script>alert(1)</script>"
	require.NoError(t, f.service.Dispatch(ctx, rec, enum.OriginAjax, "s1"))

	out, err := f.service.ConfirmationScript(ctx, "12", "s1", "")

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "</script>"))
}

func TestFooterScript_SessionStashIsSingleUse(t *testing.T) {
	// Arrange
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_4444"), enum.OriginFullPage, "s1"))

	// Act
	first, err := f.service.FooterScript(ctx, "s1")
	require.NoError(t, err)
	second, err := f.service.FooterScript(ctx, "s1")
	require.NoError(t, err)

	// Assert
	assert.Contains(t, first, "wpforms_12_1_4444")
	assert.Contains(t, first, `"session"`)
	assert.Empty(t, second)
}

func TestFooterScript_AjaxFallbackWithUnloadAndTimer(t *testing.T) {
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_1111"), enum.OriginAjax, "s1"))
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_2222"), enum.OriginAjax, "s1"))

	out, err := f.service.FooterScript(ctx, "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "beforeunload")
	assert.Contains(t, out, "setTimeout")
	assert.Contains(t, out, "2000")
	assert.Contains(t, out, "wpforms_12_1_1111")
	assert.Contains(t, out, "wpforms_12_1_2222")
	assert.Contains(t, out, `"footer_unload"`)
	assert.Contains(t, out, `"footer_timeout"`)
}

func TestFooterScript_NothingPending(t *testing.T) {
	f := newFixture(nil, nil)

	out, err := f.service.FooterScript(context.Background(), "s1")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSweep(t *testing.T) {
	// Arrange
	f := newFixture(nil, nil)
	ctx := context.Background()
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_old"), enum.OriginAjax, "s1"))
	f.clock.now = f.clock.now.Add(4 * time.Minute)
	require.NoError(t, f.service.Dispatch(ctx, record("wpforms_12_1_new"), enum.OriginAjax, "s2"))
	f.clock.now = f.clock.now.Add(2 * time.Minute)

	// Act
	result, err := f.service.Sweep(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Records)
	assert.Equal(t, int64(3), result.Expired)
	assert.Zero(t, result.Failures)

	old, err := f.options.Get(ctx, "wpforms_datalayer_ajax_wpforms_12_1_old")
	require.NoError(t, err)
	assert.Nil(t, old)
	fresh, err := f.options.Get(ctx, "wpforms_datalayer_ajax_wpforms_12_1_new")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "p"}

	assert.Equal(t, "p_last_submission_id_12_abc", k.LastSubmission("12", "abc"))
	id, ok := k.SubmissionIDFromAjax("p_ajax_wpforms_1_2_3")
	assert.True(t, ok)
	assert.Equal(t, "wpforms_1_2_3", id)
	_, ok = k.SubmissionIDFromAjax("p_cleanup_x")
	assert.False(t, ok)
}
