package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/api/middleware"
	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/repository"
	"github.com/customeros/formlayer/services"
	"github.com/customeros/formlayer/services/delivery"
	"github.com/customeros/formlayer/services/formsettings"
	"github.com/customeros/formlayer/services/status"
)

const testAPIKey = "secret"

type formSettingsStore struct {
	mu    sync.Mutex
	forms map[string]*models.FormSettings
}

func (s *formSettingsStore) GetByFormID(_ context.Context, formID string) (*models.FormSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings, ok := s.forms[formID]; ok {
		copied := *settings
		return &copied, nil
	}
	return nil, nil
}

func (s *formSettingsStore) Upsert(_ context.Context, settings *models.FormSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *settings
	s.forms[settings.FormID] = &copied
	return nil
}

func (s *formSettingsStore) List(_ context.Context) ([]*models.FormSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.FormSettings
	for _, settings := range s.forms {
		list = append(list, settings)
	}
	return list, nil
}

type pushLogStore struct {
	pushes []*models.DataLayerPush
}

func (s *pushLogStore) Record(_ context.Context, push *models.DataLayerPush) (bool, error) {
	s.pushes = append(s.pushes, push)
	return true, nil
}

func (s *pushLogStore) GetBySubmissionID(_ context.Context, submissionID string) (*models.DataLayerPush, error) {
	for _, push := range s.pushes {
		if push.SubmissionID == submissionID {
			return push, nil
		}
	}
	return nil, nil
}

func (s *pushLogStore) CountByFormID(_ context.Context, formID string) (int64, error) {
	var count int64
	for _, push := range s.pushes {
		if push.FormID == formID {
			count++
		}
	}
	return count, nil
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	log := getLogger()

	cfg := &config.Config{
		AppConfig: &config.AppConfig{APIKey: testAPIKey},
		DataLayerConfig: &config.DataLayerConfig{
			KeyPrefix:        "wpforms_datalayer",
			SubmissionPrefix: "wpforms",
			DefaultEventName: "wpforms_submission",
			RecordTTL:        5 * time.Minute,
			FallbackDelay:    2 * time.Second,
			AjaxURL:          "https://host.example/wp-admin/admin-ajax.php",
			AjaxURLPatterns:  []string{"wp-admin/admin-ajax.php"},
		},
	}

	store := &formSettingsStore{forms: map[string]*models.FormSettings{
		"12": {FormID: "12", FormTitle: "Contatti", EventName: "lead_form"},
	}}
	options := repository.NewMemoryOptionRepository(clock)

	svcs := &services.Services{
		Assembler: datalayer.NewAssembler(cfg.DataLayerConfig, log,
			datalayer.WithClock(clock),
			datalayer.WithDigits(func() string { return "4821" })),
		DeliveryService:     delivery.NewService(cfg.DataLayerConfig, log, options, nil, nil),
		FormSettingsService: formsettings.NewService(cfg.DataLayerConfig, store),
		StatusService:       status.NewService("", log),
		PushLog:             &pushLogStore{pushes: []*models.DataLayerPush{
			{ID: "dlp_1", SubmissionID: "wpforms_12_1709287200_1111", FormID: "12", Event: "lead_form", Channel: "broker", PushedAt: now},
		}},
	}

	router := gin.New()
	RegisterRoutes(context.Background(), router, cfg, svcs, log)
	return router
}

func doRequest(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func authed(session string, extra ...string) map[string]string {
	headers := map[string]string{
		APIKeyHeader:             testAPIKey,
		middleware.SessionHeader: session,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		headers[extra[i]] = extra[i+1]
	}
	return headers
}

const submissionBody = `{
  "entryId": 91,
  "fields": [
    {"id": 1, "label": "Nome e cognome", "type": "text", "value": "Mario Rossi"},
    {"id": 2, "label": "Email", "type": "email", "value": "Mario.Rossi@Example.com"}
  ]
}`

func TestSubmit_AjaxFlowAugmentsResponse(t *testing.T) {
	// Arrange
	router := newTestRouter(t)

	// Act
	submit := doRequest(router, http.MethodPost, "/v1/forms/12/submissions", submissionBody,
		authed("sess-a", "X-Requested-With", "XMLHttpRequest"))
	augmented := doRequest(router, http.MethodPost, "/v1/forms/12/ajax-response",
		`{"success": true, "data": {"confirmation": "Grazie"}}`, authed("sess-a"))

	// Assert
	require.Equal(t, http.StatusCreated, submit.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(submit.Body.Bytes(), &created))
	assert.Equal(t, "ajax", created["origin"])
	record := created["datalayer"].(map[string]any)
	assert.Equal(t, "wpforms_12_1709287200_4821", record["submissionId"])
	assert.Equal(t, "lead_form", record["event"])
	assert.Equal(t, "Contatti", record["formTitle"])
	fields := record["formFields"].(map[string]any)
	assert.Equal(t, "Mario", fields["nome"])
	assert.Equal(t, "Rossi", fields["cognome"])

	require.Equal(t, http.StatusOK, augmented.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(augmented.Body.Bytes(), &response))
	data := response["data"].(map[string]any)
	assert.Equal(t, "Grazie", data["confirmation"])
	assert.EqualValues(t, delivery.EnvelopeVersion, data["datalayer_version"])
	assert.Equal(t, "wpforms_12_1709287200_4821", data["datalayer"].(map[string]any)["submissionId"])
}

func TestAjaxResponse_OtherSessionIsNotAugmented(t *testing.T) {
	router := newTestRouter(t)

	doRequest(router, http.MethodPost, "/v1/forms/12/submissions", `{"ajax": true, "fields": []}`, authed("sess-a"))
	w := doRequest(router, http.MethodPost, "/v1/forms/12/ajax-response", `{"success": true, "data": {}}`, authed("sess-b"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "datalayer")
}

func TestSubmit_FullPageStashIsConsumedByFooter(t *testing.T) {
	// Arrange
	router := newTestRouter(t)

	// Act
	submit := doRequest(router, http.MethodPost, "/v1/forms/12/submissions", submissionBody, authed("sess-c"))
	first := doRequest(router, http.MethodGet, "/v1/sessions/sess-c/footer", "", authed("sess-c"))
	second := doRequest(router, http.MethodGet, "/v1/sessions/sess-c/footer", "", authed("sess-c"))

	// Assert
	require.Equal(t, http.StatusCreated, submit.Code)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), "formLayerDeliver")
	assert.Contains(t, first.Body.String(), "wpforms_12_1709287200_4821")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Empty(t, second.Body.String())
}

func TestConfirmation_AppendsScript(t *testing.T) {
	router := newTestRouter(t)

	doRequest(router, http.MethodPost, "/v1/forms/12/submissions", submissionBody, authed("sess-d", "X-Requested-With", "XMLHttpRequest"))
	w := doRequest(router, http.MethodPost, "/v1/forms/12/confirmation", `{"message": "<p>Grazie!</p>"}`, authed("sess-d"))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body["message"], "<p>Grazie!</p><script>"))
}

func TestSubmit_Validation(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/v1/forms/12/submissions",
		`{"fields": [{"id": 1, "type": "text", "value": "a"}, {"id": 1, "type": "text", "value": "b"}]}`, authed("sess-e"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "repeated")
}

func TestAPIKeyRequired(t *testing.T) {
	router := newTestRouter(t)

	missing := doRequest(router, http.MethodGet, "/v1/forms/12/settings", "", nil)
	wrong := doRequest(router, http.MethodGet, "/v1/forms/12/settings", "", map[string]string{APIKeyHeader: "nope"})

	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
}

func TestSettings_PutThenGet(t *testing.T) {
	// Arrange
	router := newTestRouter(t)

	// Act
	put := doRequest(router, http.MethodPut, "/v1/forms/30/settings",
		`{"eventName": "newsletter_signup", "excludedFieldIds": "4, 5", "debug": true}`, authed("s"))
	get := doRequest(router, http.MethodGet, "/v1/forms/30/settings", "", authed("s"))

	// Assert
	require.Equal(t, http.StatusOK, put.Code)
	require.Equal(t, http.StatusOK, get.Code)
	var settings models.FormSettings
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &settings))
	assert.Equal(t, "newsletter_signup", settings.EventName)
	assert.Equal(t, "4,5", settings.ExcludedFieldIDs)
	assert.True(t, settings.Debug)
}

func TestSettings_RejectsInvalidInput(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPut, "/v1/forms/30/settings", `{"eventName": "two words", "excludedFieldIds": "4,<b>"}`, authed("s"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "eventName")
	assert.Contains(t, w.Body.String(), "excludedFieldIds")
}

func TestSessionKeyGeneratedWhenMissing(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodPost, "/v1/forms/12/submissions", submissionBody, map[string]string{APIKeyHeader: testAPIKey})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.SessionHeader))
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.SessionCookie+"=")
}

func TestAssets_ListenerWithNamespace(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/assets/formlayer.js?forms=12,40", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/javascript")
	assert.Contains(t, w.Body.String(), `"forms":{"12":"lead_form","40":"wpforms_submission"}`)
	assert.Contains(t, w.Body.String(), `"ajaxurl":"https://host.example/wp-admin/admin-ajax.php"`)
}

func TestSweepAndPublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	sweep := doRequest(router, http.MethodPost, "/v1/maintenance/sweep", "", authed("s"))
	health := doRequest(router, http.MethodGet, "/health", "", nil)
	statusResp := doRequest(router, http.MethodGet, "/status", "", nil)
	metricsResp := doRequest(router, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, sweep.Code)
	assert.JSONEq(t, `{"records":0,"expired":0,"failures":0}`, sweep.Body.String())
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, http.StatusOK, statusResp.Code)
	assert.Contains(t, statusResp.Body.String(), "notices")
	assert.Equal(t, http.StatusOK, metricsResp.Code)
}

func TestDebug_DisabledArchive(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/v1/forms/12/debug/wpforms_12_1709287200_4821", "", authed("s"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettings_ListForms(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(router, http.MethodGet, "/v1/forms", "", authed("s"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"formTitle":"Contatti"`)
}

func TestPushes_CountAndGet(t *testing.T) {
	// Arrange
	router := newTestRouter(t)

	// Act
	count := doRequest(router, http.MethodGet, "/v1/forms/12/pushes", "", authed("s"))
	found := doRequest(router, http.MethodGet, "/v1/forms/12/pushes/wpforms_12_1709287200_1111", "", authed("s"))
	otherForm := doRequest(router, http.MethodGet, "/v1/forms/40/pushes/wpforms_12_1709287200_1111", "", authed("s"))
	unknown := doRequest(router, http.MethodGet, "/v1/forms/12/pushes/wpforms_12_1709287200_9999", "", authed("s"))

	// Assert
	require.Equal(t, http.StatusOK, count.Code)
	assert.JSONEq(t, `{"formId":"12","count":1}`, count.Body.String())
	require.Equal(t, http.StatusOK, found.Code)
	assert.Contains(t, found.Body.String(), `"channel":"broker"`)
	assert.Equal(t, http.StatusNotFound, otherForm.Code)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}
