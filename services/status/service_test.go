package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/formlayer/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestProbe_HostUp(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer host.Close()

	svc := NewService(host.URL, getLogger())

	require.NoError(t, svc.Probe(context.Background()))
	assert.Empty(t, svc.Notices())
}

func TestProbe_HostDownLeavesNotice(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer host.Close()

	svc := NewService(host.URL, getLogger())

	err := svc.Probe(context.Background())

	require.Error(t, err)
	notices := svc.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelWarning, notices[0].Level)
	assert.Contains(t, notices[0].Message, host.URL)
}

func TestProbe_NoHostConfigured(t *testing.T) {
	svc := NewService("", getLogger())

	require.NoError(t, svc.Probe(context.Background()))
	require.Len(t, svc.Notices(), 1)
	assert.Equal(t, LevelInfo, svc.Notices()[0].Level)
}

func TestHostCheck_ServerErrorCarriesStatusAndStack(t *testing.T) {
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer host.Close()

	svc := NewService(host.URL, getLogger())

	err := svc.Probe(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
	_, hasStack := errors.Cause(err).(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)
}
