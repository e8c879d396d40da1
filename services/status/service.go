// Package status keeps admin notices about the service's surroundings.
package status

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/dto"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/tracing"
	"github.com/customeros/formlayer/internal/utils"
)

const probeTimeout = 5 * time.Second

const (
	LevelInfo    = "info"
	LevelWarning = "warning"
)

type Service struct {
	hostURL string
	client  *http.Client
	log     logger.Logger

	mu      sync.RWMutex
	notices []dto.Notice
}

func NewService(hostURL string, log logger.Logger) *Service {
	return &Service{
		hostURL: hostURL,
		client:  &http.Client{Timeout: probeTimeout},
		log:     log,
	}
}

// Probe checks that the form host answers. A failure becomes a notice; the
// service keeps serving either way.
func (s *Service) Probe(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StatusService.Probe")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if s.hostURL == "" {
		s.set(dto.Notice{Level: LevelInfo, Message: "form host url not configured, submissions are accepted from any caller"})
		return nil
	}
	span.LogFields(log.String("host", s.hostURL))

	err := s.probe(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("form host %s not reachable: %v", s.hostURL, err)
		s.set(dto.Notice{Level: LevelWarning, Message: fmt.Sprintf("form host %s is not reachable; dataLayer events are pushed only for forms it renders", s.hostURL)})
		return err
	}
	s.set()
	return nil
}

func (s *Service) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.hostURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build probe request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "probe request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) set(notices ...dto.Notice) {
	now := utils.Now()
	for i := range notices {
		notices[i].CreatedAt = now
	}
	s.mu.Lock()
	s.notices = notices
	s.mu.Unlock()
}

func (s *Service) Notices() []dto.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dto.Notice, len(s.notices))
	copy(out, s.notices)
	return out
}
