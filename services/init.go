package services

import (
	"github.com/pkg/errors"

	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/datalayer"
	"github.com/customeros/formlayer/internal/listener"
	"github.com/customeros/formlayer/internal/listeners"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/internal/repository"
	"github.com/customeros/formlayer/services/delivery"
	"github.com/customeros/formlayer/services/events"
	"github.com/customeros/formlayer/services/formsettings"
	"github.com/customeros/formlayer/services/status"
	"github.com/customeros/formlayer/services/storage"
)

type Services struct {
	Assembler           interfaces.EventAssembler
	DeliveryService     interfaces.DeliveryService
	FormSettingsService interfaces.FormSettingsService
	StatusService       interfaces.StatusService
	PushLog             interfaces.DataLayerPushRepository
	// nil when object storage is not configured
	DebugArchive interfaces.DebugArchiver

	// nil when RabbitMQ is not configured
	EventsService *events.EventsService
	Subscriber    interfaces.EventSubscriber
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	services := Services{
		Assembler:           datalayer.NewAssembler(cfg.DataLayerConfig, log),
		FormSettingsService: formsettings.NewService(cfg.DataLayerConfig, repos.FormSettingsRepository),
		StatusService:       status.NewService(cfg.AppConfig.FormHostURL, log),
		PushLog:             repos.DataLayerPushRepository,
	}

	// events
	var publisher interfaces.EventPublisher
	if cfg.AppConfig.RabbitMQURL != "" {
		publisherConfig := &events.PublisherConfig{
			MessageTTL:          events.DefaultMessageTTL,
			MaxRetries:          events.DefaultMaxRetries,
			PublishTimeout:      events.DefaultPublishTimeout,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		}
		eventsService, err := events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to init events service")
		}
		services.EventsService = eventsService
		publisher = eventsService.Publisher

		subscriber, err := events.NewRabbitMQSubscriber(cfg.AppConfig.RabbitMQURL, log, &events.SubscriberConfig{
			MaxRetries:          events.DefaultMaxRetries,
			ReconnectBackoff:    events.DefaultReconnectBackoff,
			MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
		})
		if err != nil {
			_ = eventsService.Close()
			return nil, errors.Wrap(err, "failed to init events subscriber")
		}
		dedup := listener.New(listeners.PushLogQueue(repos.DataLayerPushRepository), log,
			cfg.DataLayerConfig.DedupSize, cfg.DataLayerConfig.DedupTTL)
		subscriber.RegisterListener(listeners.NewDataLayerPushListener(log, repos.DataLayerPushRepository, dedup))
		services.Subscriber = subscriber
	} else {
		log.Warn("RABBITMQ_URL not set, server-side dataLayer listener disabled")
	}

	// debug archive
	var archive interfaces.DebugArchiver
	if cfg.R2StorageConfig.Enabled() {
		r2, err := storage.NewR2StorageService(
			cfg.R2StorageConfig.AccountID,
			cfg.R2StorageConfig.AccessKeyID,
			cfg.R2StorageConfig.AccessKeySecret,
			cfg.R2StorageConfig.DebugBucket,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to init debug archive storage")
		}
		archive = storage.NewDebugArchive(r2)
		services.DebugArchive = archive
	}

	services.DeliveryService = delivery.NewService(cfg.DataLayerConfig, log, repos.OptionRepository, publisher, archive)

	return &services, nil
}

// Close releases broker connections.
func (s *Services) Close() error {
	var errs []error
	if s.Subscriber != nil {
		if err := s.Subscriber.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.EventsService != nil {
		if err := s.EventsService.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("errors closing services: %v", errs)
	}
	return nil
}
