package handlers

import (
	"github.com/customeros/formlayer/config"
	"github.com/customeros/formlayer/internal/logger"
	"github.com/customeros/formlayer/services"
)

type APIHandlers struct {
	Submissions *SubmissionsHandler
	Delivery    *DeliveryHandler
	Settings    *SettingsHandler
	Assets      *AssetsHandler
	Debug       *DebugHandler
	Pushes      *PushesHandler
}

func InitHandlers(cfg *config.Config, log logger.Logger, s *services.Services) *APIHandlers {
	return &APIHandlers{
		Submissions: NewSubmissionsHandler(log, s.Assembler, s.FormSettingsService, s.DeliveryService),
		Delivery:    NewDeliveryHandler(log, s.DeliveryService),
		Settings:    NewSettingsHandler(s.FormSettingsService),
		Assets:      NewAssetsHandler(cfg.DataLayerConfig, s.FormSettingsService),
		Debug:       NewDebugHandler(s.DebugArchive),
		Pushes:      NewPushesHandler(s.PushLog),
	}
}
