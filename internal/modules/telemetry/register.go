package telemetry

import (
	"context"
	"log/slog"
	"net/http"

	"invernadero-server/internal/config"
	"invernadero-server/internal/modules/telemetry/controller"
	"invernadero-server/internal/modules/telemetry/repository"
	"invernadero-server/internal/modules/telemetry/service"
	"invernadero-server/internal/mqtt"
)

// MQTTSubscriber is implemented by mqtt.Subscriber.
type MQTTSubscriber interface {
	SetMessageHandler(handler mqtt.MessageHandler)
}

func RegisterFeature(mux *http.ServeMux, repo repository.TelemetryRepository, cfg config.Config, logger *slog.Logger, subscriber MQTTSubscriber) {
	ingestor := service.NewIngestor(repo, cfg.StoreTimeout, logger)
	reader := service.NewReader(repo, cfg.StoreTimeout, logger)

	telemetryController := controller.NewTelemetryController(ingestor, reader, cfg.HTTPMaxBodyBytes, logger)
	telemetryController.RegisterRoutes(mux)

	if subscriber != nil {
		registerMQTTHandler(subscriber, ingestor)
	}
}

func registerMQTTHandler(subscriber MQTTSubscriber, ingestor *service.Ingestor) {
	subscriber.SetMessageHandler(func(ctx context.Context, payload []byte) error {
		_, err := ingestor.Ingest(ctx, "mqtt", payload)
		return err
	})
}
