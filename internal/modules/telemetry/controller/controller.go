package controller

import (
	"log/slog"
	"net/http"

	"invernadero-server/internal/modules/telemetry/service"
)

type TelemetryController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type telemetryControllerImpl struct {
	ingestor     *service.Ingestor
	reader       *service.Reader
	maxBodyBytes int64
	logger       *slog.Logger
}

func NewTelemetryController(ingestor *service.Ingestor, reader *service.Reader, maxBodyBytes int64, logger *slog.Logger) TelemetryController {
	if logger == nil {
		logger = slog.Default()
	}
	return &telemetryControllerImpl{
		ingestor:     ingestor,
		reader:       reader,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

func (c *telemetryControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleStatus)
	mux.HandleFunc("POST /api/v1/addDatos", c.handleAddDatos)
	mux.HandleFunc("GET /api/v1/datos", c.handleDatos)
	mux.HandleFunc("POST /api/v1/filterDatos", c.handleFilterDatos)
	mux.HandleFunc("GET /api/v1/filterDatos/{rango}", c.handleFilterDatosPath)
}
