package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"invernadero-server/internal/modules/telemetry/service"
	"invernadero-server/internal/modules/telemetry/types"
	"invernadero-server/internal/utils"
)

const (
	statusMessage      = "API YA ESTA ARRIBA INVERNADERO"
	addDatosInvalidMsg = "addDatos incorrectos"
	filterInvalidMsg   = "filterDatos incorrectos"
)

func (c *telemetryControllerImpl) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": statusMessage})
}

func (c *telemetryControllerImpl) handleAddDatos(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, c.maxBodyBytes)
	if err != nil {
		c.writeBodyError(w, err)
		return
	}

	ids, err := c.ingestor.Ingest(r.Context(), "http", body)
	if err != nil {
		c.writeServiceError(w, err, addDatosInvalidMsg)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"_id": "[" + strings.Join(ids, ", ") + "]",
		"ids": ids,
	})
}

func (c *telemetryControllerImpl) handleDatos(w http.ResponseWriter, r *http.Request) {
	records, err := c.reader.All(r.Context())
	if err != nil {
		c.writeServiceError(w, err, "")
		return
	}
	c.writeRecords(w, records)
}

func (c *telemetryControllerImpl) handleFilterDatos(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, c.maxBodyBytes)
	if err != nil {
		c.writeBodyError(w, err)
		return
	}

	var req types.FilterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, filterInvalidMsg)
		return
	}
	if err := req.Validate(); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	c.writeRange(w, r, req.FechaIni, req.FechaFin)
}

func (c *telemetryControllerImpl) handleFilterDatosPath(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseRange(r.PathValue("rango"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.writeRange(w, r, start, end)
}

func (c *telemetryControllerImpl) writeRange(w http.ResponseWriter, r *http.Request, start, end string) {
	records, err := c.reader.Between(r.Context(), start, end)
	if err != nil {
		c.writeServiceError(w, err, "")
		return
	}
	c.writeRecords(w, records)
}

func (c *telemetryControllerImpl) writeRecords(w http.ResponseWriter, records []types.Record) {
	body, err := service.Encode(records)
	if err != nil {
		c.logger.Error("encode telemetry records", "records", len(records), "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to encode records")
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, body)
}

func (c *telemetryControllerImpl) writeServiceError(w http.ResponseWriter, err error, invalidMsg string) {
	status, msg := statusFor(err, invalidMsg)
	if status >= http.StatusInternalServerError {
		c.logger.Error("telemetry request failed", "status", status, "error", err)
	}
	utils.WriteError(w, status, msg)
}

func (c *telemetryControllerImpl) writeBodyError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if isTooLarge(err) {
		status = http.StatusRequestEntityTooLarge
	}
	utils.WriteError(w, status, fmt.Sprintf("failed to read request body: %v", err))
}
