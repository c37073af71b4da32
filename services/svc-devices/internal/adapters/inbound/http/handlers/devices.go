package handlers

import (
	"encoding/json"
	"net/http"
	"path"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases/commands"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases/queries"
	"github.com/go-chi/chi/v5"
)

const (
	IDParam    = "id"
	BrandParam = "brand"
	StateParam = "state"
)

type DeviceHandler struct {
	app    *usecases.Application
	logger logger.Logger
}

func NewDeviceHandler(app *usecases.Application, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{
		app:    app,
		logger: log,
	}
}

func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	var req DeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	name, brand, state, err := req.validateCreate()
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	device, err := h.app.Commands.CreateDevice.Handle(r.Context(), commands.CreateDeviceCommand{
		Name:  name,
		Brand: brand,
		State: state,
	})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	w.Header().Set(locationHeader, path.Join(r.URL.Path, device.ID.String()))
	writeJSONResponse(w, http.StatusCreated, toDeviceResponse(device))
}

func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, IDParam))
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	device, err := h.app.Queries.GetDevice.Execute(r.Context(), queries.GetDeviceQuery{ID: id})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toDeviceResponse(device))
}

// ListDevices filters by brand when the brand parameter is present, otherwise by state.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var filter model.DeviceFilter

	switch {
	case params.Has(BrandParam):
		brand := params.Get(BrandParam)
		filter.Brand = &brand
	case params.Has(StateParam):
		state, err := model.ParseState(params.Get(StateParam))
		if err != nil {
			writeError(w, r, h.logger, err)

			return
		}

		filter.State = &state
	}

	devices, err := h.app.Queries.ListDevices.Execute(r.Context(), queries.ListDevicesQuery{Filter: filter})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toDeviceListResponse(devices))
}

func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, IDParam))
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	var req DeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	name, brand, state, err := req.forUpdate()
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	device, err := h.app.Commands.UpdateDevice.Handle(r.Context(), commands.UpdateDeviceCommand{
		ID:    id,
		Name:  name,
		Brand: brand,
		State: state,
	})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) PatchDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, IDParam))
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	var doc map[string]json.RawMessage
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	patch, err := model.DecodePatch(doc)
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	device, err := h.app.Commands.PatchDevice.Handle(r.Context(), commands.PatchDeviceCommand{
		ID:    id,
		Patch: patch,
	})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, toDeviceResponse(device))
}

func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParseDeviceID(chi.URLParam(r, IDParam))
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	if _, err := h.app.Commands.DeleteDevice.Handle(r.Context(), commands.DeleteDeviceCommand{ID: id}); err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
