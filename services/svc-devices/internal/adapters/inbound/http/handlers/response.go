package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
)

const (
	contentTypeHeader = "Content-Type"
	locationHeader    = "Location"
	applicationJSON   = "application/json"

	timestampLayout = "2006-01-02T15:04:05"
)

type (
	// DeviceResponse is the JSON projection of a device.
	DeviceResponse struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Brand        string    `json:"brand"`
		State        string    `json:"state"`
		CreationTime time.Time `json:"creationTime"`
	}

	ErrorResponse struct {
		Timestamp string `json:"timestamp"`
		Status    int    `json:"status"`
		Error     string `json:"error"`
		Message   string `json:"message"`
		Path      string `json:"path"`
	}

	ValidationErrorResponse struct {
		Timestamp string            `json:"timestamp"`
		Status    int               `json:"status"`
		Error     string            `json:"error"`
		Errors    map[string]string `json:"errors"`
	}
)

func toDeviceResponse(device *model.Device) DeviceResponse {
	return DeviceResponse{
		ID:           device.ID.String(),
		Name:         device.Name,
		Brand:        device.Brand,
		State:        device.State.String(),
		CreationTime: device.CreationTime.UTC(),
	}
}

func toDeviceListResponse(devices []*model.Device) []DeviceResponse {
	list := make([]DeviceResponse, 0, len(devices))
	for _, device := range devices {
		list = append(list, toDeviceResponse(device))
	}

	return list
}

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func timestamp() string {
	return time.Now().UTC().Format(timestampLayout)
}
