package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
)

const (
	fieldName  = "name"
	fieldBrand = "brand"
	fieldState = "state"
)

// DeviceRequest is the body of create and full update requests.
type DeviceRequest struct {
	Name  *string `json:"name"`
	Brand *string `json:"brand"`
	State *string `json:"state"`
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	return nil
}

// validateCreate collects every field problem at once.
func (req DeviceRequest) validateCreate() (string, string, model.State, error) {
	errs := model.NewValidationErrors()

	if isBlank(req.Name) {
		errs.Add(fieldName, "Name is required", "required")
	}

	if isBlank(req.Brand) {
		errs.Add(fieldBrand, "Brand is required", "required")
	}

	var state model.State

	if req.State == nil {
		errs.Add(fieldState, "state is required", "required")
	} else {
		parsed, err := model.ParseState(*req.State)
		if err != nil {
			errs.Add(fieldState, "state must be one of "+model.StateNames(), "enum")
		}

		state = parsed
	}

	if errs.HasErrors() {
		return "", "", "", errs
	}

	return *req.Name, *req.Brand, state, nil
}

// forUpdate accepts blank name and brand; the state must still be a known value.
func (req DeviceRequest) forUpdate() (string, string, model.State, error) {
	if req.State == nil {
		return "", "", "", fmt.Errorf("%w: state is required", model.ErrInvalidState)
	}

	state, err := model.ParseState(*req.State)
	if err != nil {
		return "", "", "", err
	}

	return valueOf(req.Name), valueOf(req.Brand), state, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
