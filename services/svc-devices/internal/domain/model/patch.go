package model

import (
	"encoding/json"
	"fmt"
)

const (
	PatchFieldName         = "name"
	PatchFieldBrand        = "brand"
	PatchFieldState        = "state"
	PatchFieldCreationTime = "creationTime"

	reasonCreationTime = "creationTime can not be updated"
)

type (
	// PatchOp is one recognised change of a partial update.
	// The set of implementations is closed: SetName, SetBrand, SetState and RejectCreationTime.
	PatchOp interface {
		patchOp()
	}

	SetName struct {
		Value string
	}

	SetBrand struct {
		Value string
	}

	// SetState carries the raw state name; it is parsed when applied.
	SetState struct {
		Value string
	}

	// RejectCreationTime marks a patch that tried to touch creationTime.
	RejectCreationTime struct{}

	Patch []PatchOp
)

func (SetName) patchOp()            {}
func (SetBrand) patchOp()           {}
func (SetState) patchOp()           {}
func (RejectCreationTime) patchOp() {}

// DecodePatch turns a JSON object into patch operations. Keys other than
// name, brand, state and creationTime are ignored. Operations are ordered by
// field, not by their position in the document.
func DecodePatch(doc map[string]json.RawMessage) (Patch, error) {
	patch := make(Patch, 0, len(doc))

	if _, ok := doc[PatchFieldCreationTime]; ok {
		patch = append(patch, RejectCreationTime{})
	}

	if raw, ok := doc[PatchFieldName]; ok {
		value, err := decodeNullableString(PatchFieldName, raw)
		if err != nil {
			return nil, err
		}

		patch = append(patch, SetName{Value: value})
	}

	if raw, ok := doc[PatchFieldBrand]; ok {
		value, err := decodeNullableString(PatchFieldBrand, raw)
		if err != nil {
			return nil, err
		}

		patch = append(patch, SetBrand{Value: value})
	}

	if raw, ok := doc[PatchFieldState]; ok {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, PatchFieldState)
		}

		patch = append(patch, SetState{Value: value})
	}

	return patch, nil
}

func decodeNullableString(field string, raw json.RawMessage) (string, error) {
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidPatch, field)
	}

	if value == nil {
		return "", nil
	}

	return *value, nil
}

// Apply merges the patch onto a copy of current. A RejectCreationTime
// anywhere in the patch fails before any field is touched, and current is never modified.
func (p Patch) Apply(current *Device) (*Device, error) {
	for _, op := range p {
		if _, ok := op.(RejectCreationTime); ok {
			return nil, &InvalidOperationError{DeviceID: current.ID, Reason: reasonCreationTime}
		}
	}

	merged := current.clone()

	for _, op := range p {
		switch op := op.(type) {
		case SetName:
			merged.Name = op.Value
		case SetBrand:
			merged.Brand = op.Value
		case SetState:
			state, err := ParseState(op.Value)
			if err != nil {
				return nil, err
			}

			merged.State = state
		case RejectCreationTime:
		default:
			panic(fmt.Sprintf("model: unhandled patch operation %T", op))
		}
	}

	return merged, nil
}
