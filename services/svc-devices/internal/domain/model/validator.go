package model

const reasonInUse = "is currently in use and cannot be updated/deleted"

// ValidateMutable checks the persisted device before an update, patch or delete.
// A device in IN_USE rejects every mutation, including leaving IN_USE.
func ValidateMutable(current *Device) error {
	if current.State == StateInUse {
		return &InvalidOperationError{DeviceID: current.ID, Reason: reasonInUse}
	}

	return nil
}
