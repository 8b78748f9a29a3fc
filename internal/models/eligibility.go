package models

// Eligibility reason strings surfaced verbatim to callers when a request
// cannot be created. The storage layer reuses the duplicate/cap reasons when
// its transactional re-check fails, so pre-check and insert always agree.
const (
	ReasonDeviceNotAvailable   = "Device not available"
	ReasonVerificationRequired = "verification required"
	ReasonVerificationPending  = "verification pending"
	ReasonVerificationRejected = "verification rejected"
	ReasonDuplicateRequest     = "You already have an active request for this device"
	ReasonMaxActiveRequests    = "Maximum active requests (3) reached"
)

// EligibilityResult is the outcome of a request eligibility check.
type EligibilityResult struct {
	CanRequest         bool           `json:"can_request"`
	Reason             string         `json:"reason,omitempty"`
	ActiveRequestCount int            `json:"active_request_count"`
	ExistingRequest    *DeviceRequest `json:"existing_request,omitempty"`
}
