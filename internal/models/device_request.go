package models

import "time"

// RequestStatus defines lifecycle states for device requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting review.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved indicates the request was accepted by an admin or the device owner.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected indicates the request was declined.
	RequestStatusRejected RequestStatus = "rejected"
	// RequestStatusCompleted indicates the approved request was fulfilled.
	RequestStatusCompleted RequestStatus = "completed"
)

// MaxOpenRequests is the cap on concurrently open (pending + approved) requests
// a single requester may hold across all devices.
const MaxOpenRequests = 3

// OpenRequestStatuses are the statuses that count toward the uniqueness and cap
// invariants.
var OpenRequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusApproved}

// DeviceRequest is a requester's expression of interest in a specific device.
// DeviceID and RequesterID are immutable after creation; only the lifecycle
// fields (Status, AdminNotes, RejectionReason) change afterwards.
type DeviceRequest struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	DeviceID        uint          `gorm:"not null;index" json:"device_id"`
	Device          *Device       `gorm:"foreignKey:DeviceID" json:"device,omitempty"`
	RequesterID     uint          `gorm:"not null;index" json:"requester_id"`
	Requester       *User         `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Message         string        `gorm:"type:text;not null" json:"message"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	AdminNotes      string        `gorm:"type:text" json:"admin_notes,omitempty"`
	RejectionReason string        `gorm:"type:text" json:"rejection_reason,omitempty"`
	ReviewedByID    *uint         `json:"reviewed_by_id,omitempty"`
	ReviewedBy      *User         `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (DeviceRequest) TableName() string {
	return "device_requests"
}

// IsOpen reports whether the request counts toward the uniqueness and cap invariants.
func (r *DeviceRequest) IsOpen() bool {
	return r.Status == RequestStatusPending || r.Status == RequestStatusApproved
}

// CanTransitionTo reports whether the lifecycle allows moving from the current
// status to target. No-op transitions are not allowed.
func (r *DeviceRequest) CanTransitionTo(target RequestStatus) bool {
	switch r.Status {
	case RequestStatusPending:
		return target == RequestStatusApproved || target == RequestStatusRejected
	case RequestStatusApproved:
		return target == RequestStatusCompleted
	default:
		// rejected and completed are terminal
		return false
	}
}
