package models

import "time"

// DeviceStatus defines the admin moderation state of a listed device.
type DeviceStatus string

const (
	// DeviceStatusPending indicates the listing is awaiting admin review.
	DeviceStatusPending DeviceStatus = "pending"
	// DeviceStatusApproved indicates the listing passed admin review.
	DeviceStatusApproved DeviceStatus = "approved"
	// DeviceStatusRejected indicates the listing was declined.
	DeviceStatusRejected DeviceStatus = "rejected"
)

// Device is a physical item listed by a donor. A device can be requested only
// while approved and active; IsActive is cleared once the device is fulfilled.
type Device struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"size:120;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Category    string       `gorm:"size:60;index" json:"category"`
	Condition   string       `gorm:"size:40" json:"condition"`
	Status      DeviceStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsActive    bool         `gorm:"not null;default:true;index" json:"is_active"`
	OwnerID     uint         `gorm:"not null;index" json:"owner_id"`
	Owner       *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Device) TableName() string {
	return "devices"
}

// IsRequestable reports whether the device can currently accept new requests.
func (d *Device) IsRequestable() bool {
	return d.Status == DeviceStatusApproved && d.IsActive
}
