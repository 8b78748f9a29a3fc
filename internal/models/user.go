// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// VerificationStatus represents the account-level trust flag gating whether a
// user may request devices.
type VerificationStatus string

const (
	// VerificationStatusUnverified indicates the user never submitted verification.
	VerificationStatusUnverified VerificationStatus = "unverified"
	// VerificationStatusPending indicates a submitted verification awaiting review.
	VerificationStatusPending VerificationStatus = "pending"
	// VerificationStatusVerified indicates an admin-approved account.
	VerificationStatusVerified VerificationStatus = "verified"
	// VerificationStatusRejected indicates an admin-rejected verification.
	VerificationStatusRejected VerificationStatus = "rejected"
)

// User represents a donor or requester account.
type User struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	Username           string             `gorm:"unique;not null" json:"username"`
	Email              string             `gorm:"unique;not null" json:"email"`
	Password           string             `gorm:"not null" json:"-"`
	Bio                string             `json:"bio"`
	Avatar             string             `json:"avatar"`
	IsAdmin            bool               `gorm:"default:false" json:"is_admin"`
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);not null;default:'unverified';index" json:"verification_status"`
	VerificationNote   string             `gorm:"type:text" json:"verification_note,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
	DeletedAt          gorm.DeletedAt     `gorm:"index" json:"-"`
	Devices            []Device           `gorm:"foreignKey:OwnerID" json:"devices,omitempty"`
}

// IsVerified reports whether the user may create device requests.
func (u *User) IsVerified() bool {
	return u.VerificationStatus == VerificationStatusVerified
}
