// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"devicehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options tunes factory behavior.
type Options struct {
	// SkipBcrypt stores a plaintext marker password instead of hashing.
	// Much faster for large seeds; never use outside local development.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var deviceCatalog = []struct {
	category string
	names    []string
}{
	{"laptop", []string{"ThinkPad T480", "Dell Latitude 7400", "MacBook Air 2019", "HP EliteBook 840", "Chromebook Duet"}},
	{"phone", []string{"iPhone 11", "Pixel 6a", "Galaxy S21", "Moto G Power"}},
	{"tablet", []string{"iPad 8th Gen", "Fire HD 10", "Galaxy Tab A8"}},
	{"desktop", []string{"OptiPlex 7070", "iMac 21.5", "HP ProDesk 600"}},
	{"accessory", []string{"24in Monitor", "USB-C Dock", "Mechanical Keyboard", "Webcam C920"}},
}

var deviceConditions = []string{"like new", "good", "fair", "worn"}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:           gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:              gofakeit.Email(),
		Bio:                gofakeit.Sentence(10),
		Avatar:             fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		VerificationStatus: models.VerificationStatusUnverified,
	}

	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateDevice constructs and persists a device listing owned by the given user.
func (f *Factory) CreateDevice(owner *models.User, overrides ...func(*models.Device)) (*models.Device, error) {
	entry := deviceCatalog[f.rng.Intn(len(deviceCatalog))]
	device := &models.Device{
		Name:        entry.names[f.rng.Intn(len(entry.names))],
		Description: gofakeit.Paragraph(1, 2, 8, "\n"),
		Category:    entry.category,
		Condition:   deviceConditions[f.rng.Intn(len(deviceConditions))],
		Status:      models.DeviceStatusPending,
		IsActive:    true,
		OwnerID:     owner.ID,
	}

	// realistic created_at spread over the last 90 days
	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)
	device.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(device)
	}

	if err := f.db.Create(device).Error; err != nil {
		return nil, err
	}
	return device, nil
}

// CreateRequest constructs and persists a device request. Callers are
// responsible for respecting the open-request invariants; the partial unique
// index will reject duplicate open pairs.
func (f *Factory) CreateRequest(device *models.Device, requester *models.User, overrides ...func(*models.DeviceRequest)) (*models.DeviceRequest, error) {
	request := &models.DeviceRequest{
		DeviceID:    device.ID,
		RequesterID: requester.ID,
		Message:     gofakeit.Sentence(12),
		Status:      models.RequestStatusPending,
	}

	for _, override := range overrides {
		override(request)
	}

	if err := f.db.Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}
