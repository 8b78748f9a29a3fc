package seed

import (
	"fmt"
	"log"

	"devicehub/internal/models"

	"gorm.io/gorm"
)

// Plan describes how much data to generate.
type Plan struct {
	NumDonors     int
	NumRequesters int
	// DevicesPerDonor is the upper bound; each donor lists 1..N devices.
	DevicesPerDonor int
}

// DefaultPlan is the plan used when no flags are given.
var DefaultPlan = Plan{
	NumDonors:       15,
	NumRequesters:   40,
	DevicesPerDonor: 4,
}

// Seeder populates the database with a plausible marketplace snapshot:
// admins, donors with moderated listings, and verified requesters holding
// open requests within the per-user cap.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes all seeded domain data. Requests go first to satisfy
// foreign keys.
func (s *Seeder) ClearAll() error {
	for _, stmt := range []string{
		"DELETE FROM device_requests",
		"DELETE FROM devices",
		"DELETE FROM users",
	} {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}
	return nil
}

// Seed generates the full snapshot described by the plan.
func (s *Seeder) Seed(plan Plan) error {
	log.Printf("seeding %d donors, %d requesters", plan.NumDonors, plan.NumRequesters)

	admin, err := s.factory.CreateUser(func(u *models.User) {
		u.Username = "admin"
		u.Email = "admin@devicehub.local"
		u.IsAdmin = true
		u.VerificationStatus = models.VerificationStatusVerified
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	devices, err := s.seedDonors(plan)
	if err != nil {
		return err
	}
	log.Printf("created %d devices", len(devices))

	requesters, err := s.seedRequesters(plan)
	if err != nil {
		return err
	}

	if err := s.seedRequests(devices, requesters, admin); err != nil {
		return err
	}

	log.Println("seeding complete; all users have password: password123")
	return nil
}

func (s *Seeder) seedDonors(plan Plan) ([]*models.Device, error) {
	var devices []*models.Device
	for i := 0; i < plan.NumDonors; i++ {
		donor, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create donor: %w", err)
		}

		perDonor := plan.DevicesPerDonor
		if perDonor < 1 {
			perDonor = 1
		}
		count := 1 + s.factory.rng.Intn(perDonor)
		for j := 0; j < count; j++ {
			device, err := s.factory.CreateDevice(donor, func(d *models.Device) {
				// Roughly: most listings approved, some still queued, a few rejected.
				switch s.factory.rng.Intn(10) {
				case 0:
					d.Status = models.DeviceStatusRejected
				case 1, 2:
					d.Status = models.DeviceStatusPending
				default:
					d.Status = models.DeviceStatusApproved
				}
			})
			if err != nil {
				return nil, fmt.Errorf("create device: %w", err)
			}
			devices = append(devices, device)
		}
	}
	return devices, nil
}

func (s *Seeder) seedRequesters(plan Plan) ([]*models.User, error) {
	var requesters []*models.User
	for i := 0; i < plan.NumRequesters; i++ {
		requester, err := s.factory.CreateUser(func(u *models.User) {
			switch s.factory.rng.Intn(10) {
			case 0:
				u.VerificationStatus = models.VerificationStatusRejected
				u.VerificationNote = "Could not confirm identity documents"
			case 1, 2:
				u.VerificationStatus = models.VerificationStatusPending
			case 3:
				u.VerificationStatus = models.VerificationStatusUnverified
			default:
				u.VerificationStatus = models.VerificationStatusVerified
			}
		})
		if err != nil {
			return nil, fmt.Errorf("create requester: %w", err)
		}
		requesters = append(requesters, requester)
	}
	return requesters, nil
}

// seedRequests gives each verified requester up to the open-request cap,
// spread across requestable devices, with a slice of the history already
// reviewed.
func (s *Seeder) seedRequests(devices []*models.Device, requesters []*models.User, admin *models.User) error {
	var requestable []*models.Device
	for _, d := range devices {
		if d.IsRequestable() {
			requestable = append(requestable, d)
		}
	}
	if len(requestable) == 0 {
		return nil
	}

	created := 0
	for _, requester := range requesters {
		if !requester.IsVerified() {
			continue
		}

		open := 0
		seen := make(map[uint]bool)
		want := s.factory.rng.Intn(models.MaxOpenRequests + 1)
		for attempts := 0; open < want && attempts < want*4; attempts++ {
			device := requestable[s.factory.rng.Intn(len(requestable))]
			if seen[device.ID] {
				continue
			}
			seen[device.ID] = true

			_, err := s.factory.CreateRequest(device, requester, func(r *models.DeviceRequest) {
				if s.factory.rng.Intn(4) == 0 {
					r.Status = models.RequestStatusApproved
					r.ReviewedByID = &admin.ID
					r.AdminNotes = "Approved during seeding"
				}
			})
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			open++
			created++
		}

		// Occasional closed history entry; does not count toward the cap.
		if s.factory.rng.Intn(3) == 0 {
			device := requestable[s.factory.rng.Intn(len(requestable))]
			if !seen[device.ID] {
				_, err := s.factory.CreateRequest(device, requester, func(r *models.DeviceRequest) {
					r.Status = models.RequestStatusRejected
					r.ReviewedByID = &admin.ID
					r.RejectionReason = "Another requester was selected"
				})
				if err != nil {
					return fmt.Errorf("create closed request: %w", err)
				}
				created++
			}
		}
	}

	log.Printf("created %d requests", created)
	return nil
}
