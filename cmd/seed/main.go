// Command main runs the database seeder for DeviceHub.
package main

import (
	"flag"
	"log"

	"devicehub/internal/config"
	"devicehub/internal/database"
	"devicehub/internal/seed"
)

func main() {
	numDonors := flag.Int("donors", seed.DefaultPlan.NumDonors, "Number of donor accounts to create")
	numRequesters := flag.Int("requesters", seed.DefaultPlan.NumRequesters, "Number of requester accounts to create")
	devicesPerDonor := flag.Int("devices", seed.DefaultPlan.DevicesPerDonor, "Max devices listed per donor")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("fast", false, "Skip bcrypt hashing (dev only, much faster)")
	flag.Parse()

	log.Println("DeviceHub seeder")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(database.DB, seed.Options{SkipBcrypt: *skipBcrypt})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	plan := seed.Plan{
		NumDonors:       *numDonors,
		NumRequesters:   *numRequesters,
		DevicesPerDonor: *devicesPerDonor,
	}
	if err := s.Seed(plan); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
