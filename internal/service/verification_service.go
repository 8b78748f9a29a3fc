// Package service contains the business logic for devicehub.
package service

import (
	"context"

	"devicehub/internal/models"
	"devicehub/internal/repository"
)

// VerificationService answers and mutates the account-level verification flag
// that gates device requests.
type VerificationService struct {
	userRepo repository.UserRepository
}

// NewVerificationService returns a new VerificationService.
func NewVerificationService(userRepo repository.UserRepository) *VerificationService {
	return &VerificationService{userRepo: userRepo}
}

// GetVerificationStatus returns the requester's current verification status.
func (s *VerificationService) GetVerificationStatus(ctx context.Context, userID uint) (models.VerificationStatus, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.VerificationStatus, nil
}

// SubmitVerification moves an unverified or previously rejected account into
// the pending queue for admin review.
func (s *VerificationService) SubmitVerification(ctx context.Context, userID uint, note string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	switch user.VerificationStatus {
	case models.VerificationStatusVerified:
		return nil, models.NewValidationError("Account is already verified")
	case models.VerificationStatusPending:
		return nil, models.NewValidationError("Verification is already pending review")
	}

	if err := s.userRepo.UpdateVerificationStatus(ctx, userID, models.VerificationStatusPending, note); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ReviewVerification resolves a pending verification. A rejection records the
// reviewer's note so the user can see why.
func (s *VerificationService) ReviewVerification(ctx context.Context, userID uint, approve bool, note string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.VerificationStatus != models.VerificationStatusPending {
		return nil, models.NewValidationError("Verification is not pending review")
	}

	status := models.VerificationStatusRejected
	if approve {
		status = models.VerificationStatusVerified
	} else if note == "" {
		return nil, models.NewValidationError("A note is required when rejecting a verification")
	}

	if err := s.userRepo.UpdateVerificationStatus(ctx, userID, status, note); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}
