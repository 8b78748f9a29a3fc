package service

import (
	"context"
	"errors"

	"devicehub/internal/models"
	"devicehub/internal/observability"
	"devicehub/internal/repository"
)

// EligibilityService decides whether a requester may open a request for a
// device. The decision is read-only and evaluated fresh on every call; the
// storage layer re-validates the duplicate and cap rules atomically at insert
// time, so a stale answer here can never corrupt the invariants.
type EligibilityService struct {
	userRepo    repository.UserRepository
	deviceRepo  repository.DeviceRepository
	requestRepo repository.DeviceRequestRepository
}

// NewEligibilityService returns a new EligibilityService.
func NewEligibilityService(
	userRepo repository.UserRepository,
	deviceRepo repository.DeviceRepository,
	requestRepo repository.DeviceRequestRepository,
) *EligibilityService {
	return &EligibilityService{
		userRepo:    userRepo,
		deviceRepo:  deviceRepo,
		requestRepo: requestRepo,
	}
}

// CanRequest evaluates the eligibility checks in fixed order; the first
// failing check supplies the reason. ActiveRequestCount is always populated.
func (s *EligibilityService) CanRequest(ctx context.Context, deviceID, requesterID uint) (*models.EligibilityResult, error) {
	openCount, err := s.requestRepo.CountOpenByRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	result := &models.EligibilityResult{ActiveRequestCount: int(openCount)}

	// 1. Device must exist, be approved, and be active.
	device, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return s.deny(result, models.ReasonDeviceNotAvailable, "device_unavailable"), nil
		}
		return nil, err
	}
	if !device.IsRequestable() {
		return s.deny(result, models.ReasonDeviceNotAvailable, "device_unavailable"), nil
	}

	// 2. Requester must be verified. The fetch sits after the device check so
	// an unknown requester never masks an unavailable device.
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !requester.IsVerified() {
		return s.deny(result, verificationReason(requester.VerificationStatus), "verification"), nil
	}

	// 3. No open request for this (device, requester) pair.
	existing, err := s.requestRepo.GetOpenByDeviceAndRequester(ctx, deviceID, requesterID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.ExistingRequest = existing
		return s.deny(result, models.ReasonDuplicateRequest, "duplicate"), nil
	}

	// 4. Open-count cap across all devices.
	if openCount >= models.MaxOpenRequests {
		return s.deny(result, models.ReasonMaxActiveRequests, "cap"), nil
	}

	result.CanRequest = true
	return result, nil
}

func (s *EligibilityService) deny(result *models.EligibilityResult, reason, category string) *models.EligibilityResult {
	result.CanRequest = false
	result.Reason = reason
	observability.EligibilityDenials.WithLabelValues(category).Inc()
	return result
}

func verificationReason(status models.VerificationStatus) string {
	switch status {
	case models.VerificationStatusPending:
		return models.ReasonVerificationPending
	case models.VerificationStatusRejected:
		return models.ReasonVerificationRejected
	default:
		return models.ReasonVerificationRequired
	}
}
