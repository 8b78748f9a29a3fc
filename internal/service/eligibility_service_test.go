package service

import (
	"context"
	"testing"

	"devicehub/internal/models"
	"devicehub/internal/repository"
)

type deviceRepoStub struct {
	createFn      func(context.Context, *models.Device) error
	getByIDFn     func(context.Context, uint) (*models.Device, error)
	updateFn      func(context.Context, *models.Device) error
	setStatusFn   func(context.Context, uint, models.DeviceStatus) error
	setActiveFn   func(context.Context, uint, bool) error
	listFn        func(context.Context, repository.DeviceFilter, int, int) ([]models.Device, int64, error)
	listByOwnerFn func(context.Context, uint) ([]models.Device, error)
}

func (s *deviceRepoStub) Create(ctx context.Context, device *models.Device) error {
	return s.createFn(ctx, device)
}
func (s *deviceRepoStub) GetByID(ctx context.Context, id uint) (*models.Device, error) {
	return s.getByIDFn(ctx, id)
}
func (s *deviceRepoStub) Update(ctx context.Context, device *models.Device) error {
	return s.updateFn(ctx, device)
}
func (s *deviceRepoStub) SetStatus(ctx context.Context, id uint, status models.DeviceStatus) error {
	return s.setStatusFn(ctx, id, status)
}
func (s *deviceRepoStub) SetActive(ctx context.Context, id uint, active bool) error {
	return s.setActiveFn(ctx, id, active)
}
func (s *deviceRepoStub) List(ctx context.Context, filter repository.DeviceFilter, limit, offset int) ([]models.Device, int64, error) {
	return s.listFn(ctx, filter, limit, offset)
}
func (s *deviceRepoStub) ListByOwner(ctx context.Context, ownerID uint) ([]models.Device, error) {
	return s.listByOwnerFn(ctx, ownerID)
}

func noopDeviceRepo() *deviceRepoStub {
	return &deviceRepoStub{
		createFn: func(context.Context, *models.Device) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Device, error) {
			return &models.Device{ID: 1, Status: models.DeviceStatusApproved, IsActive: true}, nil
		},
		updateFn:    func(context.Context, *models.Device) error { return nil },
		setStatusFn: func(context.Context, uint, models.DeviceStatus) error { return nil },
		setActiveFn: func(context.Context, uint, bool) error { return nil },
		listFn: func(context.Context, repository.DeviceFilter, int, int) ([]models.Device, int64, error) {
			return nil, 0, nil
		},
		listByOwnerFn: func(context.Context, uint) ([]models.Device, error) { return nil, nil },
	}
}

type requestRepoStub struct {
	createFn                      func(context.Context, *models.DeviceRequest) error
	getByIDFn                     func(context.Context, uint) (*models.DeviceRequest, error)
	getOpenByDeviceAndRequesterFn func(context.Context, uint, uint) (*models.DeviceRequest, error)
	countOpenByRequesterFn        func(context.Context, uint) (int64, error)
	setStatusFn                   func(context.Context, uint, models.RequestStatus, repository.StatusChange) (*models.DeviceRequest, error)
	cancelPendingFn               func(context.Context, uint, uint) (*models.DeviceRequest, error)
	listFn                        func(context.Context, repository.RequestFilter, int, int) ([]models.DeviceRequest, int64, error)
}

func (s *requestRepoStub) Create(ctx context.Context, request *models.DeviceRequest) error {
	return s.createFn(ctx, request)
}
func (s *requestRepoStub) GetByID(ctx context.Context, id uint) (*models.DeviceRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *requestRepoStub) GetOpenByDeviceAndRequester(ctx context.Context, deviceID, requesterID uint) (*models.DeviceRequest, error) {
	return s.getOpenByDeviceAndRequesterFn(ctx, deviceID, requesterID)
}
func (s *requestRepoStub) CountOpenByRequester(ctx context.Context, requesterID uint) (int64, error) {
	return s.countOpenByRequesterFn(ctx, requesterID)
}
func (s *requestRepoStub) SetStatus(ctx context.Context, id uint, target models.RequestStatus, change repository.StatusChange) (*models.DeviceRequest, error) {
	return s.setStatusFn(ctx, id, target, change)
}
func (s *requestRepoStub) CancelPending(ctx context.Context, id, requesterID uint) (*models.DeviceRequest, error) {
	return s.cancelPendingFn(ctx, id, requesterID)
}
func (s *requestRepoStub) List(ctx context.Context, filter repository.RequestFilter, limit, offset int) ([]models.DeviceRequest, int64, error) {
	return s.listFn(ctx, filter, limit, offset)
}

func noopRequestRepo() *requestRepoStub {
	return &requestRepoStub{
		createFn:  func(context.Context, *models.DeviceRequest) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.DeviceRequest, error) { return &models.DeviceRequest{}, nil },
		getOpenByDeviceAndRequesterFn: func(context.Context, uint, uint) (*models.DeviceRequest, error) {
			return nil, nil
		},
		countOpenByRequesterFn: func(context.Context, uint) (int64, error) { return 0, nil },
		setStatusFn: func(context.Context, uint, models.RequestStatus, repository.StatusChange) (*models.DeviceRequest, error) {
			return &models.DeviceRequest{}, nil
		},
		cancelPendingFn: func(context.Context, uint, uint) (*models.DeviceRequest, error) {
			return &models.DeviceRequest{}, nil
		},
		listFn: func(context.Context, repository.RequestFilter, int, int) ([]models.DeviceRequest, int64, error) {
			return nil, 0, nil
		},
	}
}

func verifiedUserRepo() *userRepoStub {
	repo := noopUserRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.User, error) {
		return &models.User{ID: 2, VerificationStatus: models.VerificationStatusVerified}, nil
	}
	return repo
}

func TestEligibilityAllChecksPass(t *testing.T) {
	svc := NewEligibilityService(verifiedUserRepo(), noopDeviceRepo(), noopRequestRepo())

	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CanRequest {
		t.Fatalf("expected eligible, got reason %q", result.Reason)
	}
	if result.Reason != "" {
		t.Fatalf("expected no reason, got %q", result.Reason)
	}
}

func TestEligibilityDeviceMissing(t *testing.T) {
	deviceRepo := noopDeviceRepo()
	deviceRepo.getByIDFn = func(context.Context, uint) (*models.Device, error) {
		return nil, models.NewNotFoundError("Device", 1)
	}

	svc := NewEligibilityService(verifiedUserRepo(), deviceRepo, noopRequestRepo())
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonDeviceNotAvailable {
		t.Fatalf("expected %q, got %q", models.ReasonDeviceNotAvailable, result.Reason)
	}
}

func TestEligibilityDeviceInactive(t *testing.T) {
	deviceRepo := noopDeviceRepo()
	deviceRepo.getByIDFn = func(context.Context, uint) (*models.Device, error) {
		return &models.Device{ID: 1, Status: models.DeviceStatusApproved, IsActive: false}, nil
	}

	svc := NewEligibilityService(verifiedUserRepo(), deviceRepo, noopRequestRepo())
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonDeviceNotAvailable {
		t.Fatalf("expected %q, got %q", models.ReasonDeviceNotAvailable, result.Reason)
	}
}

func TestEligibilityVerificationReasons(t *testing.T) {
	cases := []struct {
		status models.VerificationStatus
		reason string
	}{
		{models.VerificationStatusUnverified, models.ReasonVerificationRequired},
		{models.VerificationStatusPending, models.ReasonVerificationPending},
		{models.VerificationStatusRejected, models.ReasonVerificationRejected},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			userRepo := noopUserRepo()
			userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
				return &models.User{ID: 2, VerificationStatus: tc.status}, nil
			}

			svc := NewEligibilityService(userRepo, noopDeviceRepo(), noopRequestRepo())
			result, err := svc.CanRequest(context.Background(), 1, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.CanRequest || result.Reason != tc.reason {
				t.Fatalf("expected %q, got %q", tc.reason, result.Reason)
			}
		})
	}
}

// Device availability is checked before verification, so an unverified user
// asking about an inactive device sees the device reason.
func TestEligibilityDeviceCheckedBeforeVerification(t *testing.T) {
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
		return &models.User{ID: 2, VerificationStatus: models.VerificationStatusUnverified}, nil
	}
	deviceRepo := noopDeviceRepo()
	deviceRepo.getByIDFn = func(context.Context, uint) (*models.Device, error) {
		return &models.Device{ID: 1, Status: models.DeviceStatusPending, IsActive: true}, nil
	}

	svc := NewEligibilityService(userRepo, deviceRepo, noopRequestRepo())
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != models.ReasonDeviceNotAvailable {
		t.Fatalf("expected device reason to win, got %q", result.Reason)
	}
}

// An unknown requester asking about an unavailable device sees the device
// reason; the requester lookup only matters once the device check passes.
func TestEligibilityDeviceCheckedBeforeRequesterLookup(t *testing.T) {
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(context.Context, uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", 2)
	}
	deviceRepo := noopDeviceRepo()
	deviceRepo.getByIDFn = func(context.Context, uint) (*models.Device, error) {
		return &models.Device{ID: 1, Status: models.DeviceStatusApproved, IsActive: false}, nil
	}

	svc := NewEligibilityService(userRepo, deviceRepo, noopRequestRepo())
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonDeviceNotAvailable {
		t.Fatalf("expected device reason to win, got %q", result.Reason)
	}

	// With an available device the missing requester surfaces as an error.
	deviceRepo.getByIDFn = func(context.Context, uint) (*models.Device, error) {
		return &models.Device{ID: 1, Status: models.DeviceStatusApproved, IsActive: true}, nil
	}
	if _, err := svc.CanRequest(context.Background(), 1, 2); err == nil {
		t.Fatal("expected user lookup error once the device check passes")
	}
}

func TestEligibilityDuplicateRequest(t *testing.T) {
	requestRepo := noopRequestRepo()
	requestRepo.getOpenByDeviceAndRequesterFn = func(context.Context, uint, uint) (*models.DeviceRequest, error) {
		return &models.DeviceRequest{ID: 42, Status: models.RequestStatusPending}, nil
	}
	requestRepo.countOpenByRequesterFn = func(context.Context, uint) (int64, error) { return 1, nil }

	svc := NewEligibilityService(verifiedUserRepo(), noopDeviceRepo(), requestRepo)
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonDuplicateRequest {
		t.Fatalf("expected %q, got %q", models.ReasonDuplicateRequest, result.Reason)
	}
	if result.ExistingRequest == nil || result.ExistingRequest.ID != 42 {
		t.Fatalf("expected existing request 42, got %#v", result.ExistingRequest)
	}
	if result.ActiveRequestCount != 1 {
		t.Fatalf("expected active count 1, got %d", result.ActiveRequestCount)
	}
}

func TestEligibilityOpenRequestCap(t *testing.T) {
	requestRepo := noopRequestRepo()
	requestRepo.countOpenByRequesterFn = func(context.Context, uint) (int64, error) {
		return models.MaxOpenRequests, nil
	}

	svc := NewEligibilityService(verifiedUserRepo(), noopDeviceRepo(), requestRepo)
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanRequest || result.Reason != models.ReasonMaxActiveRequests {
		t.Fatalf("expected %q, got %q", models.ReasonMaxActiveRequests, result.Reason)
	}
	if result.ActiveRequestCount != models.MaxOpenRequests {
		t.Fatalf("expected active count %d, got %d", models.MaxOpenRequests, result.ActiveRequestCount)
	}
}

func TestEligibilityUnderCapIsEligible(t *testing.T) {
	requestRepo := noopRequestRepo()
	requestRepo.countOpenByRequesterFn = func(context.Context, uint) (int64, error) {
		return models.MaxOpenRequests - 1, nil
	}

	svc := NewEligibilityService(verifiedUserRepo(), noopDeviceRepo(), requestRepo)
	result, err := svc.CanRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.CanRequest {
		t.Fatalf("expected eligible at %d open requests, got reason %q", models.MaxOpenRequests-1, result.Reason)
	}
}
