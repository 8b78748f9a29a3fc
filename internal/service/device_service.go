package service

import (
	"context"
	"strings"

	"devicehub/internal/models"
	"devicehub/internal/repository"
	"devicehub/internal/validation"
)

// DevicePage is a paginated slice of devices.
type DevicePage struct {
	Items      []models.Device `json:"items"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
}

// CreateDeviceInput carries the fields a donor supplies when listing a device.
type CreateDeviceInput struct {
	OwnerID     uint
	Name        string
	Description string
	Category    string
	Condition   string
}

// DeviceService owns device listings: donor submission, the public catalog,
// and admin moderation.
type DeviceService struct {
	deviceRepo repository.DeviceRepository
}

// NewDeviceService returns a new DeviceService.
func NewDeviceService(deviceRepo repository.DeviceRepository) *DeviceService {
	return &DeviceService{deviceRepo: deviceRepo}
}

// CreateDevice lists a new device. Listings start in pending moderation state
// and are not requestable until an admin approves them.
func (s *DeviceService) CreateDevice(ctx context.Context, in CreateDeviceInput) (*models.Device, error) {
	if err := validation.ValidateDeviceName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	device := &models.Device{
		OwnerID:     in.OwnerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Condition:   in.Condition,
		Status:      models.DeviceStatusPending,
		IsActive:    true,
	}
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// GetDevice returns a single device by id.
func (s *DeviceService) GetDevice(ctx context.Context, id uint) (*models.Device, error) {
	return s.deviceRepo.GetByID(ctx, id)
}

// ListAvailable returns the public catalog: approved, active devices.
func (s *DeviceService) ListAvailable(ctx context.Context, category, search string, page, pageSize int) (*DevicePage, error) {
	approved := models.DeviceStatusApproved
	filter := repository.DeviceFilter{
		Status:     &approved,
		Category:   category,
		Search:     search,
		OnlyActive: true,
	}
	return s.list(ctx, filter, page, pageSize)
}

// ListForModeration returns devices by moderation status for admin review.
func (s *DeviceService) ListForModeration(ctx context.Context, status *models.DeviceStatus, page, pageSize int) (*DevicePage, error) {
	return s.list(ctx, repository.DeviceFilter{Status: status}, page, pageSize)
}

// ListMine returns all devices listed by the owner, regardless of status.
func (s *DeviceService) ListMine(ctx context.Context, ownerID uint) ([]models.Device, error) {
	return s.deviceRepo.ListByOwner(ctx, ownerID)
}

// ModerateDevice resolves a pending listing. Only pending devices can be moderated.
func (s *DeviceService) ModerateDevice(ctx context.Context, id uint, approve bool) (*models.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if device.Status != models.DeviceStatusPending {
		return nil, models.NewValidationError("Device has already been moderated")
	}

	status := models.DeviceStatusRejected
	if approve {
		status = models.DeviceStatusApproved
	}
	if err := s.deviceRepo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.deviceRepo.GetByID(ctx, id)
}

// SetDeviceActive flips the availability flag. Only the owner or an admin may
// retire or relist a device.
func (s *DeviceService) SetDeviceActive(ctx context.Context, id, actorID uint, isAdmin, active bool) (*models.Device, error) {
	device, err := s.deviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && device.OwnerID != actorID {
		return nil, models.NewForbiddenError("You can only change availability of your own devices")
	}

	if err := s.deviceRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.deviceRepo.GetByID(ctx, id)
}

func (s *DeviceService) list(ctx context.Context, filter repository.DeviceFilter, page, pageSize int) (*DevicePage, error) {
	offset := (page - 1) * pageSize
	items, total, err := s.deviceRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &DevicePage{
		Items:      items,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
