package repository

import (
	"context"
	"errors"

	"devicehub/internal/models"
	"devicehub/internal/observability"

	"gorm.io/gorm"
)

// DeviceFilter narrows device listing queries.
type DeviceFilter struct {
	Status     *models.DeviceStatus
	Category   string
	Search     string
	OnlyActive bool
}

// DeviceRepository defines the interface for device data operations
type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	GetByID(ctx context.Context, id uint) (*models.Device, error)
	Update(ctx context.Context, device *models.Device) error
	SetStatus(ctx context.Context, id uint, status models.DeviceStatus) error
	SetActive(ctx context.Context, id uint, active bool) error
	List(ctx context.Context, filter DeviceFilter, limit, offset int) ([]models.Device, int64, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Device, error)
}

// deviceRepository implements DeviceRepository
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Create(ctx context.Context, device *models.Device) error {
	if err := r.db.WithContext(ctx).Create(device).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deviceRepository) GetByID(ctx context.Context, id uint) (*models.Device, error) {
	var device models.Device
	if err := r.db.WithContext(ctx).Preload("Owner").First(&device, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Device", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &device, nil
}

func (r *deviceRepository) Update(ctx context.Context, device *models.Device) error {
	if err := r.db.WithContext(ctx).Save(device).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *deviceRepository) SetStatus(ctx context.Context, id uint, status models.DeviceStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Device", id)
	}
	return nil
}

func (r *deviceRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Device", id)
	}
	return nil
}

func (r *deviceRepository) List(ctx context.Context, filter DeviceFilter, limit, offset int) ([]models.Device, int64, error) {
	defer observability.TrackQuery("list", "devices")()
	query := r.db.WithContext(ctx).Model(&models.Device{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var devices []models.Device
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&devices).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return devices, total, nil
}

func (r *deviceRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Device, error) {
	var devices []models.Device
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&devices).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return devices, nil
}
