package repository

import (
	"context"
	"errors"

	"devicehub/internal/models"
	"devicehub/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestFilter narrows request listing queries.
type RequestFilter struct {
	RequesterID *uint
	DeviceID    *uint
	Status      *models.RequestStatus
}

// StatusChange carries the review metadata recorded alongside a transition.
type StatusChange struct {
	ReviewedByID    *uint
	AdminNotes      string
	RejectionReason string
}

// DeviceRequestRepository defines the interface for device request data operations.
//
// Create and SetStatus enforce the lifecycle invariants transactionally; callers
// perform the user-facing eligibility pre-check, but the repository re-checks the
// duplicate and cap rules under a lock so concurrent creations cannot slip past.
type DeviceRequestRepository interface {
	Create(ctx context.Context, request *models.DeviceRequest) error
	GetByID(ctx context.Context, id uint) (*models.DeviceRequest, error)
	GetOpenByDeviceAndRequester(ctx context.Context, deviceID, requesterID uint) (*models.DeviceRequest, error)
	CountOpenByRequester(ctx context.Context, requesterID uint) (int64, error)
	SetStatus(ctx context.Context, id uint, target models.RequestStatus, change StatusChange) (*models.DeviceRequest, error)
	CancelPending(ctx context.Context, id, requesterID uint) (*models.DeviceRequest, error)
	List(ctx context.Context, filter RequestFilter, limit, offset int) ([]models.DeviceRequest, int64, error)
}

// deviceRequestRepository implements DeviceRequestRepository
type deviceRequestRepository struct {
	db *gorm.DB
}

// NewDeviceRequestRepository creates a new device request repository
func NewDeviceRequestRepository(db *gorm.DB) DeviceRequestRepository {
	return &deviceRequestRepository{db: db}
}

// lockForUpdate applies a row lock on PostgreSQL. SQLite (used in tests) has no
// FOR UPDATE; its single-writer transactions serialize writes anyway.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// isDuplicateKey reports whether err is a unique-constraint violation. GORM's
// TranslateError covers both drivers; the pgconn check is a fallback for raw
// pgx errors that bypass translation.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new pending request. The duplicate and open-cap rules are
// re-checked inside the transaction with the requester row locked, and the
// partial unique index backstops the duplicate rule against concurrent inserts.
func (r *deviceRequestRepository) Create(ctx context.Context, request *models.DeviceRequest) error {
	defer observability.TrackQuery("create", "device_requests")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the requester row to serialize cap checks for this requester.
		var requester models.User
		if err := lockForUpdate(tx).Select("id").First(&requester, request.RequesterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", request.RequesterID)
			}
			return models.NewInternalError(err)
		}

		var openCount int64
		if err := tx.Model(&models.DeviceRequest{}).
			Where("requester_id = ? AND status IN ?", request.RequesterID, models.OpenRequestStatuses).
			Count(&openCount).Error; err != nil {
			return models.NewInternalError(err)
		}
		if openCount >= models.MaxOpenRequests {
			return models.NewIneligibleError(models.ReasonMaxActiveRequests)
		}

		var duplicates int64
		if err := tx.Model(&models.DeviceRequest{}).
			Where("device_id = ? AND requester_id = ? AND status IN ?",
				request.DeviceID, request.RequesterID, models.OpenRequestStatuses).
			Count(&duplicates).Error; err != nil {
			return models.NewInternalError(err)
		}
		if duplicates > 0 {
			return models.NewIneligibleError(models.ReasonDuplicateRequest)
		}

		request.Status = models.RequestStatusPending
		if err := tx.Create(request).Error; err != nil {
			if isDuplicateKey(err) {
				return models.NewConflictError(models.ReasonDuplicateRequest)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
			observability.RequestConflicts.Inc()
		}
		return err
	}
	return nil
}

func (r *deviceRequestRepository) GetByID(ctx context.Context, id uint) (*models.DeviceRequest, error) {
	var request models.DeviceRequest
	if err := r.db.WithContext(ctx).
		Preload("Device").
		Preload("Requester").
		Preload("ReviewedBy").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *deviceRequestRepository) GetOpenByDeviceAndRequester(ctx context.Context, deviceID, requesterID uint) (*models.DeviceRequest, error) {
	var request models.DeviceRequest
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND requester_id = ? AND status IN ?",
			deviceID, requesterID, models.OpenRequestStatuses).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No open request for this pair
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *deviceRequestRepository) CountOpenByRequester(ctx context.Context, requesterID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DeviceRequest{}).
		Where("requester_id = ? AND status IN ?", requesterID, models.OpenRequestStatuses).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// SetStatus applies a lifecycle transition with the request row locked, so
// concurrent reviews of the same request serialize and the loser sees the
// already-transitioned status. Completing a request also retires its device.
func (r *deviceRequestRepository) SetStatus(ctx context.Context, id uint, target models.RequestStatus, change StatusChange) (*models.DeviceRequest, error) {
	defer observability.TrackQuery("set_status", "device_requests")()
	var updated *models.DeviceRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.DeviceRequest
		if err := lockForUpdate(tx).First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Request", id)
			}
			return models.NewInternalError(err)
		}

		if !request.CanTransitionTo(target) {
			return models.NewInvalidTransitionError(request.Status, target)
		}

		request.Status = target
		request.ReviewedByID = change.ReviewedByID
		// Review notes attach on approval only; the rejection reason on rejection.
		if target == models.RequestStatusApproved && change.AdminNotes != "" {
			request.AdminNotes = change.AdminNotes
		}
		if target == models.RequestStatusRejected {
			request.RejectionReason = change.RejectionReason
		}

		if err := tx.Save(&request).Error; err != nil {
			return models.NewInternalError(err)
		}

		if target == models.RequestStatusCompleted {
			// The fulfilled device stops accepting requests.
			var device models.Device
			if err := lockForUpdate(tx).First(&device, request.DeviceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.NewNotFoundError("Device", request.DeviceID)
				}
				return models.NewInternalError(err)
			}
			if !device.IsActive {
				return models.NewConflictError("device has already been fulfilled")
			}
			if err := tx.Model(&device).Update("is_active", false).Error; err != nil {
				return models.NewInternalError(err)
			}
		}

		updated = &request
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.RequestTransitions.WithLabelValues(string(target)).Inc()
	return updated, nil
}

// CancelPending removes a pending request owned by requesterID. The row is
// re-read under lock inside the transaction, so a concurrent approval cannot
// be erased: the loser sees the status the row actually reached. Returns the
// request as it was before deletion.
func (r *deviceRequestRepository) CancelPending(ctx context.Context, id, requesterID uint) (*models.DeviceRequest, error) {
	defer observability.TrackQuery("cancel", "device_requests")()
	var cancelled *models.DeviceRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.DeviceRequest
		if err := lockForUpdate(tx).First(&request, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Request", id)
			}
			return models.NewInternalError(err)
		}

		if request.RequesterID != requesterID {
			return models.NewForbiddenError("You can only cancel your own requests")
		}
		if request.Status != models.RequestStatusPending {
			return models.NewNotCancellableError(request.Status)
		}

		result := tx.Where("status = ?", models.RequestStatusPending).
			Delete(&models.DeviceRequest{}, id)
		if result.Error != nil {
			return models.NewInternalError(result.Error)
		}
		if result.RowsAffected == 0 {
			return models.NewNotCancellableError(request.Status)
		}

		cancelled = &request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (r *deviceRequestRepository) List(ctx context.Context, filter RequestFilter, limit, offset int) ([]models.DeviceRequest, int64, error) {
	defer observability.TrackQuery("list", "device_requests")()
	query := r.db.WithContext(ctx).Model(&models.DeviceRequest{})

	if filter.RequesterID != nil {
		query = query.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.DeviceID != nil {
		query = query.Where("device_id = ?", *filter.DeviceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var requests []models.DeviceRequest
	if err := query.
		Preload("Device").
		Preload("Requester").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&requests).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return requests, total, nil
}
