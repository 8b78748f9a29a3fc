package service

import (
	"context"
	"fmt"
	"strings"

	"devicehub/internal/middleware"
	"devicehub/internal/models"
	"devicehub/internal/notifications"
	"devicehub/internal/repository"
	"devicehub/internal/validation"
)

// RequestPage is a paginated slice of device requests.
type RequestPage struct {
	Items      []models.DeviceRequest `json:"items"`
	Total      int64                  `json:"total"`
	TotalPages int                    `json:"total_pages"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
}

// RequestService owns the device request lifecycle: creation behind the
// eligibility engine, admin transitions, requester cancellation, and listing.
type RequestService struct {
	requestRepo repository.DeviceRequestRepository
	eligibility *EligibilityService
	notifier    *notifications.Notifier
}

// NewRequestService returns a new RequestService. notifier may be nil.
func NewRequestService(
	requestRepo repository.DeviceRequestRepository,
	eligibility *EligibilityService,
	notifier *notifications.Notifier,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		eligibility: eligibility,
		notifier:    notifier,
	}
}

// CreateRequest validates the message, re-evaluates eligibility, and inserts a
// pending request. The repository re-checks the duplicate and cap rules inside
// its transaction; a storage-level conflict surfaces as CONFLICT for the
// caller to retry once.
func (s *RequestService) CreateRequest(ctx context.Context, deviceID, requesterID uint, message string) (*models.DeviceRequest, error) {
	if err := validation.ValidateRequestMessage(message); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	result, err := s.eligibility.CanRequest(ctx, deviceID, requesterID)
	if err != nil {
		return nil, err
	}
	if !result.CanRequest {
		return nil, models.NewIneligibleError(result.Reason)
	}

	request := &models.DeviceRequest{
		DeviceID:    deviceID,
		RequesterID: requesterID,
		Message:     strings.TrimSpace(message),
		Status:      models.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	created, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "request.created", created)
	return created, nil
}

// CanRequest exposes the eligibility decision without mutating anything.
func (s *RequestService) CanRequest(ctx context.Context, deviceID, requesterID uint) (*models.EligibilityResult, error) {
	return s.eligibility.CanRequest(ctx, deviceID, requesterID)
}

// GetRequest returns a request visible to the actor: the requester, the device
// owner, or an admin.
func (s *RequestService) GetRequest(ctx context.Context, requestID, actorID uint, isAdmin bool) (*models.DeviceRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && request.RequesterID != actorID && (request.Device == nil || request.Device.OwnerID != actorID) {
		return nil, models.NewForbiddenError("You do not have access to this request")
	}
	return request, nil
}

// SetStatus applies a lifecycle transition on behalf of a reviewer. Rejection
// requires a non-empty reason before the transition is attempted.
func (s *RequestService) SetStatus(ctx context.Context, requestID uint, target models.RequestStatus, change repository.StatusChange) (*models.DeviceRequest, error) {
	switch target {
	case models.RequestStatusApproved, models.RequestStatusRejected, models.RequestStatusCompleted:
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown target status: %s", target))
	}

	if target == models.RequestStatusRejected && strings.TrimSpace(change.RejectionReason) == "" {
		return nil, models.NewMissingRejectionReasonError()
	}

	updated, err := s.requestRepo.SetStatus(ctx, requestID, target, change)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "request."+string(target), updated)
	return updated, nil
}

// Cancel removes a pending request. Only the owning requester may cancel, and
// only while the request is still pending; cancellation deletes the record.
// The ownership and pending checks run inside the repository transaction so a
// concurrent approval cannot be erased by a cancel racing it.
func (s *RequestService) Cancel(ctx context.Context, requestID, requesterID uint) error {
	request, err := s.requestRepo.CancelPending(ctx, requestID, requesterID)
	if err != nil {
		return err
	}

	s.publish(ctx, "request.cancelled", request)
	return nil
}

// ListRequests returns a page of requests matching the filter.
func (s *RequestService) ListRequests(ctx context.Context, filter repository.RequestFilter, page, pageSize int) (*RequestPage, error) {
	offset := (page - 1) * pageSize
	items, total, err := s.requestRepo.List(ctx, filter, pageSize, offset)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &RequestPage{
		Items:      items,
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// ListMyRequests returns a page of the requester's own requests.
func (s *RequestService) ListMyRequests(ctx context.Context, requesterID uint, status *models.RequestStatus, page, pageSize int) (*RequestPage, error) {
	return s.ListRequests(ctx, repository.RequestFilter{
		RequesterID: &requesterID,
		Status:      status,
	}, page, pageSize)
}

// publish sends a lifecycle event best-effort; delivery failures are logged
// and never fail the mutation that already committed.
func (s *RequestService) publish(ctx context.Context, eventType string, request *models.DeviceRequest) {
	if s.notifier == nil {
		return
	}
	event := notifications.RequestEvent{
		Type:        eventType,
		RequestID:   request.ID,
		DeviceID:    request.DeviceID,
		RequesterID: request.RequesterID,
		Status:      string(request.Status),
	}
	if err := s.notifier.PublishRequestEvent(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish request event",
			"event_type", eventType,
			"request_id", request.ID,
			"error", err,
		)
	}
}
