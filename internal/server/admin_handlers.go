package server

import (
	"strings"

	"devicehub/internal/models"
	"devicehub/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetAdminRequests handles GET /api/admin/requests with optional
// status/device_id/requester_id filters.
func (s *Server) GetAdminRequests(c *fiber.Ctx) error {
	page := parsePageParams(c)

	status, err := parseRequestStatus(c.Query("status"))
	if err != nil {
		return respondServiceError(c, err)
	}

	filter := repository.RequestFilter{Status: status}
	if deviceID := c.QueryInt("device_id", 0); deviceID > 0 {
		id := uint(deviceID)
		filter.DeviceID = &id
	}
	if requesterID := c.QueryInt("requester_id", 0); requesterID > 0 {
		id := uint(requesterID)
		filter.RequesterID = &id
	}

	requests, err := s.requestService.ListRequests(c.Context(), filter, page.Page, page.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// ApproveRequest handles POST /api/admin/requests/:id/approve
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	return s.transitionRequest(c, models.RequestStatusApproved)
}

// RejectRequest handles POST /api/admin/requests/:id/reject
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	return s.transitionRequest(c, models.RequestStatusRejected)
}

// CompleteRequest handles POST /api/admin/requests/:id/complete
func (s *Server) CompleteRequest(c *fiber.Ctx) error {
	return s.transitionRequest(c, models.RequestStatusCompleted)
}

// transitionRequest applies a reviewer-initiated lifecycle transition. The
// admin routes sit behind AdminRequired; the device-owner routes perform
// their ownership check before delegating here.
func (s *Server) transitionRequest(c *fiber.Ctx, target models.RequestStatus) error {
	reviewerID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.applyTransition(c, requestID, reviewerID, target)
}

func (s *Server) applyTransition(c *fiber.Ctx, requestID, reviewerID uint, target models.RequestStatus) error {
	var body struct {
		AdminNotes      string `json:"admin_notes"`
		RejectionReason string `json:"rejection_reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	request, err := s.requestService.SetStatus(c.Context(), requestID, target, repository.StatusChange{
		ReviewedByID:    &reviewerID,
		AdminNotes:      strings.TrimSpace(body.AdminNotes),
		RejectionReason: strings.TrimSpace(body.RejectionReason),
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// GetAdminDevices handles GET /api/admin/devices. Defaults to pending
// moderation queue; status=all lists every device.
func (s *Server) GetAdminDevices(c *fiber.Ctx) error {
	page := parsePageParams(c)
	raw := strings.TrimSpace(c.Query("status", string(models.DeviceStatusPending)))

	var status *models.DeviceStatus
	if raw != "all" {
		switch models.DeviceStatus(raw) {
		case models.DeviceStatusPending, models.DeviceStatusApproved, models.DeviceStatusRejected:
			parsed := models.DeviceStatus(raw)
			status = &parsed
		default:
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("status must be one of: pending, approved, rejected, all"))
		}
	}

	devices, err := s.deviceService.ListForModeration(c.Context(), status, page.Page, page.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(devices)
}

// ApproveDevice handles POST /api/admin/devices/:id/approve
func (s *Server) ApproveDevice(c *fiber.Ctx) error {
	return s.moderateDevice(c, true)
}

// RejectDevice handles POST /api/admin/devices/:id/reject
func (s *Server) RejectDevice(c *fiber.Ctx) error {
	return s.moderateDevice(c, false)
}

func (s *Server) moderateDevice(c *fiber.Ctx, approve bool) error {
	deviceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	device, err := s.deviceService.ModerateDevice(c.Context(), deviceID, approve)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(device)
}

// GetPendingVerifications handles GET /api/admin/verifications
func (s *Server) GetPendingVerifications(c *fiber.Ctx) error {
	page := parsePageParams(c)
	offset := (page.Page - 1) * page.PageSize

	var users []models.User
	if err := s.db.WithContext(c.Context()).
		Where("verification_status = ?", models.VerificationStatusPending).
		Order("updated_at ASC").
		Limit(page.PageSize).
		Offset(offset).
		Find(&users).Error; err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(users)
}

// ApproveVerification handles POST /api/admin/verifications/:id/approve
func (s *Server) ApproveVerification(c *fiber.Ctx) error {
	return s.reviewVerification(c, true)
}

// RejectVerification handles POST /api/admin/verifications/:id/reject
func (s *Server) RejectVerification(c *fiber.Ctx) error {
	return s.reviewVerification(c, false)
}

func (s *Server) reviewVerification(c *fiber.Ctx, approve bool) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var body struct {
		Note string `json:"note"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	user, err := s.verificationService.ReviewVerification(c.Context(), userID, approve, strings.TrimSpace(body.Note))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// PromoteToAdmin handles POST /api/admin/users/:id/promote
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdminFlag(c, true)
}

// DemoteFromAdmin handles POST /api/admin/users/:id/demote
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdminFlag(c, false)
}

func (s *Server) setAdminFlag(c *fiber.Ctx, isAdmin bool) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.SetAdmin(c.Context(), targetID, isAdmin)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
