package server

import (
	"devicehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateDeviceRequest handles POST /api/devices/:id/requests
func (s *Server) CreateDeviceRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	deviceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.requestService.CreateRequest(c.Context(), deviceID, userID, req.Message)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

// GetRequestEligibility handles GET /api/devices/:id/requests/eligibility
func (s *Server) GetRequestEligibility(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	deviceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.requestService.CanRequest(c.Context(), deviceID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetMyRequests handles GET /api/requests/me
func (s *Server) GetMyRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePageParams(c)

	status, err := parseRequestStatus(c.Query("status"))
	if err != nil {
		return respondServiceError(c, err)
	}

	requests, err := s.requestService.ListMyRequests(c.Context(), userID, status, page.Page, page.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetRequest handles GET /api/requests/:id
func (s *Server) GetRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, adminErr := s.isAdmin(c, userID)
	if adminErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(adminErr))
	}

	request, err := s.requestService.GetRequest(c.Context(), requestID, userID, admin)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(request)
}

// ReviewRequestApprove handles POST /api/requests/:id/approve for the owner
// of the requested device. Admins pass through unchanged.
func (s *Server) ReviewRequestApprove(c *fiber.Ctx) error {
	return s.ownerTransitionRequest(c, models.RequestStatusApproved)
}

// ReviewRequestReject handles POST /api/requests/:id/reject
func (s *Server) ReviewRequestReject(c *fiber.Ctx) error {
	return s.ownerTransitionRequest(c, models.RequestStatusRejected)
}

// ReviewRequestComplete handles POST /api/requests/:id/complete
func (s *Server) ReviewRequestComplete(c *fiber.Ctx) error {
	return s.ownerTransitionRequest(c, models.RequestStatusCompleted)
}

// ownerTransitionRequest authorizes the caller as an admin or as the owner of
// the device the request targets, then applies the same transition path the
// admin routes use. The state machine never sees which actor drove it.
func (s *Server) ownerTransitionRequest(c *fiber.Ctx, target models.RequestStatus) error {
	actorID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	admin, adminErr := s.isAdmin(c, actorID)
	if adminErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(adminErr))
	}
	if !admin {
		request, err := s.requestService.GetRequest(c.Context(), requestID, actorID, false)
		if err != nil {
			return respondServiceError(c, err)
		}
		if request.Device == nil || request.Device.OwnerID != actorID {
			return respondServiceError(c,
				models.NewForbiddenError("Only the device owner may review this request"))
		}
	}

	return s.applyTransition(c, requestID, actorID, target)
}

// CancelRequest handles DELETE /api/requests/:id. Only the owning requester
// may cancel, and only while the request is still pending.
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.requestService.Cancel(c.Context(), requestID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Request cancelled"})
}
