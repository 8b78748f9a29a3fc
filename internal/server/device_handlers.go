package server

import (
	"strings"

	"devicehub/internal/models"
	"devicehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetDevices handles GET /api/devices — the public catalog of approved,
// active devices.
func (s *Server) GetDevices(c *fiber.Ctx) error {
	page := parsePageParams(c)
	category := strings.TrimSpace(c.Query("category"))
	search := strings.TrimSpace(c.Query("search"))

	devices, err := s.deviceService.ListAvailable(c.Context(), category, search, page.Page, page.PageSize)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(devices)
}

// GetDevice handles GET /api/devices/:id
func (s *Server) GetDevice(c *fiber.Ctx) error {
	deviceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	device, err := s.deviceService.GetDevice(c.Context(), deviceID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(device)
}

// CreateDevice handles POST /api/devices
func (s *Server) CreateDevice(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Condition   string `json:"condition"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	device, err := s.deviceService.CreateDevice(c.Context(), service.CreateDeviceInput{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Condition:   req.Condition,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(device)
}

// GetMyDevices handles GET /api/devices/me
func (s *Server) GetMyDevices(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	devices, err := s.deviceService.ListMine(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(devices)
}

// SetDeviceActive handles PUT /api/devices/:id/active
func (s *Server) SetDeviceActive(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	deviceID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("is_active is required"))
	}

	admin, adminErr := s.isAdmin(c, userID)
	if adminErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(adminErr))
	}

	device, err := s.deviceService.SetDeviceActive(c.Context(), deviceID, userID, admin, *req.IsActive)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(device)
}
