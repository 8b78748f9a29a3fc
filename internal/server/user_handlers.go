package server

import (
	"strings"

	"devicehub/internal/models"
	"devicehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   userID,
		Username: strings.TrimSpace(req.Username),
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetMyVerificationStatus handles GET /api/verification/me
func (s *Server) GetMyVerificationStatus(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	status, err := s.verificationService.GetVerificationStatus(c.Context(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"verification_status": status})
}

// SubmitVerification handles POST /api/verification
func (s *Server) SubmitVerification(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Note string `json:"note"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	user, err := s.verificationService.SubmitVerification(c.Context(), userID, strings.TrimSpace(req.Note))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}
