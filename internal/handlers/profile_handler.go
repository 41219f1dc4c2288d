package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/validation"
)

type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{DB: db}
}

type UpdateProfileReq struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,min=8,max=30"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
	PhotoURL *string `json:"photo_url"`

	// provider-only fields, ignored for requesters
	Online          *bool    `json:"online"`
	ServiceRadiusKm *float64 `json:"service_radius_km" validate:"omitempty,gt=0"`
	Lat             *string  `json:"lat"`
	Lng             *string  `json:"lng"`
}

// Update patches name/phone/bio and, for providers, availability and
// location on the profile row.
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userUUID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}

	profileUpdates := map[string]interface{}{}
	if user.Role == models.RoleProvider {
		if req.Online != nil {
			profileUpdates["online"] = *req.Online
		}
		if req.ServiceRadiusKm != nil {
			profileUpdates["service_radius_km"] = *req.ServiceRadiusKm
		}
		if req.Lat != nil {
			profileUpdates["lat"] = *req.Lat
		}
		if req.Lng != nil {
			profileUpdates["lng"] = *req.Lng
		}
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			if err := tx.Model(&models.ProviderProfile{}).
				Where("user_id = ?", userUUID).
				Updates(profileUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return respondErr(c, err)
	}

	if err := h.DB.Preload("ProviderProfile").First(&user, "id = ?", userUUID).Error; err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}
