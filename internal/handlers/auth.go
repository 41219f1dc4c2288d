package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/utils"
	"github.com/jobtradesasa/server/internal/validation"
)

type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Expires   int
}

type SignupReq struct {
	Role            string `json:"role" validate:"required,oneof=requester provider"`
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,min=8,max=30"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

func userJSON(u *models.User) fiber.Map {
	return fiber.Map{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"phone":     u.Phone,
		"role":      u.Role,
		"bio":       u.Bio,
		"photo_url": u.PhotoURL,
		"verified":  u.Verified,
	}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req SignupReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	// email must be free
	var existing models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		errs := validation.FieldErrors{}
		errs.Add("email", "is already registered")
		return validationFail(c, errs)
	} else if err != gorm.ErrRecordNotFound {
		return respondErr(c, err)
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return respondErr(c, err)
	}

	u := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: pw,
		Role:     models.Role(req.Role),
		IsActive: true,
	}

	// provider signup creates the profile row in the same transaction
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		if u.Role == models.RoleProvider {
			profile := models.ProviderProfile{UserID: u.ID}
			if err := tx.Create(&profile).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// the pre-check races the unique index; a concurrent signup
		// with the same email lands here
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			errs := validation.FieldErrors{}
			errs.Add("email", "is already registered")
			return validationFail(c, errs)
		}
		return respondErr(c, err)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Signup successful",
		"data": fiber.Map{
			"user":  userJSON(&u),
			"token": token,
		},
	})
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	var u models.User
	if err := h.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		// same message for unknown email and bad password
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email or password",
		})
	}

	if !u.IsActive {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Account is not active",
		})
	}

	if !utils.CheckPassword(u.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid email or password",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"user":  userJSON(&u),
			"token": token,
		},
	})
}
