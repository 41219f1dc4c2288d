package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/services/ratings"
	"github.com/jobtradesasa/server/internal/validation"
)

type RatingHandler struct {
	DB      *gorm.DB
	Ratings *ratings.Service
}

func NewRatingHandler(db *gorm.DB, svc *ratings.Service) *RatingHandler {
	return &RatingHandler{DB: db, Ratings: svc}
}

type SubmitRatingReq struct {
	JobID   string `json:"job_id" validate:"required,uuid"`
	Score   int    `json:"score" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type RatingResponse struct {
	ID        string    `json:"id"`
	JobID     string    `json:"job_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	FromUser  *UserMini `json:"from_user,omitempty"`
}

func toRatingResponse(r *models.Rating) RatingResponse {
	return RatingResponse{
		ID:        r.ID.String(),
		JobID:     r.JobID.String(),
		Score:     r.Score,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
		FromUser:  toUserMini(r.FromUser),
	}
}

func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req SubmitRatingReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	jobID, _ := uuid.Parse(req.JobID)
	rating, err := h.Ratings.Submit(userUUID, models.Role(getRole(c)), ratings.SubmitInput{
		JobID:   jobID,
		Score:   req.Score,
		Comment: req.Comment,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toRatingResponse(rating),
	})
}

func (h *RatingHandler) ForProvider(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fiber.ErrUnauthorized
	}

	providerID, err := uuid.Parse(c.Params("providerId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid provider id",
		})
	}

	list, err := h.Ratings.ForProvider(providerID)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]RatingResponse, 0, len(list))
	for i := range list {
		out = append(out, toRatingResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
