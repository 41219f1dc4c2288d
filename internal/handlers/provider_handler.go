package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/services/jobs"
	"github.com/jobtradesasa/server/internal/services/providers"
)

type ProviderHandler struct {
	DB        *gorm.DB
	Providers *providers.Service
	Jobs      *jobs.Service
}

func NewProviderHandler(db *gorm.DB, psvc *providers.Service, jsvc *jobs.Service) *ProviderHandler {
	return &ProviderHandler{DB: db, Providers: psvc, Jobs: jsvc}
}

type ProviderResult struct {
	User       *UserMini `json:"user"`
	Online     bool      `json:"online"`
	DistanceKm float64   `json:"distance_km"`
	Completed  int       `json:"completed_jobs"`
	RatingAvg  float64   `json:"rating_avg"`
}

// Search finds online providers around a point: ?category&lat&lng&radius
func (h *ProviderHandler) Search(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fiber.ErrUnauthorized
	}

	in := providers.SearchInput{
		Lat: c.Query("lat"),
		Lng: c.Query("lng"),
	}
	if v := c.Query("radius"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid radius",
			})
		}
		in.RadiusKm = r
	}
	if v := c.Query("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid category id",
			})
		}
		in.CategoryID = &id
	}

	hits, err := h.Providers.Search(in)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]ProviderResult, 0, len(hits))
	for i := range hits {
		u := hits[i].User
		r := ProviderResult{
			User:       toUserMini(&u),
			DistanceKm: hits[i].DistanceKm,
		}
		if u.ProviderProfile != nil {
			r.Online = u.ProviderProfile.Online
			r.Completed = u.ProviderProfile.CompletedJobs
			r.RatingAvg = u.ProviderProfile.RatingAvg
		}
		out = append(out, r)
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *ProviderHandler) Stats(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	stats, err := h.Providers.Stats(userUUID, models.Role(getRole(c)))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": stats})
}

func (h *ProviderHandler) RecentJobs(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	list, err := h.Jobs.RecentForProvider(userUUID, 10)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]JobResponse, 0, len(list))
	for i := range list {
		out = append(out, toJobResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
