package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/realtime"
	"github.com/jobtradesasa/server/internal/services/jobs"
	"github.com/jobtradesasa/server/internal/validation"
	"github.com/redis/go-redis/v9"
)

type JobHandler struct {
	DB   *gorm.DB
	Jobs *jobs.Service
	Hub  *realtime.Hub
	RDB  *redis.Client
}

func NewJobHandler(db *gorm.DB, svc *jobs.Service, hub *realtime.Hub, rdb *redis.Client) *JobHandler {
	return &JobHandler{DB: db, Jobs: svc, Hub: hub, RDB: rdb}
}

type UserMini struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone,omitempty"`
	PhotoURL string  `json:"photo_url,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

type CategoryMini struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// JobResponse is the one job projection used everywhere a job goes out.
type JobResponse struct {
	ID            string         `json:"id"`
	RequesterID   string         `json:"requester_id"`
	ProviderID    *string        `json:"provider_id,omitempty"`
	CategoryID    string         `json:"category_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Photos        datatypes.JSON `json:"photos,omitempty"`
	Lat           string         `json:"lat"`
	Lng           string         `json:"lng"`
	Address       string         `json:"address"`
	Urgency       string         `json:"urgency"`
	PreferredTime *time.Time     `json:"preferred_time,omitempty"`
	Status        string         `json:"status"`
	AgreedPrice   *int64         `json:"agreed_price,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`

	Requester *UserMini     `json:"requester,omitempty"`
	Provider  *UserMini     `json:"provider,omitempty"`
	Category  *CategoryMini `json:"category,omitempty"`
}

func toUserMini(u *models.User) *UserMini {
	if u == nil {
		return nil
	}
	m := &UserMini{
		ID:       u.ID.String(),
		Name:     u.Name,
		Phone:    u.Phone,
		PhotoURL: u.PhotoURL,
	}
	if u.ProviderProfile != nil {
		m.Rating = u.ProviderProfile.RatingAvg
	}
	return m
}

func toJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:            job.ID.String(),
		RequesterID:   job.RequesterID.String(),
		CategoryID:    job.CategoryID.String(),
		Title:         job.Title,
		Description:   job.Description,
		Photos:        job.Photos,
		Lat:           job.Lat,
		Lng:           job.Lng,
		Address:       job.Address,
		Urgency:       string(job.Urgency),
		PreferredTime: job.PreferredTime,
		Status:        string(job.Status),
		AgreedPrice:   job.AgreedPrice,
		CreatedAt:     job.CreatedAt,
		Requester:     toUserMini(job.Requester),
		Provider:      toUserMini(job.Provider),
	}
	if job.ProviderID != nil {
		s := job.ProviderID.String()
		resp.ProviderID = &s
	}
	if job.Category != nil {
		resp.Category = &CategoryMini{
			ID:   job.Category.ID.String(),
			Name: job.Category.Name,
			Icon: job.Category.Icon,
		}
	}
	return resp
}

type CreateJobReq struct {
	CategoryID    string         `json:"category_id" validate:"required,uuid"`
	Title         string         `json:"title" validate:"required,min=3,max=160"`
	Description   string         `json:"description" validate:"required,min=10"`
	Photos        datatypes.JSON `json:"photos"`
	Lat           string         `json:"lat" validate:"required"`
	Lng           string         `json:"lng" validate:"required"`
	Address       string         `json:"address" validate:"required"`
	Urgency       string         `json:"urgency" validate:"omitempty,oneof=normal emergency"`
	PreferredTime *time.Time     `json:"preferred_time"`
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateJobReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	categoryID, _ := uuid.Parse(req.CategoryID)
	job, err := h.Jobs.Create(userUUID, models.Role(getRole(c)), jobs.CreateInput{
		CategoryID:    categoryID,
		Title:         req.Title,
		Description:   req.Description,
		Photos:        req.Photos,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Address:       req.Address,
		Urgency:       models.Urgency(req.Urgency),
		PreferredTime: req.PreferredTime,
	})
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    toJobResponse(job),
	})
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	filter := jobs.ListFilter{Sort: c.Query("sort")}

	if v := c.Query("category"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid category id",
			})
		}
		filter.CategoryID = &id
	}
	if v := c.Query("status"); v != "" {
		st := models.JobStatus(v)
		if !models.ValidJobStatus(st) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "invalid status",
			})
		}
		filter.Status = &st
	}
	switch c.Query("mine") {
	case "requester":
		filter.RequesterID = &userUUID
	case "provider":
		filter.ProviderID = &userUUID
	}

	list, err := h.Jobs.List(filter)
	if err != nil {
		return respondErr(c, err)
	}

	out := make([]JobResponse, 0, len(list))
	for i := range list {
		out = append(out, toJobResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	job, err := h.Jobs.Get(jobID, userUUID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(job)})
}

// Accept is the contested transition: first provider wins, everyone
// else gets a conflict.
func (h *JobHandler) Accept(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	job, err := h.Jobs.Accept(jobID, userUUID, models.Role(getRole(c)))
	if err != nil {
		return respondErr(c, err)
	}

	h.notifyStatus(job)
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(job)})
}

type UpdateStatusReq struct {
	Status      string `json:"status"`
	AgreedPrice *int64 `json:"agreed_price" validate:"omitempty,gt=0"`
}

func (h *JobHandler) UpdateStatus(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid job id",
		})
	}

	var req UpdateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if errs := validation.Struct(&req); errs != nil {
		return validationFail(c, errs)
	}

	if req.Status == "" && req.AgreedPrice == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "nothing to update",
		})
	}

	// price-only PATCH records the figure without a transition
	if req.Status == "" {
		job, err := h.Jobs.SetAgreedPrice(jobID, userUUID, *req.AgreedPrice)
		if err != nil {
			return respondErr(c, err)
		}
		h.notifyStatus(job)
		return c.JSON(fiber.Map{"success": true, "data": toJobResponse(job)})
	}

	job, err := h.Jobs.Advance(jobID, userUUID, models.Role(getRole(c)), models.JobStatus(req.Status), req.AgreedPrice)
	if err != nil {
		return respondErr(c, err)
	}

	h.notifyStatus(job)
	return c.JSON(fiber.Map{"success": true, "data": toJobResponse(job)})
}

// notifyStatus pushes a job_update frame to both participants through
// the same channel-per-user fan-out the chat relay uses.
func (h *JobHandler) notifyStatus(job *models.Job) {
	payload := fiber.Map{
		"type":    "job_update",
		"payload": toJobResponse(job),
	}

	recipients := []uuid.UUID{job.RequesterID}
	if job.ProviderID != nil {
		recipients = append(recipients, *job.ProviderID)
	}
	for _, uid := range recipients {
		publishToUser(h.Hub, h.RDB, uid, payload)
	}
}
