package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/apperr"
	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/policy"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type CreateInput struct {
	CategoryID    uuid.UUID
	Title         string
	Description   string
	Photos        datatypes.JSON
	Lat           string
	Lng           string
	Address       string
	Urgency       models.Urgency
	PreferredTime *time.Time
}

type ListFilter struct {
	CategoryID  *uuid.UUID
	Status      *models.JobStatus
	RequesterID *uuid.UUID
	ProviderID  *uuid.UUID
	Sort        string // "recent" (default) or "urgent"
}

// withRelations is the one canonical projection for a job. Every place
// that returns a job goes through it.
func withRelations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Requester").
		Preload("Provider").
		Preload("Provider.ProviderProfile").
		Preload("Category")
}

func (s *Service) Create(requesterID uuid.UUID, role models.Role, in CreateInput) (*models.Job, error) {
	if !policy.Allowed(role, policy.ActionJobCreate) {
		return nil, fmt.Errorf("only requesters can post jobs: %w", apperr.ErrForbidden)
	}

	var category models.Category
	if err := s.DB.First(&category, "id = ?", in.CategoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("category: %w", apperr.ErrNotFound)
		}
		return nil, err
	}

	if in.Urgency == "" {
		in.Urgency = models.UrgencyNormal
	}

	job := models.Job{
		RequesterID:   requesterID,
		CategoryID:    in.CategoryID,
		Title:         in.Title,
		Description:   in.Description,
		Photos:        in.Photos,
		Lat:           in.Lat,
		Lng:           in.Lng,
		Address:       in.Address,
		Urgency:       in.Urgency,
		PreferredTime: in.PreferredTime,
		Status:        models.JobStatusOpen,
	}

	if err := s.DB.Create(&job).Error; err != nil {
		return nil, err
	}
	return s.load(job.ID)
}

// Accept assigns the provider with a single conditional update so that
// of any number of concurrent acceptors exactly one wins. RowsAffected
// discriminates the loser from a missing job.
func (s *Service) Accept(jobID, providerID uuid.UUID, role models.Role) (*models.Job, error) {
	if !policy.Allowed(role, policy.ActionJobAccept) {
		return nil, fmt.Errorf("only providers can accept jobs: %w", apperr.ErrForbidden)
	}

	res := s.DB.Model(&models.Job{}).
		Where("id = ? AND status = ? AND provider_id IS NULL", jobID, models.JobStatusOpen).
		Updates(map[string]interface{}{
			"provider_id": providerID,
			"status":      models.JobStatusAccepted,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		var exists int64
		if err := s.DB.Model(&models.Job{}).Where("id = ?", jobID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("job already taken: %w", apperr.ErrConflict)
	}

	log.Printf("Job %s accepted by provider %s", jobID, providerID)
	return s.load(jobID)
}

// Advance moves a job one step along the transition table. Cancellation
// is a transition like any other and is open to both participants;
// everything else belongs to the assigned provider. A price sent along
// with the transition commits in the same transaction, after the
// transition validates, so a rejected move never leaves a price behind.
func (s *Service) Advance(jobID, actorID uuid.UUID, role models.Role, next models.JobStatus, price *int64) (*models.Job, error) {
	if !models.ValidJobStatus(next) {
		return nil, fmt.Errorf("unknown status %q: %w", next, apperr.ErrInvalid)
	}
	if price != nil && *price <= 0 {
		return nil, fmt.Errorf("price must be positive: %w", apperr.ErrInvalid)
	}

	action := policy.ActionJobAdvance
	if next == models.JobStatusCancelled {
		action = policy.ActionJobCancel
	}
	if !policy.Allowed(role, action) {
		return nil, fmt.Errorf("role %s cannot %s: %w", role, action, apperr.ErrForbidden)
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, err
	}

	switch {
	case next == models.JobStatusCancelled:
		if job.RequesterID != actorID && (job.ProviderID == nil || *job.ProviderID != actorID) {
			return nil, fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
		}
	default:
		if job.ProviderID == nil || *job.ProviderID != actorID {
			return nil, fmt.Errorf("only the assigned provider can advance a job: %w", apperr.ErrForbidden)
		}
	}

	if job.Status.Terminal() {
		return nil, fmt.Errorf("job is %s: %w", job.Status, apperr.ErrConflict)
	}
	if !job.Status.CanTransition(next) {
		return nil, fmt.Errorf("cannot go %s -> %s: %w", job.Status, next, apperr.ErrInvalid)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// conditional on the status actually read, so a concurrent
		// transition makes this a no-op instead of a lost update
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", jobID, job.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("job changed underneath: %w", apperr.ErrConflict)
		}

		if price != nil {
			if err := tx.Model(&models.Job{}).
				Where("id = ?", jobID).
				Update("agreed_price", *price).Error; err != nil {
				return err
			}
			job.AgreedPrice = price
		}

		if next == models.JobStatusCompleted {
			if err := tx.Model(&models.ProviderProfile{}).
				Where("user_id = ?", *job.ProviderID).
				Update("completed_jobs", gorm.Expr("completed_jobs + 1")).Error; err != nil {
				return err
			}
			if job.AgreedPrice != nil && *job.AgreedPrice > 0 {
				entry := models.EarningsEntry{
					ProviderID:  *job.ProviderID,
					JobID:       job.ID,
					Amount:      *job.AgreedPrice,
					Description: "Job completed: " + job.Title,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.load(jobID)
}

// SetAgreedPrice records the price both sides settled on in chat. Either
// participant may set it while the job is live.
func (s *Service) SetAgreedPrice(jobID, actorID uuid.UUID, price int64) (*models.Job, error) {
	if price <= 0 {
		return nil, fmt.Errorf("price must be positive: %w", apperr.ErrInvalid)
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	if job.RequesterID != actorID && (job.ProviderID == nil || *job.ProviderID != actorID) {
		return nil, fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
	}
	if job.Status.Terminal() {
		return nil, fmt.Errorf("job is %s: %w", job.Status, apperr.ErrConflict)
	}

	if err := s.DB.Model(&models.Job{}).
		Where("id = ?", jobID).
		Update("agreed_price", price).Error; err != nil {
		return nil, err
	}
	return s.load(jobID)
}

// Get enforces the visibility policy: participants always see the job,
// everyone else only while it is still open.
func (s *Service) Get(jobID, actorID uuid.UUID) (*models.Job, error) {
	job, err := s.load(jobID)
	if err != nil {
		return nil, err
	}

	participant := job.RequesterID == actorID ||
		(job.ProviderID != nil && *job.ProviderID == actorID)
	if !participant && job.Status != models.JobStatusOpen {
		return nil, fmt.Errorf("job is no longer public: %w", apperr.ErrForbidden)
	}
	return job, nil
}

func (s *Service) List(f ListFilter) ([]models.Job, error) {
	q := withRelations(s.DB.Model(&models.Job{}))

	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.RequesterID != nil {
		q = q.Where("requester_id = ?", *f.RequesterID)
	}
	if f.ProviderID != nil {
		q = q.Where("provider_id = ?", *f.ProviderID)
	}

	switch f.Sort {
	case "urgent":
		q = q.Order("urgency = 'emergency' DESC").Order("created_at DESC")
	default:
		q = q.Order("created_at DESC")
	}

	var out []models.Job
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// RecentForProvider returns the provider's last jobs by recency.
func (s *Service) RecentForProvider(providerID uuid.UUID, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []models.Job
	err := withRelations(s.DB.Model(&models.Job{})).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) load(jobID uuid.UUID) (*models.Job, error) {
	var job models.Job
	if err := withRelations(s.DB).First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	return &job, nil
}
