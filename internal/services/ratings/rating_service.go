package ratings

import (
	"fmt"

	"github.com/google/uuid"
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

type SubmitInput struct {
	JobID   uuid.UUID
	Score   int
	Comment string
}

// Submit writes the rating and recomputes the provider's running average
// in one transaction, so a crash can never leave the average stale.
func (s *Service) Submit(fromUserID uuid.UUID, role models.Role, in SubmitInput) (*models.Rating, error) {
	if !policy.Allowed(role, policy.ActionRatingCreate) {
		return nil, fmt.Errorf("only requesters can rate: %w", apperr.ErrForbidden)
	}
	if in.Score < 1 || in.Score > 5 {
		return nil, fmt.Errorf("score must be between 1 and 5: %w", apperr.ErrInvalid)
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", in.JobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	if job.RequesterID != fromUserID {
		return nil, fmt.Errorf("can only rate own jobs: %w", apperr.ErrForbidden)
	}
	if job.Status != models.JobStatusCompleted {
		return nil, fmt.Errorf("job is not completed: %w", apperr.ErrConflict)
	}
	if job.ProviderID == nil {
		return nil, fmt.Errorf("job has no provider: %w", apperr.ErrConflict)
	}

	rating := models.Rating{
		JobID:      in.JobID,
		FromUserID: fromUserID,
		ToUserID:   *job.ProviderID,
		Score:      in.Score,
		Comment:    in.Comment,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rating).Error; err != nil {
			return err
		}

		// full scan and average over all rows, duplicates included
		var agg struct {
			Avg   float64
			Count int64
		}
		if err := tx.Model(&models.Rating{}).
			Where("to_user_id = ?", *job.ProviderID).
			Select("COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count").
			Scan(&agg).Error; err != nil {
			return err
		}

		return tx.Model(&models.ProviderProfile{}).
			Where("user_id = ?", *job.ProviderID).
			Updates(map[string]interface{}{
				"rating_avg":   agg.Avg,
				"rating_count": agg.Count,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// ForProvider lists ratings received by a provider, newest first.
func (s *Service) ForProvider(providerID uuid.UUID) ([]models.Rating, error) {
	var out []models.Rating
	err := s.DB.
		Preload("FromUser").
		Where("to_user_id = ?", providerID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
