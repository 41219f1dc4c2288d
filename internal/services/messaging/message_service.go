package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/apperr"
	"github.com/jobtradesasa/server/internal/models"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type SendInput struct {
	JobID        uuid.UUID
	Text         string
	Attachments  datatypes.JSON
	VoiceNoteURL string
}

// Send persists one message on a job. The sender identity comes from the
// authenticated session, never from the payload. Returns the stored
// message with the sender attached, plus the counterpart to push to.
func (s *Service) Send(senderID uuid.UUID, in SendInput) (*models.Message, uuid.UUID, error) {
	if in.Text == "" && len(in.Attachments) == 0 && in.VoiceNoteURL == "" {
		return nil, uuid.Nil, fmt.Errorf("message needs text or an attachment: %w", apperr.ErrInvalid)
	}

	var job models.Job
	if err := s.DB.First(&job, "id = ?", in.JobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, uuid.Nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, uuid.Nil, err
	}

	counterpart, err := counterpartOf(&job, senderID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	msg := models.Message{
		JobID:        in.JobID,
		SenderID:     senderID,
		Text:         in.Text,
		Attachments:  in.Attachments,
		VoiceNoteURL: in.VoiceNoteURL,
	}
	if err := s.DB.Create(&msg).Error; err != nil {
		return nil, uuid.Nil, err
	}

	if err := s.DB.Preload("Sender").First(&msg, "id = ?", msg.ID).Error; err != nil {
		return nil, uuid.Nil, err
	}
	return &msg, counterpart, nil
}

// History returns a job's messages oldest to newest, sender attached.
func (s *Service) History(jobID, actorID uuid.UUID) ([]models.Message, error) {
	var job models.Job
	if err := s.DB.First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job: %w", apperr.ErrNotFound)
		}
		return nil, err
	}
	if _, err := counterpartOf(&job, actorID); err != nil {
		return nil, err
	}

	var out []models.Message
	err := s.DB.
		Preload("Sender").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConversationSummary is the per-job digest shown in the chat list.
type ConversationSummary struct {
	JobID           uuid.UUID        `json:"job_id"`
	JobTitle        string           `json:"job_title"`
	JobStatus       models.JobStatus `json:"job_status"`
	CounterpartID   uuid.UUID        `json:"counterpart_id"`
	CounterpartName string           `json:"counterpart_name"`
	LastText        string           `json:"last_text"`
	LastAt          time.Time        `json:"last_at"`
	UnreadCount     int64            `json:"unread_count"` // not tracked, always 0
}

// Conversations builds the chat list in one windowed query: the latest
// message per job across every job the user participates in.
func (s *Service) Conversations(userID uuid.UUID) ([]ConversationSummary, error) {
	type row struct {
		JobID       uuid.UUID
		Title       string
		Status      models.JobStatus
		RequesterID uuid.UUID
		ProviderID  *uuid.UUID
		Text        string
		CreatedAt   time.Time
	}

	var rows []row
	err := s.DB.Raw(`
		SELECT DISTINCT ON (m.job_id)
			m.job_id, j.title, j.status, j.requester_id, j.provider_id,
			m.text, m.created_at
		FROM messages m
		JOIN jobs j ON j.id = m.job_id
		WHERE j.requester_id = ? OR j.provider_id = ?
		ORDER BY m.job_id, m.created_at DESC`, userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// counterpart names in one pass
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		if r.RequesterID != userID {
			ids = append(ids, r.RequesterID)
		} else if r.ProviderID != nil {
			ids = append(ids, *r.ProviderID)
		}
	}

	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		var users []models.User
		if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, err
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	out := make([]ConversationSummary, 0, len(rows))
	for _, r := range rows {
		var counterpart uuid.UUID
		if r.RequesterID != userID {
			counterpart = r.RequesterID
		} else if r.ProviderID != nil {
			counterpart = *r.ProviderID
		}

		out = append(out, ConversationSummary{
			JobID:           r.JobID,
			JobTitle:        r.Title,
			JobStatus:       r.Status,
			CounterpartID:   counterpart,
			CounterpartName: names[counterpart],
			LastText:        r.Text,
			LastAt:          r.CreatedAt,
		})
	}
	return out, nil
}

// counterpartOf returns the other participant, or ErrForbidden when the
// actor is not on the job at all.
func counterpartOf(job *models.Job, actorID uuid.UUID) (uuid.UUID, error) {
	switch {
	case job.RequesterID == actorID:
		if job.ProviderID != nil {
			return *job.ProviderID, nil
		}
		return uuid.Nil, nil // no provider yet: store only, nobody to push to
	case job.ProviderID != nil && *job.ProviderID == actorID:
		return job.RequesterID, nil
	default:
		return uuid.Nil, fmt.Errorf("not a participant: %w", apperr.ErrForbidden)
	}
}
