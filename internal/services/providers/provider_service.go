package providers

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jobtradesasa/server/internal/apperr"
	"github.com/jobtradesasa/server/internal/models"
	"github.com/jobtradesasa/server/internal/policy"
	"github.com/jobtradesasa/server/internal/utils"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

type SearchInput struct {
	CategoryID *uuid.UUID
	Lat        string
	Lng        string
	RadiusKm   float64
}

// SearchResult is a provider hit with its computed distance.
type SearchResult struct {
	User       models.User `json:"user"`
	DistanceKm float64     `json:"distance_km"`
}

// Search finds online providers near a point, nearest first. Category
// filtering happens in SQL (jsonb containment); the distance cut runs in
// Go over the already-small candidate set.
func (s *Service) Search(in SearchInput) ([]SearchResult, error) {
	lat, lng, err := utils.ParseLatLng(in.Lat, in.Lng)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrInvalid)
	}
	if in.RadiusKm <= 0 {
		in.RadiusKm = 25
	}

	q := s.DB.Model(&models.ProviderProfile{}).Where("online = ?", true)
	if in.CategoryID != nil {
		q = q.Where("categories @> ?::jsonb", fmt.Sprintf("[%q]", in.CategoryID.String()))
	}

	var profiles []models.ProviderProfile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}

	type hit struct {
		userID uuid.UUID
		dist   float64
	}
	hits := make([]hit, 0, len(profiles))
	for _, p := range profiles {
		pLat, pLng, err := utils.ParseLatLng(p.Lat, p.Lng)
		if err != nil {
			continue // provider never set a location
		}
		d := utils.HaversineKm(lat, lng, pLat, pLng)
		if d > in.RadiusKm || (p.ServiceRadiusKm > 0 && d > p.ServiceRadiusKm) {
			continue
		}
		hits = append(hits, hit{userID: p.UserID, dist: d})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.userID
	}

	users := map[uuid.UUID]models.User{}
	if len(ids) > 0 {
		var rows []models.User
		if err := s.DB.Preload("ProviderProfile").Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, u := range rows {
			users[u.ID] = u
		}
	}

	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		u, ok := users[h.userID]
		if !ok {
			continue
		}
		out = append(out, SearchResult{User: u, DistanceKm: h.dist})
	}
	return out, nil
}

// Stats are the aggregates behind the provider dashboard.
type Stats struct {
	ActiveJobs    int64   `json:"active_jobs"`
	CompletedJobs int64   `json:"completed_jobs"`
	RatingAvg     float64 `json:"rating_avg"`
	RatingCount   int     `json:"rating_count"`
	TotalEarnings int64   `json:"total_earnings"`
}

func (s *Service) Stats(providerID uuid.UUID, role models.Role) (*Stats, error) {
	if !policy.Allowed(role, policy.ActionProviderStats) {
		return nil, fmt.Errorf("stats are provider-only: %w", apperr.ErrForbidden)
	}

	var profile models.ProviderProfile
	if err := s.DB.First(&profile, "user_id = ?", providerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("provider profile: %w", apperr.ErrNotFound)
		}
		return nil, err
	}

	var active int64
	if err := s.DB.Model(&models.Job{}).
		Where("provider_id = ?", providerID).
		Where("status IN ?", []models.JobStatus{
			models.JobStatusAccepted,
			models.JobStatusEnroute,
			models.JobStatusOnsite,
		}).
		Count(&active).Error; err != nil {
		return nil, err
	}

	var earnings int64
	if err := s.DB.Model(&models.EarningsEntry{}).
		Where("provider_id = ?", providerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&earnings).Error; err != nil {
		return nil, err
	}

	return &Stats{
		ActiveJobs:    active,
		CompletedJobs: int64(profile.CompletedJobs),
		RatingAvg:     profile.RatingAvg,
		RatingCount:   profile.RatingCount,
		TotalEarnings: earnings,
	}, nil
}
