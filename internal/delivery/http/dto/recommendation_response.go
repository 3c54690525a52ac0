package dto

import (
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/repository"
)

type RecommendationResponse struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRecommendationResponse(r repository.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		ID:        r.ID,
		Content:   r.Content,
		Source:    r.Source,
		CreatedAt: r.CreatedAt,
	}
}
