package dto

import (
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/domain/user"
)

type UserResponse struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	ProfileCompleted bool      `json:"profile_completed"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		ProfileCompleted: u.ProfileCompleted,
		CreatedAt:        u.CreatedAt,
	}
}

type ProfileResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	WeightKg      *float64  `json:"weight_kg"`
	HeightCm      *float64  `json:"height_cm"`
	Age           *int      `json:"age"`
	Sex           *string   `json:"sex"`
	ActivityLevel *string   `json:"activity_level"`
	MainGoal      *string   `json:"main_goal"`
	DietaryStyle  *string   `json:"dietary_style"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewProfileResponse(p user.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:        p.UserID,
		WeightKg:      p.WeightKg,
		HeightCm:      p.HeightCm,
		Age:           p.Age,
		Sex:           p.Sex,
		ActivityLevel: p.ActivityLevel,
		MainGoal:      p.MainGoal,
		DietaryStyle:  p.DietaryStyle,
		UpdatedAt:     p.UpdatedAt,
	}
}
