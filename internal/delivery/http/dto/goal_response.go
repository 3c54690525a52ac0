package dto

import (
	"time"

	"github.com/google/uuid"

	"nutrisync/internal/domain/goal"
)

type GoalResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      string    `json:"date"`
	Calories  int       `json:"calories"`
	ProteinG  int       `json:"protein_g"`
	CarbsG    int       `json:"carbs_g"`
	FatsG     int       `json:"fats_g"`
	FiberG    int       `json:"fiber_g"`
	SodiumMg  int       `json:"sodium_mg"`
	SugarG    int       `json:"sugar_g"`
	WaterMl   int       `json:"water_ml"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGoalResponse(g goal.DailyGoal) GoalResponse {
	return GoalResponse{
		ID:        g.ID,
		UserID:    g.UserID,
		Date:      g.Date.UTC().Format("2006-01-02"),
		Calories:  g.Targets.Calories,
		ProteinG:  g.Targets.ProteinG,
		CarbsG:    g.Targets.CarbsG,
		FatsG:     g.Targets.FatsG,
		FiberG:    g.Targets.FiberG,
		SodiumMg:  g.Targets.SodiumMg,
		SugarG:    g.Targets.SugarG,
		WaterMl:   g.Targets.WaterMl,
		UpdatedAt: g.UpdatedAt,
	}
}
