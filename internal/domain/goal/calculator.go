package goal

import (
	"math"
	"strings"

	"nutrisync/internal/domain/user"
)

// Fixed targets returned when a user never submitted a profile.
var defaultTargets = Targets{
	Calories: 2000,
	ProteinG: 150,
	CarbsG:   250,
	FatsG:    67,
	FiberG:   25,
	SodiumMg: 2300,
	SugarG:   50,
	WaterMl:  2500,
}

// Fallbacks for individual biometric fields left empty on a profile.
const (
	defaultWeightKg = 70.0
	defaultHeightCm = 170.0
	defaultAge      = 25

	minCalories = 1200
	minProteinG = 50
	minWaterMl  = 2000
	minFiberG   = 25

	dailySodiumMg = 2300
)

var activityMultipliers = map[string]float64{
	user.ActivityNone:     1.2,
	user.ActivityLight:    1.375,
	user.ActivityModerate: 1.55,
	user.ActivityHigh:     1.725,
}

// Compute derives a daily nutrition target from a biometric profile.
// Deterministic, no I/O. A nil profile yields the fixed default bundle.
func Compute(p *user.Profile) Targets {
	if p == nil {
		return defaultTargets
	}

	weight := floatOr(p.WeightKg, defaultWeightKg)
	height := floatOr(p.HeightCm, defaultHeightCm)
	age := intOr(p.Age, defaultAge)

	// Mifflin-St Jeor
	bmr := 10*weight + 6.25*height - 5*float64(age)
	if isMale(p.Sex) {
		bmr += 5
	} else {
		bmr -= 161
	}

	activity := strOr(p.ActivityLevel)
	mult, ok := activityMultipliers[activity]
	if !ok {
		mult = activityMultipliers[user.ActivityModerate]
	}
	tdee := bmr * mult

	calories := roundInt(adjustForGoal(tdee, strOr(p.MainGoal)))
	if calories < minCalories {
		calories = minCalories
	}

	protein, carbs, fats := macroSplit(calories, weight, strOr(p.MainGoal), strOr(p.DietaryStyle))

	water := roundInt(weight * 35)
	if activity == user.ActivityHigh {
		water += 500
	}
	if water < minWaterMl {
		water = minWaterMl
	}

	fiber := roundInt(float64(calories) / 80)
	if fiber < minFiberG {
		fiber = minFiberG
	}

	return Targets{
		Calories: calories,
		ProteinG: protein,
		CarbsG:   carbs,
		FatsG:    fats,
		FiberG:   fiber,
		SodiumMg: dailySodiumMg,
		SugarG:   roundInt(float64(calories) * 0.10 / 4),
		WaterMl:  water,
	}
}

func adjustForGoal(tdee float64, mainGoal string) float64 {
	switch mainGoal {
	case user.GoalWeightLoss:
		return tdee - 500
	case user.GoalWeightGain:
		return tdee + 300
	case user.GoalSportsPerformance:
		return tdee + 200
	default:
		return tdee
	}
}

func macroSplit(calories int, weightKg float64, mainGoal, dietaryStyle string) (protein, carbs, fats int) {
	cal := float64(calories)

	switch {
	case mainGoal == user.GoalSportsPerformance:
		protein = roundInt(weightKg * 2.0)
		carbs = roundInt(cal * 0.55 / 4)
		fats = roundInt(cal * 0.25 / 9)
	case strings.Contains(strings.ToLower(dietaryStyle), "keto"):
		protein = roundInt(weightKg * 1.6)
		carbs = roundInt(cal * 0.05 / 4)
		fats = roundInt(cal * 0.75 / 9)
	default:
		protein = roundInt(weightKg * 1.6)
		carbs = roundInt(cal * 0.45 / 4)
		fats = roundInt(cal * 0.30 / 9)
	}

	if protein < minProteinG {
		protein = minProteinG
	}
	return protein, carbs, fats
}

// isMale does a case-insensitive substring match against a "male" marker;
// anything else counts as female. "female" carries "male" as a substring, so
// it is excluded explicitly.
func isMale(sex *string) bool {
	if sex == nil {
		return false
	}
	s := strings.ToLower(strings.TrimSpace(*sex))
	return strings.Contains(s, "male") && !strings.Contains(s, "female")
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil || *v <= 0 {
		return fallback
	}
	return *v
}

func intOr(v *int, fallback int) int {
	if v == nil || *v <= 0 {
		return fallback
	}
	return *v
}

func strOr(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
