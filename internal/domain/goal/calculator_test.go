package goal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrisync/internal/domain/user"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func profileFor(weight, height float64, age int, sex, activity, mainGoal string) *user.Profile {
	return &user.Profile{
		WeightKg:      floatPtr(weight),
		HeightCm:      floatPtr(height),
		Age:           intPtr(age),
		Sex:           strPtr(sex),
		ActivityLevel: strPtr(activity),
		MainGoal:      strPtr(mainGoal),
	}
}

func TestCompute_NilProfileReturnsDefaults(t *testing.T) {
	got := Compute(nil)

	require.Equal(t, Targets{
		Calories: 2000,
		ProteinG: 150,
		CarbsG:   250,
		FatsG:    67,
		FiberG:   25,
		SodiumMg: 2300,
		SugarG:   50,
		WaterMl:  2500,
	}, got)
}

func TestCompute_ModerateMaleWeightLoss(t *testing.T) {
	// BMR 1642.5, TDEE 2545.875, minus 500 for weight loss.
	p := profileFor(70, 170, 25, "male", user.ActivityModerate, user.GoalWeightLoss)
	got := Compute(p)

	assert.Equal(t, 2046, got.Calories)
	assert.Equal(t, 112, got.ProteinG)
	assert.Equal(t, 230, got.CarbsG)
	assert.Equal(t, 68, got.FatsG)
	assert.Equal(t, 2450, got.WaterMl)
	assert.Equal(t, 26, got.FiberG)
	assert.Equal(t, 51, got.SugarG)
	assert.Equal(t, 2300, got.SodiumMg)
}

func TestCompute_SportsPerformanceSplit(t *testing.T) {
	p := profileFor(80, 180, 30, "Male", user.ActivityHigh, user.GoalSportsPerformance)
	got := Compute(p)

	// BMR 1780, TDEE 3070.5, plus 200 for sports performance.
	assert.Equal(t, 3271, got.Calories)
	assert.Equal(t, 160, got.ProteinG) // weight * 2.0
	assert.Equal(t, 450, got.CarbsG)   // 55% of calories / 4
	assert.Equal(t, 91, got.FatsG)     // 25% of calories / 9
	assert.Equal(t, 3300, got.WaterMl) // +500 for HIGH activity
}

func TestCompute_KetoSplit(t *testing.T) {
	p := profileFor(60, 165, 40, "female", user.ActivityLight, user.GoalMaintenance)
	p.DietaryStyle = strPtr("Keto, low sugar")
	got := Compute(p)

	assert.Equal(t, 1747, got.Calories)
	assert.Equal(t, 96, got.ProteinG)
	assert.Equal(t, 22, got.CarbsG)  // 5% of calories / 4
	assert.Equal(t, 146, got.FatsG)  // 75% of calories / 9
	assert.Equal(t, 25, got.FiberG)  // floored at 25
	assert.Equal(t, 2100, got.WaterMl)
}

func TestCompute_FloorsApply(t *testing.T) {
	p := profileFor(30, 150, 80, "female", user.ActivityNone, user.GoalWeightLoss)
	got := Compute(p)

	assert.Equal(t, 1200, got.Calories)
	assert.Equal(t, 50, got.ProteinG)
	assert.Equal(t, 2000, got.WaterMl)
	assert.Equal(t, 25, got.FiberG)
}

func TestCompute_MissingNumericsDefault(t *testing.T) {
	// weight=70, height=170, age=25 defaults; unset sex treated as female.
	got := Compute(&user.Profile{})

	assert.Equal(t, 2289, got.Calories)
	assert.Equal(t, 112, got.ProteinG)
	assert.Equal(t, 2450, got.WaterMl)
}

func TestCompute_UnrecognizedActivityFallsBackToModerate(t *testing.T) {
	a := Compute(profileFor(70, 170, 25, "male", "EXTREME", user.GoalMaintenance))
	b := Compute(profileFor(70, 170, 25, "male", user.ActivityModerate, user.GoalMaintenance))
	assert.Equal(t, b, a)
}

func TestCompute_SexClassification(t *testing.T) {
	base := func(sex *string) *user.Profile {
		p := profileFor(70, 170, 25, "", user.ActivityModerate, user.GoalMaintenance)
		p.Sex = sex
		return p
	}

	male := Compute(base(strPtr("MALE")))
	female := Compute(base(strPtr("female")))
	unset := Compute(base(nil))

	assert.Greater(t, male.Calories, female.Calories)
	assert.Equal(t, female.Calories, unset.Calories)
}

func TestCompute_OutputsAlwaysPositive(t *testing.T) {
	profiles := []*user.Profile{
		nil,
		{},
		profileFor(30, 140, 90, "female", user.ActivityNone, user.GoalWeightLoss),
		profileFor(150, 200, 18, "male", user.ActivityHigh, user.GoalWeightGain),
	}

	for _, p := range profiles {
		got := Compute(p)
		assert.GreaterOrEqual(t, got.Calories, 1200)
		assert.GreaterOrEqual(t, got.WaterMl, 2000)
		assert.Positive(t, got.ProteinG)
		assert.Positive(t, got.CarbsG)
		assert.Positive(t, got.FatsG)
		assert.Positive(t, got.FiberG)
		assert.Positive(t, got.SugarG)
	}
}
