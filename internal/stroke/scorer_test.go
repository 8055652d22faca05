package stroke

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseProfile() Profile {
	return Profile{
		Age:             35,
		Gender:          GenderFemale,
		EverMarried:     true,
		WorkType:        WorkPrivate,
		ResidenceType:   ResidenceUrban,
		AvgGlucoseLevel: 95,
		BMI:             23,
		SmokingStatus:   SmokingNever,
	}
}

func TestScoreProfile_ElderlyHypertensive(t *testing.T) {
	p := baseProfile()
	p.Age = 75
	p.Hypertension = true
	p.AvgGlucoseLevel = 120
	p.BMI = 22

	s := ScoreProfile(p)

	// 35 (age) + 20 (hypertension) + 5 (glucose >= 100) + 10 (age + hypertension)
	assert.Equal(t, 70, s.Percentage)
	assert.Equal(t, LevelHigh, s.Level)
	assert.Equal(t, []string{FactorAge70Plus, FactorHypertension}, s.Factors)
	assert.Len(t, s.Explanations, 3)
}

func TestScoreProfile_HypertensionAndHeartDisease(t *testing.T) {
	p := baseProfile()
	p.Age = 65
	p.Hypertension = true
	p.HeartDisease = true
	p.AvgGlucoseLevel = 100
	p.BMI = 26

	s := ScoreProfile(p)

	// 25 + 20 + 20 + 5 (glucose) + 3 (bmi) + 10 + 10
	assert.Equal(t, 93, s.Percentage)
	assert.Equal(t, LevelHigh, s.Level)
	assert.Equal(t, []string{FactorAge60To69, FactorHypertension, FactorHeartDisease}, s.Factors)
	require.Len(t, s.Explanations, 5)
	assert.Contains(t, s.Explanations[3], "advanced age and hypertension")
	assert.Contains(t, s.Explanations[4], "both hypertension and heart disease")
}

func TestScoreProfile_YoungHealthyClampsToFloor(t *testing.T) {
	s := ScoreProfile(baseProfile())

	assert.Equal(t, 5, s.Percentage)
	assert.Equal(t, LevelLow, s.Level)
	assert.Empty(t, s.Factors)
	assert.Empty(t, s.Explanations)
}

func TestScoreProfile_ClampsToCeiling(t *testing.T) {
	p := Profile{
		Age:             82,
		Hypertension:    true,
		HeartDisease:    true,
		AvgGlucoseLevel: 240,
		BMI:             38,
		SmokingStatus:   SmokingCurrent,
	}

	s := ScoreProfile(p)

	assert.Equal(t, 95, s.Percentage)
	assert.Equal(t, LevelHigh, s.Level)
	assert.Equal(t, []string{
		FactorAge70Plus, FactorHypertension, FactorHeartDisease,
		FactorVeryHighGlucose, FactorSevereObesity, FactorCurrentSmoker,
	}, s.Factors)
}

func TestScoreProfile_AgeBands(t *testing.T) {
	tests := []struct {
		age     float64
		points  int
		factors []string
	}{
		{age: 0, points: 0},
		{age: 39.9, points: 0},
		{age: 40, points: 5},
		{age: 49, points: 5},
		{age: 50, points: 15, factors: []string{FactorAge50To59}},
		{age: 60, points: 25, factors: []string{FactorAge60To69}},
		{age: 69.5, points: 25, factors: []string{FactorAge60To69}},
		{age: 70, points: 35, factors: []string{FactorAge70Plus}},
	}
	for _, tt := range tests {
		p := baseProfile()
		p.Age = tt.age
		s := ScoreProfile(p)
		assert.Equal(t, clamp(tt.points, 5, 95), s.Percentage, "age %v", tt.age)
		if tt.factors == nil {
			assert.Empty(t, s.Factors, "age %v", tt.age)
			assert.Empty(t, s.Explanations, "age %v", tt.age)
		} else {
			assert.Equal(t, tt.factors, s.Factors, "age %v", tt.age)
		}
	}
}

func TestScoreProfile_Smoking(t *testing.T) {
	p := baseProfile()
	p.Age = 50

	p.SmokingStatus = SmokingCurrent
	assert.Equal(t, 30, ScoreProfile(p).Percentage)

	p.SmokingStatus = SmokingFormerly
	s := ScoreProfile(p)
	assert.Equal(t, 20, s.Percentage)
	assert.Equal(t, []string{FactorAge50To59, FactorFormerSmoker}, s.Factors)

	p.SmokingStatus = SmokingUnknown
	assert.Equal(t, 15, ScoreProfile(p).Percentage)
}

func TestScoreProfile_GlucoseMonotonic(t *testing.T) {
	p := baseProfile()
	p.Age = 55
	last := 0
	for _, g := range []float64{90, 150, 210} {
		p.AvgGlucoseLevel = g
		pct := ScoreProfile(p).Percentage
		assert.GreaterOrEqual(t, pct, last, "glucose %v", g)
		last = pct
	}
}

func TestScoreProfile_Idempotent(t *testing.T) {
	p := baseProfile()
	p.Age = 63
	p.Hypertension = true
	p.BMI = 31
	assert.Equal(t, ScoreProfile(p), ScoreProfile(p))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelLow, LevelFor(0))
	assert.Equal(t, LevelLow, LevelFor(29))
	assert.Equal(t, LevelModerate, LevelFor(30))
	assert.Equal(t, LevelModerate, LevelFor(59))
	assert.Equal(t, LevelHigh, LevelFor(60))
	assert.Equal(t, LevelHigh, LevelFor(100))
}
