package stroke

import "fmt"

// Level is the risk tier derived from a percentage.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelModerate Level = "MODERATE"
	LevelHigh     Level = "HIGH"
)

// Risk factor labels. Combination terms add explanations but no label.
const (
	FactorAge70Plus       = "Age 70+"
	FactorAge60To69       = "Age 60-69"
	FactorAge50To59       = "Age 50-59"
	FactorHypertension    = "Hypertension"
	FactorHeartDisease    = "Heart Disease"
	FactorVeryHighGlucose = "Very High Glucose"
	FactorElevatedGlucose = "Elevated Glucose"
	FactorSevereObesity   = "Severe Obesity"
	FactorObesity         = "Obesity"
	FactorCurrentSmoker   = "Current Smoker"
	FactorFormerSmoker    = "Former Smoker"
)

const (
	minRulePercentage = 5
	maxRulePercentage = 95

	moderateThreshold = 30
	highThreshold     = 60
)

// Score is the output of the rule-based scorer.
type Score struct {
	Percentage   int
	Level        Level
	Factors      []string
	Explanations []string
}

// LevelFor maps a percentage onto a tier using the 30/60 thresholds.
func LevelFor(percentage int) Level {
	switch {
	case percentage >= highThreshold:
		return LevelHigh
	case percentage >= moderateThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}

// ScoreProfile computes the deterministic rule-based risk for a profile.
// Checks run in a fixed order and all points accumulate on one score.
func ScoreProfile(p Profile) Score {
	factors := []string{}
	explanations := []string{}
	score := 0

	add := func(points int, factor, explanation string) {
		score += points
		if factor != "" {
			factors = append(factors, factor)
		}
		if explanation != "" {
			explanations = append(explanations, explanation)
		}
	}

	age := p.Age
	switch {
	case age >= 70:
		add(35, FactorAge70Plus, fmt.Sprintf("Age (%g years) is a significant factor - stroke risk increases substantially after 70.", age))
	case age >= 60:
		add(25, FactorAge60To69, fmt.Sprintf("Age (%g years) contributes to elevated risk - cardiovascular vigilance recommended.", age))
	case age >= 50:
		add(15, FactorAge50To59, fmt.Sprintf("Age (%g years) is entering a period where regular screening becomes important.", age))
	case age >= 40:
		add(5, "", "")
	}

	if p.Hypertension {
		add(20, FactorHypertension, "Hypertension (high blood pressure) significantly increases stroke risk by damaging blood vessels over time.")
	}
	if p.HeartDisease {
		add(20, FactorHeartDisease, "Heart disease is closely linked to stroke risk through shared cardiovascular mechanisms.")
	}

	glucose := p.AvgGlucoseLevel
	switch {
	case glucose >= 200:
		add(15, FactorVeryHighGlucose, fmt.Sprintf("Glucose level (%g mg/dL) indicates potential diabetes, which damages blood vessels.", glucose))
	case glucose >= 140:
		add(10, FactorElevatedGlucose, fmt.Sprintf("Glucose level (%g mg/dL) is elevated - monitoring recommended.", glucose))
	case glucose >= 100:
		add(5, "", "")
	}

	bmi := p.BMI
	switch {
	case bmi >= 35:
		add(10, FactorSevereObesity, fmt.Sprintf("BMI (%g) indicates severe obesity, which strains the cardiovascular system.", bmi))
	case bmi >= 30:
		add(7, FactorObesity, fmt.Sprintf("BMI (%g) indicates obesity, a modifiable risk factor for stroke.", bmi))
	case bmi >= 25:
		add(3, "", "")
	}

	switch p.SmokingStatus {
	case SmokingCurrent:
		add(15, FactorCurrentSmoker, "Smoking damages blood vessels and significantly increases stroke risk. Quitting has immediate benefits.")
	case SmokingFormerly:
		add(5, FactorFormerSmoker, "Former smoking history contributes slightly to risk, but quitting was a positive step.")
	}

	if age >= 60 && p.Hypertension {
		add(10, "", "The combination of advanced age and hypertension creates compounded risk.")
	}
	if p.Hypertension && p.HeartDisease {
		add(10, "", "Having both hypertension and heart disease significantly elevates cardiovascular risk.")
	}

	percentage := clamp(score, minRulePercentage, maxRulePercentage)
	return Score{
		Percentage:   percentage,
		Level:        LevelFor(percentage),
		Factors:      factors,
		Explanations: explanations,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
