// Package intake turns loosely typed form payloads into stroke.Profile values.
package intake

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Skufu/strokecare/internal/stroke"
)

// Form is the wire representation of a patient profile. Numbers may arrive as
// JSON numbers or numeric strings; booleans as true/false, 0/1 or "Yes"/"No".
type Form struct {
	Age             json.RawMessage `json:"age"`
	Gender          string          `json:"gender"`
	Hypertension    json.RawMessage `json:"hypertension"`
	HeartDisease    json.RawMessage `json:"heart_disease"`
	EverMarried     json.RawMessage `json:"ever_married"`
	WorkType        string          `json:"work_type"`
	ResidenceType   string          `json:"residence_type"`
	AvgGlucoseLevel json.RawMessage `json:"avg_glucose_level"`
	BMI             json.RawMessage `json:"bmi"`
	SmokingStatus   string          `json:"smoking_status"`
}

// CoercionError reports a field whose value could not be converted.
type CoercionError struct {
	Field  string
	Reason string
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// ValidationError lists every invariant a coerced profile violates.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Profile coerces and validates the form. It returns a *CoercionError for
// malformed values and a *ValidationError for out-of-range ones.
func (f Form) Profile() (stroke.Profile, error) {
	var p stroke.Profile
	var err error
	problems := []string{}

	age, hasAge, err := number("age", f.Age)
	if err != nil {
		return p, err
	}
	glucose, hasGlucose, err := number("avg_glucose_level", f.AvgGlucoseLevel)
	if err != nil {
		return p, err
	}
	bmi, hasBMI, err := number("bmi", f.BMI)
	if err != nil {
		return p, err
	}
	if p.Hypertension, err = flag("hypertension", f.Hypertension); err != nil {
		return p, err
	}
	if p.HeartDisease, err = flag("heart_disease", f.HeartDisease); err != nil {
		return p, err
	}
	if p.EverMarried, err = flag("ever_married", f.EverMarried); err != nil {
		return p, err
	}
	if p.Gender, err = ParseGender(f.Gender); err != nil {
		return p, err
	}
	if p.WorkType, err = ParseWorkType(f.WorkType); err != nil {
		return p, err
	}
	if p.ResidenceType, err = ParseResidence(f.ResidenceType); err != nil {
		return p, err
	}
	if p.SmokingStatus, err = ParseSmoking(f.SmokingStatus); err != nil {
		return p, err
	}

	switch {
	case !hasAge:
		problems = append(problems, "age is required")
	case age < 0 || age > 120:
		problems = append(problems, "age must be between 0 and 120")
	}
	switch {
	case !hasGlucose:
		problems = append(problems, "average glucose level is required")
	case glucose <= 0 || glucose > 500:
		problems = append(problems, "average glucose level must be within (0, 500] mg/dL")
	}
	switch {
	case !hasBMI:
		problems = append(problems, "bmi is required")
	case bmi <= 0 || bmi > 100:
		problems = append(problems, "bmi must be within (0, 100]")
	}
	if len(problems) > 0 {
		return p, &ValidationError{Problems: problems}
	}

	p.Age = age
	p.AvgGlucoseLevel = glucose
	p.BMI = bmi
	return p, nil
}

// number decodes a JSON number or numeric string. ok is false when the field
// is absent, null or an empty string.
func number(field string, raw json.RawMessage) (v float64, ok bool, err error) {
	if isEmpty(raw) {
		return 0, false, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false, &CoercionError{Field: field, Reason: "expected a number"}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	n, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, &CoercionError{Field: field, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return n, true, nil
}

// flag decodes a boolean given as bool, 0/1, or a yes/no string. Absent
// fields are false.
func flag(field string, raw json.RawMessage) (bool, error) {
	if isEmpty(raw) {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, &CoercionError{Field: field, Reason: "expected 0 or 1"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, &CoercionError{Field: field, Reason: "expected a boolean"}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "":
		return false, nil
	}
	return false, &CoercionError{Field: field, Reason: fmt.Sprintf("%q is not a boolean", s)}
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
