package intake

import (
	"strings"

	"github.com/Skufu/strokecare/internal/stroke"
)

var genderAliases = map[string]stroke.Gender{
	"male":   stroke.GenderMale,
	"female": stroke.GenderFemale,
	"other":  stroke.GenderOther,
}

var workTypeAliases = map[string]stroke.WorkType{
	"private":       stroke.WorkPrivate,
	"self-employed": stroke.WorkSelfEmployed,
	"selfemployed":  stroke.WorkSelfEmployed,
	"govt_job":      stroke.WorkGovtJob,
	"govtjob":       stroke.WorkGovtJob,
	"children":      stroke.WorkChildren,
	"never_worked":  stroke.WorkNeverWorked,
	"neverworked":   stroke.WorkNeverWorked,
}

var residenceAliases = map[string]stroke.Residence{
	"urban": stroke.ResidenceUrban,
	"rural": stroke.ResidenceRural,
}

// Dataset spellings ("never smoked", "smokes", ...) are accepted alongside the enum names.
var smokingAliases = map[string]stroke.Smoking{
	"never":           stroke.SmokingNever,
	"never smoked":    stroke.SmokingNever,
	"formerly":        stroke.SmokingFormerly,
	"formerly smoked": stroke.SmokingFormerly,
	"current":         stroke.SmokingCurrent,
	"smokes":          stroke.SmokingCurrent,
	"unknown":         stroke.SmokingUnknown,
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseGender maps a form value to a Gender. Empty means Male.
func ParseGender(s string) (stroke.Gender, error) {
	if key(s) == "" {
		return stroke.GenderMale, nil
	}
	if g, ok := genderAliases[key(s)]; ok {
		return g, nil
	}
	return "", &CoercionError{Field: "gender", Reason: "unknown value " + s}
}

// ParseWorkType maps a form value to a WorkType. Empty means Private.
func ParseWorkType(s string) (stroke.WorkType, error) {
	if key(s) == "" {
		return stroke.WorkPrivate, nil
	}
	if w, ok := workTypeAliases[key(s)]; ok {
		return w, nil
	}
	return "", &CoercionError{Field: "work_type", Reason: "unknown value " + s}
}

// ParseResidence maps a form value to a Residence. Empty means Urban.
func ParseResidence(s string) (stroke.Residence, error) {
	if key(s) == "" {
		return stroke.ResidenceUrban, nil
	}
	if r, ok := residenceAliases[key(s)]; ok {
		return r, nil
	}
	return "", &CoercionError{Field: "residence_type", Reason: "unknown value " + s}
}

// ParseSmoking maps a form value to a Smoking status. Empty means never.
func ParseSmoking(s string) (stroke.Smoking, error) {
	if key(s) == "" {
		return stroke.SmokingNever, nil
	}
	if v, ok := smokingAliases[key(s)]; ok {
		return v, nil
	}
	return "", &CoercionError{Field: "smoking_status", Reason: "unknown value " + s}
}
