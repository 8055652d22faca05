package stroke

// Gender of the patient.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// WorkType is the patient's employment category.
type WorkType string

const (
	WorkPrivate      WorkType = "Private"
	WorkSelfEmployed WorkType = "SelfEmployed"
	WorkGovtJob      WorkType = "GovtJob"
	WorkChildren     WorkType = "Children"
	WorkNeverWorked  WorkType = "NeverWorked"
)

// Residence is the patient's residence type.
type Residence string

const (
	ResidenceUrban Residence = "Urban"
	ResidenceRural Residence = "Rural"
)

// Smoking is the patient's smoking history.
type Smoking string

const (
	SmokingNever    Smoking = "never"
	SmokingFormerly Smoking = "formerly"
	SmokingCurrent  Smoking = "current"
	SmokingUnknown  Smoking = "unknown"
)

// Categorical field names as they appear in feature vectors and codebooks.
const (
	FieldGender        = "gender"
	FieldEverMarried   = "ever_married"
	FieldWorkType      = "work_type"
	FieldResidenceType = "residence_type"
	FieldSmokingStatus = "smoking_status"
)

// Profile is the already-coerced patient record the core operates on.
// Coercion from wire formats happens in package intake.
type Profile struct {
	Age             float64   `json:"age"`
	Gender          Gender    `json:"gender"`
	Hypertension    bool      `json:"hypertension"`
	HeartDisease    bool      `json:"heart_disease"`
	EverMarried     bool      `json:"ever_married"`
	WorkType        WorkType  `json:"work_type"`
	ResidenceType   Residence `json:"residence_type"`
	AvgGlucoseLevel float64   `json:"avg_glucose_level"`
	BMI             float64   `json:"bmi"`
	SmokingStatus   Smoking   `json:"smoking_status"`
}

// CategoryValues lists every categorical field with its values in declaration
// order. The default codebook is derived from it.
var CategoryValues = map[string][]string{
	FieldGender:        {string(GenderMale), string(GenderFemale), string(GenderOther)},
	FieldEverMarried:   {"No", "Yes"},
	FieldWorkType:      {string(WorkPrivate), string(WorkSelfEmployed), string(WorkGovtJob), string(WorkChildren), string(WorkNeverWorked)},
	FieldResidenceType: {string(ResidenceUrban), string(ResidenceRural)},
	FieldSmokingStatus: {string(SmokingNever), string(SmokingFormerly), string(SmokingCurrent), string(SmokingUnknown)},
}

// CategoricalFields is the fixed encoding order of the categorical fields.
var CategoricalFields = []string{
	FieldGender,
	FieldEverMarried,
	FieldWorkType,
	FieldResidenceType,
	FieldSmokingStatus,
}

// categorical returns the raw value of a categorical field.
func (p Profile) categorical(field string) string {
	switch field {
	case FieldGender:
		return string(p.Gender)
	case FieldEverMarried:
		if p.EverMarried {
			return "Yes"
		}
		return "No"
	case FieldWorkType:
		return string(p.WorkType)
	case FieldResidenceType:
		return string(p.ResidenceType)
	case FieldSmokingStatus:
		return string(p.SmokingStatus)
	}
	return ""
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
