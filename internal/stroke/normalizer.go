package stroke

import (
	"fmt"
	"math"
)

// Imputation constants used when bmi or glucose is missing (NaN or non-positive).
const (
	DefaultImputedBMI     = 25.0
	DefaultImputedGlucose = 100.0
)

// Imputation holds the fixed, versioned replacement values for missing
// numeric fields. They ship with the model metadata.
type Imputation struct {
	BMI             float64 `json:"bmi"`
	AvgGlucoseLevel float64 `json:"avg_glucose_level"`
	Version         string  `json:"version"`
}

// DefaultImputation is used when a model does not declare its own constants.
func DefaultImputation() Imputation {
	return Imputation{BMI: DefaultImputedBMI, AvgGlucoseLevel: DefaultImputedGlucose, Version: "default"}
}

// Codebook maps each categorical field to its values in code order.
type Codebook map[string][]string

// DefaultCodebook encodes each field by its declaration order in CategoryValues.
func DefaultCodebook() Codebook {
	cb := make(Codebook, len(CategoryValues))
	for field, values := range CategoryValues {
		cb[field] = append([]string(nil), values...)
	}
	return cb
}

// Code returns the integer code of value for field, or -1 when unmapped.
func (c Codebook) Code(field, value string) int {
	for i, v := range c[field] {
		if v == value {
			return i
		}
	}
	return -1
}

// Validate reports an error if any categorical value of the core vocabulary
// has no code, or a field lists a value twice.
func (c Codebook) Validate() error {
	for _, field := range CategoricalFields {
		values, ok := c[field]
		if !ok {
			return fmt.Errorf("codebook: missing field %q", field)
		}
		seen := make(map[string]bool, len(values))
		for _, v := range values {
			if seen[v] {
				return fmt.Errorf("codebook: field %q lists %q twice", field, v)
			}
			seen[v] = true
		}
		for _, v := range CategoryValues[field] {
			if !seen[v] {
				return fmt.Errorf("codebook: field %q has no code for %q", field, v)
			}
		}
	}
	return nil
}

// Schema is what a trained model declares about its input.
type Schema struct {
	// ExpectedFeatures is the exact ordered input list. Nil means unknown,
	// in which case every derived feature is kept.
	ExpectedFeatures []string
	Codebook         Codebook
	Imputation       Imputation
}

// FeatureVector is an ordered name -> value mapping.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features.
func (v FeatureVector) Len() int { return len(v.Names) }

// Get returns the value of the named feature.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

func (v *FeatureVector) set(name string, value float64) {
	v.Names = append(v.Names, name)
	v.Values = append(v.Values, value)
}

// Normalize builds the feature vector of a single profile.
func Normalize(p Profile, schema Schema) FeatureVector {
	return NormalizeBatch([]Profile{p}, schema)[0]
}

// NormalizeBatch builds one feature vector per profile. The output is a pure
// function of each profile and the schema; rows never influence each other.
func NormalizeBatch(profiles []Profile, schema Schema) []FeatureVector {
	imp := schema.Imputation
	if imp.BMI <= 0 {
		imp.BMI = DefaultImputedBMI
	}
	if imp.AvgGlucoseLevel <= 0 {
		imp.AvgGlucoseLevel = DefaultImputedGlucose
	}
	codebook := schema.Codebook
	if codebook == nil {
		codebook = DefaultCodebook()
	}

	out := make([]FeatureVector, 0, len(profiles))
	for _, p := range profiles {
		derived := derive(p, imp, codebook)
		if schema.ExpectedFeatures == nil {
			out = append(out, derived)
			continue
		}
		out = append(out, selectFeatures(derived, schema.ExpectedFeatures))
	}
	return out
}

func derive(p Profile, imp Imputation, codebook Codebook) FeatureVector {
	bmi := p.BMI
	if math.IsNaN(bmi) || bmi <= 0 {
		bmi = imp.BMI
	}
	glucose := p.AvgGlucoseLevel
	if math.IsNaN(glucose) || glucose <= 0 {
		glucose = imp.AvgGlucoseLevel
	}
	age := p.Age
	hyp := boolFloat(p.Hypertension)
	heart := boolFloat(p.HeartDisease)

	v := FeatureVector{
		Names:  make([]string, 0, 32),
		Values: make([]float64, 0, 32),
	}
	v.set("age", age)
	v.set("hypertension", hyp)
	v.set("heart_disease", heart)
	v.set("avg_glucose_level", glucose)
	v.set("bmi", bmi)

	v.set("age_30_45", boolFloat(age >= 30 && age < 45))
	v.set("age_45_60", boolFloat(age >= 45 && age < 60))
	v.set("age_55_plus", boolFloat(age >= 55))
	v.set("age_60_75", boolFloat(age >= 60 && age < 75))
	v.set("age_75_plus", boolFloat(age >= 75))
	v.set("age_65_plus", boolFloat(age >= 65))
	v.set("age_80_plus", boolFloat(age >= 80))
	v.set("age_squared", age*age)
	v.set("age_cubed", age*age*age)
	v.set("age_log", math.Log(age+1))
	v.set("age_bin_young", boolFloat(age < 45))
	v.set("age_bin_middle", boolFloat(age >= 45 && age < 65))
	v.set("age_bin_elderly", boolFloat(age >= 65))

	v.set("age_hypertension", age*hyp)
	v.set("age_heart_disease", age*heart)
	v.set("age_glucose", age*glucose/100)

	v.set("age_dominated_risk",
		3*boolFloat(age >= 65)+2*boolFloat(age >= 55)+boolFloat(age >= 45)+hyp+2*heart)

	for _, field := range CategoricalFields {
		v.set(field+"_encoded", float64(codebook.Code(field, p.categorical(field))))
	}
	return v
}

func selectFeatures(derived FeatureVector, expected []string) FeatureVector {
	out := FeatureVector{
		Names:  make([]string, len(expected)),
		Values: make([]float64, len(expected)),
	}
	copy(out.Names, expected)
	for i, name := range expected {
		if val, ok := derived.Get(name); ok {
			out.Values[i] = val
		}
	}
	return out
}
