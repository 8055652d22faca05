package stroke

// Source names which path produced an assessment's percentage.
type Source string

const (
	SourceRules Source = "rules"
	SourceModel Source = "model"
)

// Model terms that can degrade independently.
const (
	TermBinary      = "binary"
	TermProbability = "probability"
)

// Degradation records a model term that fell back to the rule-based result.
type Degradation struct {
	Term   string `json:"term"`
	Reason string `json:"reason"`
}

// Assessment is the result handed to the boundary for rendering, persistence
// and narrative generation.
type Assessment struct {
	Percentage   int           `json:"percentage"`
	Level        Level         `json:"level"`
	Factors      []string      `json:"factors"`
	Explanations []string      `json:"explanations"`
	BinaryFlag   *bool         `json:"binary_flag"`
	Source       Source        `json:"source"`
	Degraded     []Degradation `json:"degraded,omitempty"`
}

// Assemble packages an arbitration outcome. Factors and explanations always
// come from the rule-based score.
func Assemble(rules Score, percentage int, level Level, binaryFlag *bool, source Source, degraded []Degradation) Assessment {
	return Assessment{
		Percentage:   percentage,
		Level:        level,
		Factors:      rules.Factors,
		Explanations: rules.Explanations,
		BinaryFlag:   binaryFlag,
		Source:       source,
		Degraded:     degraded,
	}
}

// BinaryPrediction returns the binary flag as 0/1, or nil when no binary
// model contributed.
func (a Assessment) BinaryPrediction() *int {
	if a.BinaryFlag == nil {
		return nil
	}
	v := 0
	if *a.BinaryFlag {
		v = 1
	}
	return &v
}
