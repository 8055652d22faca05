// Package report renders a finished assessment for download.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Skufu/strokecare/internal/stroke"
)

// Data is the content of one report.
type Data struct {
	Profile     stroke.Profile
	Percentage  int
	Level       stroke.Level
	Factors     []string
	Explanation []string
	Binary      *int
	Insights    string
	GeneratedAt time.Time
}

// Disclaimer is appended to every report.
const Disclaimer = "This assessment is for informational purposes only and does not constitute medical advice. " +
	"Please consult a healthcare professional for proper diagnosis and treatment."

const rule = "--------------------------------------------------------------"

// Filename returns the attachment name for the given extension.
func Filename(generatedAt time.Time, ext string) string {
	return fmt.Sprintf("stroke_risk_assessment_%s.%s", generatedAt.Format("20060102_150405"), ext)
}

// BinaryLabel renders the binary model output.
func BinaryLabel(b *int) string {
	switch {
	case b == nil:
		return "N/A"
	case *b == 1:
		return "Risk Detected"
	default:
		return "No Risk Detected"
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

type section struct {
	title string
	rows  [][2]string
	lines []string
}

// sections is shared by the text and spreadsheet renderers.
func sections(d Data) []section {
	p := d.Profile
	factors := d.Factors
	if len(factors) == 0 {
		factors = []string{"No significant risk factors identified"}
	}
	explanations := d.Explanation
	if len(explanations) == 0 {
		explanations = []string{"No additional explanations"}
	}
	insights := strings.TrimSpace(d.Insights)
	if insights == "" {
		insights = "No insights available"
	}

	return []section{
		{title: "PATIENT INFORMATION", rows: [][2]string{
			{"Age", fmt.Sprintf("%g years", p.Age)},
			{"Gender", string(p.Gender)},
			{"Residence Type", string(p.ResidenceType)},
			{"Marital Status", yesNo(p.EverMarried)},
			{"Work Type", string(p.WorkType)},
		}},
		{title: "MEDICAL HISTORY", rows: [][2]string{
			{"Hypertension", yesNo(p.Hypertension)},
			{"Heart Disease", yesNo(p.HeartDisease)},
			{"Average Glucose Level", fmt.Sprintf("%g mg/dL", p.AvgGlucoseLevel)},
			{"BMI (Body Mass Index)", fmt.Sprintf("%g", p.BMI)},
		}},
		{title: "LIFESTYLE", rows: [][2]string{
			{"Smoking Status", string(p.SmokingStatus)},
		}},
		{title: "ASSESSMENT RESULTS", rows: [][2]string{
			{"Risk Percentage", fmt.Sprintf("%d%%", d.Percentage)},
			{"Risk Level", string(d.Level)},
			{"Binary Prediction", BinaryLabel(d.Binary)},
		}},
		{title: "IDENTIFIED RISK FACTORS", lines: factors},
		{title: "EXPLANATIONS", lines: explanations},
		{title: "AI-GENERATED INSIGHTS", lines: []string{insights}},
	}
}

// Text renders the plain-text report.
func Text(d Data) string {
	var b strings.Builder
	b.WriteString("STROKE RISK ASSESSMENT REPORT\n\n")
	fmt.Fprintf(&b, "Generated: %s\n", d.GeneratedAt.Format("2006-01-02 15:04:05"))

	for _, s := range sections(d) {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n\n", rule, s.title, rule)
		for _, r := range s.rows {
			fmt.Fprintf(&b, "%s: %s\n", r[0], r[1])
		}
		bullet := len(s.lines) > 1 || s.title != "AI-GENERATED INSIGHTS"
		for _, l := range s.lines {
			if bullet {
				b.WriteString("- ")
			}
			b.WriteString(l)
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\nIMPORTANT DISCLAIMER\n%s\n\n%s\n", rule, rule, Disclaimer)
	return b.String()
}
