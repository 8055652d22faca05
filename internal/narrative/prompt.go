// Package narrative produces the patient-facing explanatory text for an
// assessment, either from a chat-completion API or from canned copy.
package narrative

import (
	"fmt"
	"strings"

	"github.com/Skufu/strokecare/internal/stroke"
)

// Request is everything the narrative depends on.
type Request struct {
	Profile    stroke.Profile
	Level      stroke.Level
	Percentage int
	Factors    []string
}

const systemPrompt = "You are a caring, knowledgeable healthcare assistant providing personalized health guidance. " +
	"Be warm, supportive, and focus on empowering patients with actionable advice."

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Prompt renders the user message sent to the completion API.
func Prompt(r Request) string {
	p := r.Profile
	married := "Not Married"
	if p.EverMarried {
		married = "Married"
	}
	factors := "None identified"
	if len(r.Factors) > 0 {
		factors = strings.Join(r.Factors, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a compassionate healthcare AI assistant. A patient has just received their stroke risk assessment.\n\n")
	b.WriteString("Patient Profile:\n")
	fmt.Fprintf(&b, "- Age: %g years\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Hypertension: %s\n", yesNo(p.Hypertension))
	fmt.Fprintf(&b, "- Heart Disease: %s\n", yesNo(p.HeartDisease))
	fmt.Fprintf(&b, "- Average Glucose Level: %g mg/dL\n", p.AvgGlucoseLevel)
	fmt.Fprintf(&b, "- BMI: %g\n", p.BMI)
	fmt.Fprintf(&b, "- Smoking Status: %s\n", p.SmokingStatus)
	fmt.Fprintf(&b, "- Marital Status: %s\n", married)
	fmt.Fprintf(&b, "- Work Type: %s\n", p.WorkType)
	fmt.Fprintf(&b, "- Residence: %s\n\n", p.ResidenceType)
	b.WriteString("Assessment Results:\n")
	fmt.Fprintf(&b, "- Risk Level: %s\n", r.Level)
	fmt.Fprintf(&b, "- Risk Score: %d%%\n", r.Percentage)
	fmt.Fprintf(&b, "- Key Risk Factors: %s\n\n", factors)
	b.WriteString(`Please provide:
1. A warm, empathetic opening message (2-3 sentences)
2. Personalized health recommendations (3-4 bullet points)
3. Lifestyle modifications specific to their risk factors (2-3 suggestions)
4. An encouraging closing message

Keep the tone supportive, professional, and hopeful. Avoid medical jargon. Focus on actionable advice.`)
	return b.String()
}

// Fallback builds the canned narrative used whenever the API is unavailable.
func Fallback(r Request) string {
	p := r.Profile
	var b strings.Builder

	switch r.Level {
	case stroke.LevelLow:
		b.WriteString("Great news! Your stroke risk assessment shows a low risk level. This is encouraging, but maintaining healthy habits is still important.")
	case stroke.LevelModerate:
		b.WriteString("Your assessment shows a moderate risk level. While this isn't cause for alarm, it's an opportunity to make positive changes for your health.")
	default:
		b.WriteString("Your assessment indicates an elevated risk level. Please don't be discouraged - understanding your risk is the first step toward better health.")
	}

	b.WriteString("\n\n**Personalized Recommendations:**\n")
	if p.Age >= 60 {
		b.WriteString("- Regular health check-ups are especially important at your age. Consider scheduling a comprehensive cardiovascular screening.\n")
	}
	if p.Hypertension {
		b.WriteString("- Monitor your blood pressure daily. Keep a log to share with your doctor.\n")
	}
	if p.HeartDisease {
		b.WriteString("- Stay consistent with any prescribed heart medications. Never skip doses without consulting your doctor.\n")
	}
	if p.AvgGlucoseLevel > 140 {
		b.WriteString("- Your glucose levels suggest monitoring is needed. Consider consulting an endocrinologist.\n")
	}
	if p.BMI > 30 {
		b.WriteString("- Gradual weight management through balanced nutrition can significantly reduce your risk.\n")
	}
	if p.SmokingStatus == stroke.SmokingCurrent || p.SmokingStatus == stroke.SmokingFormerly {
		b.WriteString("- If you smoke, quitting is the single most impactful change you can make. Resources are available to help.\n")
	}

	b.WriteString("\n**Lifestyle Tips:**\n")
	b.WriteString("- Aim for 30 minutes of moderate activity most days - even walking counts!\n")
	b.WriteString("- Reduce sodium intake and increase fruits, vegetables, and whole grains.\n")
	b.WriteString("- Manage stress through meditation, deep breathing, or activities you enjoy.\n")

	b.WriteString("\nRemember: Your health journey is unique. Small, consistent steps lead to meaningful improvements. You have the power to positively influence your health outcomes.")
	return b.String()
}
