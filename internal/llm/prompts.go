package llm

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// QuestionsSystemPrompt frames the interviewer persona.
	QuestionsSystemPrompt = "You are an experienced technical interviewer who writes concise, specific interview questions."
	// FeedbackSystemPrompt frames the recruiter persona.
	FeedbackSystemPrompt = "You are an experienced professional recruiter."

	QuestionsTemperature float32 = 0.7
	FeedbackTemperature  float32 = 0.5

	// Counts requested by BuildQuestionsPrompt.
	TechnicalQuestionCount  = 5
	BehavioralQuestionCount = 3
)

// FeedbackCategories are the fixed analysis axes of the feedback prompt.
var FeedbackCategories = []string{"clarity", "keywords", "formatting", "impact", "structure"}

// PromptInput is the résumé text and job metadata a prompt is built from.
type PromptInput struct {
	ResumeText  string
	JobTitle    string
	Seniority   string
	Description string
}

// BuildQuestionsPrompt asks for technical and behavioral interview questions.
func BuildQuestionsPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("Analyze the resume below for the position of ")
	b.WriteString(orUnspecified(in.JobTitle))
	b.WriteString(" (")
	b.WriteString(orUnspecified(in.Seniority))
	b.WriteString(").\n")
	fmt.Fprintf(&b, "Generate %d technical and %d behavioral interview questions based only on the resume and the job description (if any).\n",
		TechnicalQuestionCount, BehavioralQuestionCount)
	b.WriteString("The resume is:\n")
	b.WriteString(in.ResumeText)
	b.WriteString("\n")
	if desc := strings.TrimSpace(in.Description); desc != "" {
		b.WriteString("The job description is:\n")
		b.WriteString(in.Description)
		b.WriteString("\n")
	}
	b.WriteString("List the questions numerically, one per line.")
	return b.String()
}

// BuildFeedbackPrompt asks for constructive résumé feedback.
func BuildFeedbackPrompt(in PromptInput) string {
	var b strings.Builder
	b.WriteString("You are a recruiter specialized in resume evaluation. ")
	b.WriteString("Analyze the resume below and give constructive suggestions. ")
	b.WriteString("Do not rewrite the resume.\n\n")

	title := strings.TrimSpace(in.JobTitle)
	seniority := strings.TrimSpace(in.Seniority)
	if title == "" && seniority == "" {
		b.WriteString("No target role or seniority was given; evaluate the resume on its own merits.\n\n")
	} else {
		b.WriteString("Target role: ")
		b.WriteString(orUnspecified(title))
		b.WriteString(" (")
		b.WriteString(orUnspecified(seniority))
		b.WriteString(").\n\n")
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		b.WriteString("Job description:\n")
		b.WriteString(in.Description)
		b.WriteString("\n\n")
	}

	b.WriteString("Focus on the following points:\n")
	b.WriteString("- clarity and organization\n")
	b.WriteString("- use of keywords\n")
	b.WriteString("- formatting problems\n")
	b.WriteString("- impact and measurable results\n")
	b.WriteString("- structure of sections\n\n")
	b.WriteString("Resume:\n")
	b.WriteString(in.ResumeText)
	b.WriteString("\n\n")
	b.WriteString("Answer with a structured narrative: one short section per point above, each ending with specific improvement suggestions.")
	return b.String()
}

// listMarker matches one leading "1." / "2)" / "-" / "*" / "•" marker.
var listMarker = regexp.MustCompile(`^(?:\d+[.)]|[-*•])(?:\s+|$)`)

// ParseQuestions splits a numbered completion into bare question strings.
func ParseQuestions(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		q := strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" {
			continue
		}
		out = append(out, q)
	}
	return out
}

func orUnspecified(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "unspecified"
}
