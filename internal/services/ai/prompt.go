package ai

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SystemPrompt frames the model as a study coach
const SystemPrompt = `You are an expert study coach and time management specialist. Analyze the student's tasks and upcoming exams to create personalized, actionable study recommendations.

Your recommendations should:
1. Prioritize tasks based on difficulty, due date, and relation to upcoming exams
2. Suggest optimal study session lengths (25-50 min) with breaks
3. Identify which topics need extra attention before exams
4. Provide specific daily schedules when possible
5. Include motivational tips

Be concise but specific. Focus on actionable advice.`

// BuildUserPrompt renders the request as the user message. Only pending tasks are listed.
func BuildUserPrompt(req *RecommendationRequest) string {
	today := req.Today
	if today == "" {
		today = time.Now().UTC().Format(isoDate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Today's date: %s\n", today)
	fmt.Fprintf(&b, "Available study time per day: %s hours\n\n", strconv.FormatFloat(req.HoursPerDay(), 'f', -1, 64))

	b.WriteString("PENDING TASKS:\n")
	var pending []string
	for _, t := range req.Tasks {
		if t.Status != "pending" {
			continue
		}
		pending = append(pending, fmt.Sprintf("- \"%s\" (%s) - Difficulty: %s, Priority: %s, Due: %s, Est. time: %d min",
			t.Title, t.Subject, t.Difficulty, t.Priority, t.DueDate, t.EstimatedMinutes))
	}
	if len(pending) == 0 {
		b.WriteString("No pending tasks")
	} else {
		b.WriteString(strings.Join(pending, "\n"))
	}

	b.WriteString("\n\nUPCOMING EXAMS:\n")
	if len(req.Exams) == 0 {
		b.WriteString("No upcoming exams")
	} else {
		exams := make([]string, 0, len(req.Exams))
		for _, e := range req.Exams {
			exams = append(exams, fmt.Sprintf("- \"%s\" (%s) - Difficulty: %s, Date: %s, Duration: %d min, Topics: %s",
				e.Title, e.Subject, e.Difficulty, e.Date, e.Duration, strings.Join(e.Topics, ", ")))
		}
		b.WriteString(strings.Join(exams, "\n"))
	}

	b.WriteString(`

Please provide:
1. Top 3 priority recommendations for today
2. A suggested study schedule for the next 3 days
3. Key areas that need extra focus before exams
4. One motivational tip`)

	return b.String()
}
