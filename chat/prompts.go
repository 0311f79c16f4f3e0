package chat

import "fmt"

// TruncationMarker is appended by clients to answers cut off by output
// limits. The continuation path strips it before extending the answer.
const TruncationMarker = "\n\n[Response was truncated. Ask me to continue for more details.]"

// ContinuationRequest is the fixed user message driving a continuation.
const ContinuationRequest = "Please continue your previous response."

// BuildSystemPrompt returns the system prompt for a regular question.
func BuildSystemPrompt(courseName string) string {
	return fmt.Sprintf(`You are a helpful study assistant for the course %q. `+
		`Answer the student's question using only the provided course material context. `+
		`If the context does not contain the answer, say so instead of guessing. `+
		`Be clear and concise.`, courseName)
}

// BuildContinuationPrompt returns the system prompt for continuing a
// previously truncated answer.
func BuildContinuationPrompt(courseName string) string {
	return fmt.Sprintf(`You are a helpful study assistant for the course %q. `+
		`Your previous response was cut off. Continue it from exactly where it stopped, `+
		`without repeating what was already said and without introductory phrases.`, courseName)
}

// QuestionWithContext annotates the current question with retrieved material.
func QuestionWithContext(question, context string) string {
	return fmt.Sprintf("Context from course materials:\n%s\n\nQuestion: %s", context, question)
}
