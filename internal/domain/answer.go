package domain

import "strings"

// AnswerRequest is the input of the answer-synthesis model.
type AnswerRequest struct {
	Query         string
	InitialAnswer string
	Evidence      string
}

// Prompt renders the user message sent to the answer model.
func (r AnswerRequest) Prompt() string {
	var b strings.Builder
	b.WriteString("User Query: ")
	b.WriteString(r.Query)
	b.WriteString("\n\nInitial Answer: ")
	b.WriteString(r.InitialAnswer)
	b.WriteString("\n\n")
	b.WriteString(r.Evidence)
	return b.String()
}
