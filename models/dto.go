package models

import "fmt"

// VideoRequest carries the query parameters of the submit routes.
type VideoRequest struct {
	URL  string
	Name string
}

// SummaryRequest pairs a free-form instruction with the text it applies to.
type SummaryRequest struct {
	Instruction string
	Text        string
}

// Prompt is the single user message sent to the chat model.
func (r SummaryRequest) Prompt() string {
	return fmt.Sprintf("%s:\n%s", r.Instruction, r.Text)
}
