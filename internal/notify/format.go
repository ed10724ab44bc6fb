package notify

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorMatch is the sidebar color used for new-match messages.
const ColorMatch = "#36a64f"

// Message is an Event rendered for chat platforms.
type Message struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Field is a key-value pair displayed with a message.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Format renders an event for chat.
func Format(e Event) Message {
	return Message{
		Title: fmt.Sprintf("New candidate for saved search #%d", e.SearchID),
		Body:  fmt.Sprintf("Candidate %d now matches %s.", e.CandidateID, Describe(e.Skill, e.City, e.Project)),
		Color: ColorMatch,
		Fields: []Field{
			{Name: "Search", Value: strconv.FormatUint(uint64(e.SearchID), 10), Short: true},
			{Name: "Candidate", Value: strconv.FormatUint(uint64(e.CandidateID), 10), Short: true},
			{Name: "Recruiter", Value: strconv.FormatUint(uint64(e.RecruiterID), 10), Short: true},
		},
	}
}

// Text is the plain-text fallback for an event.
func Text(e Event) string {
	m := Format(e)
	return m.Title + ": " + m.Body
}

// Describe renders search criteria, e.g. `skill "python", city "austin"`.
func Describe(skill, city, project string) string {
	var parts []string
	if skill != "" {
		parts = append(parts, fmt.Sprintf("skill %q", skill))
	}
	if city != "" {
		parts = append(parts, fmt.Sprintf("city %q", city))
	}
	if project != "" {
		parts = append(parts, fmt.Sprintf("project %q", project))
	}
	if len(parts) == 0 {
		return "any candidate"
	}
	return strings.Join(parts, ", ")
}
