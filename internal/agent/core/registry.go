package core

import (
	"fmt"
	"strings"
)

// HandlerDescriptor describes one routable handler.
type HandlerDescriptor struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Handler names of the default assistant.
const (
	ResumeAnalyzer       = "ResumeAnalyzer"
	CoverLetterGenerator = "CoverLetterGenerator"
	JobSearcher          = "JobSearcher"
	WebResearcher        = "WebResearcher"
	ChatBot              = "ChatBot"
)

const finishDescription = "Represents the end of the workflow."

// DefaultDescriptors lists the handlers of the career assistant in routing
// order.
func DefaultDescriptors() []HandlerDescriptor {
	return []HandlerDescriptor{
		{
			Name:         ResumeAnalyzer,
			Description:  "Responsible for analyzing resumes to extract key information.",
			Capabilities: []string{"ResumeExtractor"},
		},
		{
			Name:         CoverLetterGenerator,
			Description:  "Specializes in creating and optimizing cover letters tailored to job descriptions. Highlights the candidate's strengths and ensures the cover letter aligns with the requirements of the position.",
			Capabilities: []string{"ResumeExtractor", "generate_letter_for_specific_job", "save_cover_letter_for_specific_job"},
		},
		{
			Name:         JobSearcher,
			Description:  "Conducts job searches based on specified criteria such as industry, location, and job title.",
			Capabilities: []string{"JobSearchTool"},
		},
		{
			Name:         WebResearcher,
			Description:  "Conducts online research to gather information from the web.",
			Capabilities: []string{"google_search", "scrape_website"},
		},
		{
			Name:        ChatBot,
			Description: "Answers user queries or retrieves context from prior messages.",
		},
	}
}

// HandlerRegistry is the closed set of routable handlers. It is immutable
// after construction.
type HandlerRegistry struct {
	descriptors []HandlerDescriptor
	index       map[string]int
}

func NewHandlerRegistry(descriptors ...HandlerDescriptor) (*HandlerRegistry, error) {
	r := &HandlerRegistry{index: make(map[string]int, len(descriptors))}
	for _, d := range descriptors {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("handler name is required")
		}
		if name == Finish {
			return nil, fmt.Errorf("%q is reserved: %w", Finish, ErrDuplicateHandler)
		}
		if _, ok := r.index[name]; ok {
			return nil, fmt.Errorf("%s: %w", name, ErrDuplicateHandler)
		}
		d.Name = name
		d.Capabilities = append([]string(nil), d.Capabilities...)
		r.index[name] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// Options returns the handler names followed by Finish.
func (r *HandlerRegistry) Options() []string {
	out := make([]string, 0, len(r.descriptors)+1)
	for _, d := range r.descriptors {
		out = append(out, d.Name)
	}
	return append(out, Finish)
}

// Describe renders the numbered option list shown to the decider.
func (r *HandlerRegistry) Describe() string {
	parts := make([]string, 0, len(r.descriptors)+1)
	for i, d := range r.descriptors {
		parts = append(parts, fmt.Sprintf("**%d %s**\nRole: %s", i+1, d.Name, d.Description))
	}
	parts = append(parts, fmt.Sprintf("**%d %s**\nRole: %s", len(r.descriptors)+1, Finish, finishDescription))
	return strings.Join(parts, "\n\n")
}

// Valid reports whether decision names a registered handler or Finish.
func (r *HandlerRegistry) Valid(decision string) bool {
	if decision == Finish {
		return true
	}
	_, ok := r.index[decision]
	return ok
}

func (r *HandlerRegistry) Descriptor(name string) (HandlerDescriptor, bool) {
	i, ok := r.index[name]
	if !ok {
		return HandlerDescriptor{}, false
	}
	return r.descriptors[i], true
}

func (r *HandlerRegistry) Descriptors() []HandlerDescriptor {
	return append([]HandlerDescriptor(nil), r.descriptors...)
}
