package capability

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

// Tool names as exposed to the model.
const (
	ResumeExtractor         = "ResumeExtractor"
	GenerateLetter          = "generate_letter_for_specific_job"
	SaveCoverLetter         = "save_cover_letter_for_specific_job"
	JobSearchTool           = "JobSearchTool"
	GoogleSearch            = "google_search"
	ScrapeWebsite           = "scrape_website"
	defaultToolCardsVersion = "v1"
)

type ResumeExtractorArgs struct{}

type GenerateLetterArgs struct {
	ResumeDetails string `json:"resume_details" jsonschema:"description=The resume details extracted from the user's resume."`
	JobDetails    string `json:"job_details" jsonschema:"description=The job description or posting the letter targets."`
}

type SaveCoverLetterArgs struct {
	CoverLetterContent string `json:"cover_letter_content" jsonschema:"description=Cover letter text in markdown."`
	CompanyName        string `json:"company_name" jsonschema:"description=Company the letter is addressed to."`
}

type GoogleSearchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query."`
}

type ScrapeWebsiteArgs struct {
	URL string `json:"url" jsonschema:"description=Absolute URL of the page to read."`
}

// DefaultToolCards returns the built-in tools with schemas reflected from
// their argument types.
func DefaultToolCards() []ToolCard {
	return []ToolCard{
		{
			Name:        ResumeExtractor,
			Version:     defaultToolCardsVersion,
			Description: "Extract the content of uploaded resume from a PDF file.",
			InputSchema: SchemaFor(ResumeExtractorArgs{}),
			SideEffects: []string{"filesystem"},
		},
		{
			Name:        GenerateLetter,
			Version:     defaultToolCardsVersion,
			Description: "Generate a cover letter for a specific job from the resume details and job details.",
			InputSchema: SchemaFor(GenerateLetterArgs{}),
		},
		{
			Name:        SaveCoverLetter,
			Version:     defaultToolCardsVersion,
			Description: "Returns a download link for the generated cover letter. Params: cover_letter_content (the markdown text), company_name (the company the letter is for).",
			InputSchema: SchemaFor(SaveCoverLetterArgs{}),
			SideEffects: []string{"filesystem"},
		},
		{
			Name:        JobSearchTool,
			Version:     defaultToolCardsVersion,
			Description: "Search job listings on LinkedIn based on the given parameters and return details of each posting.",
			InputSchema: SchemaFor(models.RawSearchInput{}),
			SideEffects: []string{"network"},
		},
		{
			Name:        GoogleSearch,
			Version:     defaultToolCardsVersion,
			Description: "Search the web for a query and return the top results.",
			InputSchema: SchemaFor(GoogleSearchArgs{}),
			SideEffects: []string{"network"},
		},
		{
			Name:        ScrapeWebsite,
			Version:     defaultToolCardsVersion,
			Description: "Scrape the text content of a web page.",
			InputSchema: SchemaFor(ScrapeWebsiteArgs{}),
			SideEffects: []string{"network"},
		},
	}
}

// SchemaFor reflects v into a plain JSON schema document.
func SchemaFor(v any) map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return map[string]any{"type": "object"}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$id")
	return out
}
