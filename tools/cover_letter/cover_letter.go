package cover_letter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohammad-safakhou/careerdesk/utils"
)

const DefaultDir = "temp"

// Letter is the material a cover letter is written from.
type Letter struct {
	JobDetails    string `json:"job_details"`
	ResumeDetails string `json:"resume_details"`
}

// Generate bundles the inputs for the model to write the letter from.
func Generate(resumeDetails, jobDetails string) (string, error) {
	raw, err := json.Marshal(Letter{JobDetails: jobDetails, ResumeDetails: resumeDetails})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Store writes finished letters under Dir.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

// Save writes content to <dir>/<company>_cover_letter.md and returns the
// download message with the absolute path.
func (s *Store) Save(content, company string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("cover letter content is empty")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create letter dir: %w", err)
	}
	path := filepath.Join(s.Dir, utils.FileSafe(company)+"_cover_letter.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write cover letter: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "Here is the download link: " + abs, nil
}
