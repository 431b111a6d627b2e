package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

const (
	DefaultResultLimit    = 5
	DefaultRecencySeconds = 86400
	DefaultMaxDistance    = 25
)

// Vocabulary maps an accepted categorical value to the listing source code.
type Vocabulary map[string]string

var (
	EmploymentTypes = Vocabulary{
		"full-time":  "F",
		"contract":   "C",
		"part-time":  "P",
		"temporary":  "T",
		"internship": "I",
		"volunteer":  "V",
		"other":      "O",
	}
	ExperienceLevels = Vocabulary{
		"internship":       "1",
		"entry-level":      "2",
		"associate":        "3",
		"mid-senior-level": "4",
		"director":         "5",
		"executive":        "6",
	}
	JobTypes = Vocabulary{
		"onsite": "1",
		"remote": "2",
		"hybrid": "3",
	}
)

// Filter keeps the members of values found in v, normalised and de-duplicated.
// Unknown values are dropped without error.
func (v Vocabulary) Filter(values []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		key := normaliseToken(raw)
		if _, ok := v[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// Codes translates already-filtered values to source codes.
func (v Vocabulary) Codes(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if code, ok := v[value]; ok {
			out = append(out, code)
		}
	}
	return out
}

// normaliseToken lower-cases and hyphenates so "Entry Level" matches "entry-level".
func normaliseToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	return strings.ReplaceAll(s, "_", "-")
}

// SearchParameters is the validated job query. Build it with
// NewSearchParameters; treat it as read-only afterwards.
type SearchParameters struct {
	Keywords        []string `json:"keywords"`
	LocationName    string   `json:"location_name,omitempty"`
	EmploymentType  []string `json:"employment_type,omitempty"`
	JobType         []string `json:"job_type,omitempty"`
	ExperienceLevel []string `json:"experience,omitempty"`
	ResultLimit     int      `json:"limit"`
	RecencySeconds  int      `json:"listed_at"`
	MaxDistance     int      `json:"distance"`
}

// KeywordQuery joins the keyword terms the way the listing source expects.
func (p SearchParameters) KeywordQuery() string {
	return strings.Join(p.Keywords, ", ")
}

// RawSearchInput is the loosely typed query as produced by a model tool call
// or an API client.
type RawSearchInput struct {
	Keywords       StringList `json:"keywords" jsonschema:"description=Keywords describing the job role. If the user is targeting a company include the company name in keywords."`
	LocationName   string     `json:"location_name,omitempty" jsonschema:"description=Location to search within. Example: Kyiv City\\, Ukraine."`
	EmploymentType StringList `json:"employment_type,omitempty" jsonschema:"description=Types of employment to filter by: full-time\\, contract\\, part-time\\, temporary\\, internship\\, volunteer\\, other."`
	Limit          FlexInt    `json:"limit,omitempty" jsonschema:"description=Max number of jobs to retrieve (default is 5)."`
	JobType        StringList `json:"job_type,omitempty" jsonschema:"description=Filter based on job type: onsite\\, remote\\, hybrid."`
	Experience     StringList `json:"experience,omitempty" jsonschema:"description=Experience levels: internship\\, entry-level\\, associate\\, mid-senior-level\\, director\\, executive."`
	ListedAt       FlexInt    `json:"listed_at,omitempty" jsonschema:"description=Job postings created within the last N seconds (86400 = last 24 hours)."`
	Distance       FlexInt    `json:"distance,omitempty" jsonschema:"description=Max distance from location in miles. Default is 25."`
}

// NewSearchParameters validates raw and applies defaults. The result only
// holds vocabulary members in its categorical fields.
func NewSearchParameters(raw RawSearchInput) SearchParameters {
	var keywords []string
	for _, k := range raw.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return SearchParameters{
		Keywords:        keywords,
		LocationName:    strings.TrimSpace(raw.LocationName),
		EmploymentType:  EmploymentTypes.Filter(raw.EmploymentType),
		JobType:         JobTypes.Filter(raw.JobType),
		ExperienceLevel: ExperienceLevels.Filter(raw.Experience),
		ResultLimit:     positiveOr(int(raw.Limit), DefaultResultLimit),
		RecencySeconds:  positiveOr(int(raw.ListedAt), DefaultRecencySeconds),
		MaxDistance:     positiveOr(int(raw.Distance), DefaultMaxDistance),
	}
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// CoerceList turns a scalar-or-list value into a sequence of strings.
func CoerceList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return []string{t}
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}

// StringList decodes from either a JSON string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = CoerceList(v)
	return nil
}

func (StringList) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}

// FlexInt decodes from a JSON number or a numeric string. Unparsable strings
// decode to zero so the default applies.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*n = 0
			return nil
		}
		*n = FlexInt(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = FlexInt(int(f))
	return nil
}

func (FlexInt) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "integer"},
			{Type: "string"},
		},
	}
}
