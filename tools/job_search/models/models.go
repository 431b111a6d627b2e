package models

import "context"

// JobIdentifier is an opaque listing token. It is only meaningful to the
// fetcher (and retrieval session) that produced it.
type JobIdentifier string

// JobPosting is the resolved detail record for one identifier. Every field is
// optional; an all-empty posting is a valid result.
type JobPosting struct {
	ID              JobIdentifier `json:"id"`
	Title           string        `json:"job_title"`
	Company         string        `json:"company_name"`
	Location        string        `json:"job_location"`
	DescriptionText string        `json:"job_desc_text"`
	ApplyURL        string        `json:"apply_link"`
	PostedAgo       string        `json:"time_posted"`
	ApplicantCount  string        `json:"num_applicants"`

	// Only filled by the authenticated backend.
	CompanyURL    string `json:"company_url,omitempty"`
	RemoteAllowed string `json:"work_remote_allowed,omitempty"`
}

// Empty returns the degraded posting for id.
func Empty(id JobIdentifier) JobPosting {
	return JobPosting{ID: id}
}

// IsEmpty reports whether no detail field was resolved.
func (p JobPosting) IsEmpty() bool {
	return p.Title == "" && p.Company == "" && p.Location == "" && p.DescriptionText == "" &&
		p.ApplyURL == "" && p.PostedAgo == "" && p.ApplicantCount == "" &&
		p.CompanyURL == "" && p.RemoteAllowed == ""
}

// ListingFetcher is one listing source access strategy. Neither method fails:
// identifier errors degrade to an empty slice, detail errors to empty fields.
type ListingFetcher interface {
	FetchIdentifiers(ctx context.Context, params SearchParameters) []JobIdentifier
	FetchDetail(ctx context.Context, id JobIdentifier) JobPosting
}

// BatchOpener is implemented by fetchers that share a connection context
// across one detail batch.
type BatchOpener interface {
	OpenBatch(ctx context.Context) (ListingFetcher, error)
}
