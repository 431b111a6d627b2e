package models

// Page is the readable content extracted from one web page.
type Page struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Text     string `json:"text"`
	HTMLHash string `json:"html_hash"`
	Status   int    `json:"status"`
	RenderMS int    `json:"render_ms"`
}
