package extract

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/models"
	"github.com/mohammad-safakhou/careerdesk/utils"
)

// Readable runs readability over raw HTML and caps the text at maxChars runes.
func Readable(rawURL, html string, maxChars int) (models.Page, error) {
	sum := sha1.Sum([]byte(html))
	page := models.Page{URL: rawURL, HTMLHash: hex.EncodeToString(sum[:]), Status: 200}

	article, err := readability.FromReader(strings.NewReader(html), parseURL(rawURL))
	if err != nil {
		return page, err
	}
	page.Title = strings.TrimSpace(article.Title)
	page.Byline = strings.TrimSpace(article.Byline)
	page.SiteName = strings.TrimSpace(article.SiteName)
	page.Text = utils.Truncate(strings.TrimSpace(article.TextContent), maxChars)
	return page, nil
}

func parseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
