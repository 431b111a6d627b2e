package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

// JobSearcher runs a listing search with the given backend options.
type JobSearcher interface {
	Search(ctx context.Context, opts job_search.Options, params models.SearchParameters) []models.JobPosting
}

// JobsHandler exposes the job search service without going through a turn.
type JobsHandler struct {
	Jobs    JobSearcher
	Options func() job_search.Options
}

func (h *JobsHandler) Register(g *echo.Group) {
	g.POST("/search", h.search)
}

type jobsResponse struct {
	Parameters models.SearchParameters `json:"parameters"`
	Postings   []models.JobPosting     `json:"postings"`
}

func (h *JobsHandler) search(c echo.Context) error {
	var raw models.RawSearchInput
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	params := models.NewSearchParameters(raw)
	if len(params.Keywords) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "keywords are required")
	}
	postings := h.Jobs.Search(c.Request().Context(), h.Options(), params)
	if postings == nil {
		postings = []models.JobPosting{}
	}
	return c.JSON(http.StatusOK, jobsResponse{Parameters: params, Postings: postings})
}
