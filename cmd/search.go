package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/telemetry"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"github.com/spf13/cobra"
)

func searchCMD() *cobra.Command {
	var raw struct {
		keywords, employment, jobType, experience []string
		location                                  string
		limit, listedAt, distance                 int
	}
	search := &cobra.Command{
		Use:   "search",
		Short: "Run one job search and print the postings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := runtime.SetupLogger(cfg, cmd.ErrOrStderr(), false)

			params := models.NewSearchParameters(models.RawSearchInput{
				Keywords:       raw.keywords,
				LocationName:   raw.location,
				EmploymentType: raw.employment,
				JobType:        raw.jobType,
				Experience:     raw.experience,
				Limit:          models.FlexInt(raw.limit),
				ListedAt:       models.FlexInt(raw.listedAt),
				Distance:       models.FlexInt(raw.distance),
			})
			if len(params.Keywords) == 0 {
				return errors.New("at least one --keywords value is required")
			}

			sink := telemetry.NewSink(telemetry.Options{Logger: logger.With("component", "telemetry")})
			defer sink.Close(cmd.Context())

			postings := job_search.NewService(sink).Search(cmd.Context(), cfg.ListingOptions(), params)
			logger.Debug("search finished", "backend", cfg.Listing.Backend, "postings", len(postings))
			if postings == nil {
				postings = []models.JobPosting{}
			}
			out, err := json.MarshalIndent(postings, "", "  ")
			if err != nil {
				return fmt.Errorf("encode postings: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	f := search.Flags()
	f.StringSliceVarP(&raw.keywords, "keywords", "k", nil, "keywords describing the role")
	f.StringVarP(&raw.location, "location", "l", "", "location name")
	f.StringSliceVar(&raw.employment, "employment-type", nil, "full-time, contract, part-time, temporary, internship, volunteer, other")
	f.StringSliceVar(&raw.jobType, "job-type", nil, "onsite, remote, hybrid")
	f.StringSliceVar(&raw.experience, "experience", nil, "internship, entry-level, associate, mid-senior-level, director, executive")
	f.IntVarP(&raw.limit, "limit", "n", models.DefaultResultLimit, "max postings")
	f.IntVar(&raw.listedAt, "listed-at", models.DefaultRecencySeconds, "posted within the last N seconds")
	f.IntVar(&raw.distance, "distance", models.DefaultMaxDistance, "max distance from location in miles")
	return search
}
