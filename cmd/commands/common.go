package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/search"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
	"github.com/pluqqy/pluqqy-datasheet/pkg/studio"
)

// requireProject is shared by commands that need an initialized project
func requireProject(cmd *cobra.Command, args []string) error {
	ctx, err := cli.NewCommandContext()
	if err != nil {
		return err
	}
	return ctx.ValidateProject()
}

// session is what a remote command needs: settings, a client and a controller.
type session struct {
	ctx        *cli.CommandContext
	settings   *models.Settings
	client     *studio.Client
	controller *sheet.Controller
}

func openSession(configure func(*sheet.Options)) (*session, error) {
	ctx, err := cli.NewCommandContext()
	if err != nil {
		return nil, err
	}
	settings, err := ctx.LoadSettings()
	if err != nil {
		return nil, err
	}
	client, err := ctx.StudioClient()
	if err != nil {
		return nil, err
	}

	opts := ctx.ControllerOptions()
	if configure != nil {
		configure(&opts)
	}
	return &session{
		ctx:        ctx,
		settings:   settings,
		client:     client,
		controller: sheet.NewController(client, opts),
	}, nil
}

// criteriaFlags are the filter flags shared by rows, export and replace
type criteriaFlags struct {
	keyword string
	filter  string
}

func (f *criteriaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.keyword, "keyword", "k", "", "Only include items matching the keyword")
	cmd.Flags().StringVar(&f.filter, "filter", "", `Search bar query, e.g. "edited:>7d" or "sale edited:2024-01-01..2024-01-31"`)
}

func (f *criteriaFlags) criteria(contentType string) (models.Criteria, error) {
	criteria, err := search.ParseCriteria(contentType, f.filter, time.Now())
	if err != nil {
		return models.Criteria{}, err
	}
	if kw := strings.TrimSpace(f.keyword); kw != "" {
		criteria.Keyword = strings.TrimSpace(kw + " " + criteria.Keyword)
	}
	return criteria, nil
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		return string(cli.FormatText)
	}
	return format
}
