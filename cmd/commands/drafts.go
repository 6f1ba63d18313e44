package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/drafts"
)

// DraftsResult represents the output structure for drafts list
type DraftsResult struct {
	Site   string           `json:"site" yaml:"site"`
	Drafts []drafts.Summary `json:"drafts" yaml:"drafts"`
	Count  int              `json:"count" yaml:"count"`
}

// NewDraftsCommand creates the drafts command and its subcommands
func NewDraftsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Manage unsaved edits kept between sessions",
		Long: `Edits still pending when the sheet is closed are kept as drafts and
restored the next time the same content type is opened.

Examples:
  # List drafts of the configured site
  datasheet drafts list

  # Drop the drafts of one content type
  datasheet drafts clear /page/article

  # Drop every draft of the site
  datasheet drafts clear`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, args); err != nil {
					return err
				}
			}
			return requireProject(cmd, args)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List drafts per content type",
		Args:  cobra.NoArgs,
		RunE:  runDraftsList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear [content-type]",
		Short: "Delete drafts of a content type, or all drafts of the site",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDraftsClear,
	})

	return cmd
}

func openDrafts() (*drafts.Store, string, error) {
	ctx, err := cli.NewCommandContext()
	if err != nil {
		return nil, "", err
	}
	settings, err := ctx.LoadSettings()
	if err != nil {
		return nil, "", err
	}
	if settings.Studio.Site == "" {
		return nil, "", fmt.Errorf("no site configured. Set studio.site in %s or pass --site", cli.SettingsPath())
	}
	store, err := ctx.OpenDrafts()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open drafts: %w", err)
	}
	if store == nil {
		return nil, "", fmt.Errorf("drafts are disabled (drafts.enabled is false)")
	}
	return store, settings.Studio.Site, nil
}

func runDraftsList(cmd *cobra.Command, args []string) error {
	store, site, err := openDrafts()
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(cmd.Context(), site)
	if err != nil {
		return err
	}
	result := DraftsResult{Site: site, Drafts: list, Count: len(list)}

	switch format := outputFormat(cmd); format {
	case "json", "yaml":
		return cli.OutputResults(cmd.OutOrStdout(), format, result)
	default:
		if len(list) == 0 {
			cli.PrintInfo("No drafts for site %s", site)
			return nil
		}
		table := cli.NewTableFormatter(cmd.OutOrStdout())
		table.Header("CONTENT TYPE", "ITEMS", "FIELDS", "UPDATED")
		for _, d := range list {
			table.Row(d.ContentType, fmt.Sprint(d.Items), fmt.Sprint(d.Fields), d.UpdatedAt.Format("2006-01-02 15:04"))
		}
		table.Flush()
		return nil
	}
}

func runDraftsClear(cmd *cobra.Command, args []string) error {
	contentType := ""
	if len(args) == 1 {
		contentType = args[0]
		if err := cli.ValidateContentType(contentType); err != nil {
			return err
		}
	}

	store, site, err := openDrafts()
	if err != nil {
		return err
	}
	defer store.Close()

	target := "all drafts of site " + site
	if contentType != "" {
		target = "drafts of " + contentType
	}
	confirmed, err := cli.Confirm("Delete "+target+"?", false)
	if err != nil {
		return err
	}
	if !confirmed {
		cli.PrintInfo("Clear cancelled")
		return nil
	}

	n, err := store.Clear(cmd.Context(), site, contentType)
	if err != nil {
		return err
	}
	cli.PrintSuccess("Deleted %d draft fields", n)
	return nil
}
