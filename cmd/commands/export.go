package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/export"
)

var (
	exportToFile   string
	exportCriteria criteriaFlags
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <content-type>",
		Short: "Export every item of a content type to xlsx, json or yaml",
		Long: `Export the cells of every item of a content type.

The format is taken from the file extension: .xlsx, .json or .yaml.

Examples:
  # Export all articles to a spreadsheet
  datasheet export /page/article --file articles.xlsx

  # Export articles edited this month as JSON
  datasheet export /page/article --file recent.json --filter edited:month`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProject(cmd, args); err != nil {
				return err
			}
			if err := cli.ValidateContentType(args[0]); err != nil {
				return err
			}
			_, err := export.FormatFromPath(exportToFile)
			return err
		},
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportToFile, "file", "f", "", "File to export to (.xlsx, .json or .yaml)")
	cmd.MarkFlagRequired("file")
	exportCriteria.register(cmd)

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	criteria, err := exportCriteria.criteria(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(nil)
	if err != nil {
		return err
	}
	s.controller.SetCriteria(criteria)

	table, err := export.Collect(cmd.Context(), s.controller)
	if err != nil {
		return fmt.Errorf("failed to collect %s: %w", criteria.ContentType, err)
	}

	if err := export.WriteFile(exportToFile, table); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	cli.PrintSuccess("Exported %d items of %s to %s", len(table.Rows), criteria.ContentType, exportToFile)
	return nil
}
