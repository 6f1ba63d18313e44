package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// TypesResult represents the output structure for the types command
type TypesResult struct {
	Site  string               `json:"site" yaml:"site"`
	Types []models.ContentType `json:"types" yaml:"types"`
	Count int                  `json:"count" yaml:"count"`
}

// NewTypesCommand creates the types command
func NewTypesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the content types of the site",
		Long: `List the content types the configured site defines.

Examples:
  # List content types
  datasheet types

  # List content types as JSON
  datasheet types -o json`,
		Args:    cobra.NoArgs,
		PreRunE: requireProject,
		RunE:    runTypes,
	}

	return cmd
}

func runTypes(cmd *cobra.Command, args []string) error {
	s, err := openSession(nil)
	if err != nil {
		return err
	}

	types, err := s.client.ContentTypes(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list content types: %w", err)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })

	result := TypesResult{Site: s.client.Site(), Types: types, Count: len(types)}

	switch format := outputFormat(cmd); format {
	case "json", "yaml":
		return cli.OutputResults(cmd.OutOrStdout(), format, result)
	default:
		if len(types) == 0 {
			cli.PrintInfo("No content types found in site %s", result.Site)
			return nil
		}
		table := cli.NewTableFormatter(cmd.OutOrStdout())
		table.Header("NAME", "LABEL")
		for _, t := range types {
			table.Row(t.Name, t.Label)
		}
		table.Flush()
		return nil
	}
}
