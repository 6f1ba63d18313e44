package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/export"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

// RowsResult represents the output structure for the rows command
type RowsResult struct {
	export.Document `yaml:",inline"`
	Page            int `json:"page" yaml:"page"`
	PageSize        int `json:"page_size" yaml:"page_size"`
	Pages           int `json:"pages" yaml:"pages"`
	Total           int `json:"total" yaml:"total"`
}

var (
	rowsCriteria criteriaFlags
	rowsPage     int
	rowsPageSize int
)

// NewRowsCommand creates the rows command
func NewRowsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows <content-type>",
		Short: "Show one page of items of a content type",
		Long: `Load one page of items of a content type and print its cells.

Examples:
  # First page of articles
  datasheet rows /page/article

  # Second page, 15 rows per page
  datasheet rows /page/article --page 2 --page-size 15

  # Articles edited in the last week that mention "sale"
  datasheet rows /page/article --keyword sale --filter "edited:>7d"

  # As YAML
  datasheet rows /page/article -o yaml`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProject(cmd, args); err != nil {
				return err
			}
			return cli.ValidateContentType(args[0])
		},
		RunE: runRows,
	}

	rowsCriteria.register(cmd)
	cmd.Flags().IntVarP(&rowsPage, "page", "p", 1, "Page to show (1-based)")
	cmd.Flags().IntVar(&rowsPageSize, "page-size", 0, "Rows per page (default from settings)")

	return cmd
}

func runRows(cmd *cobra.Command, args []string) error {
	criteria, err := rowsCriteria.criteria(args[0])
	if err != nil {
		return err
	}

	s, err := openSession(nil)
	if err != nil {
		return err
	}
	if rowsPageSize > 0 {
		if err := cli.ValidatePageSize(rowsPageSize, s.settings.Sheet.PageSizeOptions); err != nil {
			return err
		}
	}

	c := s.controller
	c.SetCriteria(criteria)
	c.SetPageSize(rowsPageSize)
	if err := c.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load %s: %w", criteria.ContentType, err)
	}
	if rowsPage > 1 {
		c.SetPage(rowsPage - 1)
		if err := c.Load(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load page %d: %w", rowsPage, err)
		}
	}

	st := c.State()
	table := export.Table{
		Site:        c.Site(),
		ContentType: criteria.ContentType,
		Fields:      st.Fields,
		Rows:        st.Working,
	}
	result := RowsResult{
		Document: table.Document(),
		Page:     st.Query.Page + 1,
		PageSize: st.Query.PageSize,
		Pages:    st.Query.PageCount(st.Total),
		Total:    st.Total,
	}

	switch format := outputFormat(cmd); format {
	case "json", "yaml":
		return cli.OutputResults(cmd.OutOrStdout(), format, result)
	default:
		return outputRowsText(cmd, table, st, s.settings.Sheet.ColumnWidth)
	}
}

func outputRowsText(cmd *cobra.Command, table export.Table, st sheet.State, width int) error {
	if len(table.Rows) == 0 {
		cli.PrintInfo("No items found for %s", table.ContentType)
		return nil
	}

	tf := cli.NewTableFormatter(cmd.OutOrStdout())
	tf.Header(export.Headers(table.Fields)...)
	for _, row := range table.Rows {
		cells := export.Cells(row, table.Fields)
		for i, cell := range cells {
			cells[i] = cli.TruncateString(cli.SingleLine(cell), width)
		}
		tf.Row(cells...)
	}
	tf.Flush()

	if !cli.Quiet() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nPage %d of %d (%d items)\n",
			st.Query.Page+1, st.Query.PageCount(st.Total), st.Total)
	}
	return nil
}
