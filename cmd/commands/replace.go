package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
	"github.com/pluqqy/pluqqy-datasheet/pkg/sheet"
)

// Change is one cell a replace rewrites
type Change struct {
	Path    string `json:"path" yaml:"path"`
	FieldID string `json:"field_id" yaml:"field_id"`
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
}

// ReplaceResult represents the output structure for the replace command
type ReplaceResult struct {
	ContentType string   `json:"content_type" yaml:"content_type"`
	Find        string   `json:"find" yaml:"find"`
	Replace     string   `json:"replace" yaml:"replace"`
	DryRun      bool     `json:"dry_run" yaml:"dry_run"`
	Changes     []Change `json:"changes" yaml:"changes"`
	Saved       int      `json:"saved" yaml:"saved"`
	Failed      []string `json:"failed,omitempty" yaml:"failed,omitempty"`
}

var (
	replaceFind     string
	replaceWith     string
	replaceDryRun   bool
	replaceCriteria criteriaFlags
)

// NewReplaceCommand creates the replace command
func NewReplaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <content-type>",
		Short: "Replace text in every item of a content type and save",
		Long: `Replace text in the text, rich text and reference list cells of every
item of a content type, then save the changed items.

Examples:
  # Preview a replacement
  datasheet replace /page/article --find "Old-banner" --replace "New-banner" --dry-run

  # Replace in articles edited this year and save
  datasheet replace /page/article --find 2023 --replace 2024 --filter edited:year`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProject(cmd, args); err != nil {
				return err
			}
			if replaceFind == "" {
				return fmt.Errorf("--find cannot be empty")
			}
			return cli.ValidateContentType(args[0])
		},
		RunE: runReplace,
	}

	cmd.Flags().StringVar(&replaceFind, "find", "", "Text to find")
	cmd.Flags().StringVar(&replaceWith, "replace", "", "Replacement text")
	cmd.Flags().BoolVar(&replaceDryRun, "dry-run", false, "Show the changes without saving")
	cmd.MarkFlagRequired("find")
	replaceCriteria.register(cmd)

	return cmd
}

func runReplace(cmd *cobra.Command, args []string) error {
	criteria, err := replaceCriteria.criteria(args[0])
	if err != nil {
		return err
	}

	format := outputFormat(cmd)
	s, err := openSession(func(opts *sheet.Options) {
		// nothing is on screen to hold
		opts.SaveHold = 0
		if format == string(cli.FormatText) {
			opts.OnProgress = printProgress
		}
	})
	if err != nil {
		return err
	}
	c := s.controller
	c.SetCriteria(criteria)

	changes, err := replaceAllPages(cmd.Context(), c, replaceFind, replaceWith)
	if err != nil {
		return err
	}

	result := ReplaceResult{
		ContentType: criteria.ContentType,
		Find:        replaceFind,
		Replace:     replaceWith,
		DryRun:      replaceDryRun,
		Changes:     changes,
	}

	if len(changes) > 0 && !replaceDryRun {
		confirmed, err := cli.Confirm(fmt.Sprintf("Save %d changed cells in %d items?", len(changes), c.State().Ledger.Len()), false)
		if err != nil {
			return err
		}
		if !confirmed {
			cli.PrintInfo("Replace cancelled")
			return nil
		}

		progress, saveErr := c.SaveAll(cmd.Context())
		result.Saved = progress.Completed
		var partial *sheet.SaveError
		if errors.As(saveErr, &partial) {
			result.Failed = partial.Failed
		} else if saveErr != nil {
			return fmt.Errorf("failed to save: %w", saveErr)
		}
	}

	switch format {
	case "json", "yaml":
		if err := cli.OutputResults(cmd.OutOrStdout(), format, result); err != nil {
			return err
		}
	default:
		outputReplaceText(cmd, result)
	}

	if len(result.Failed) > 0 {
		return &sheet.SaveError{Failed: result.Failed}
	}
	return nil
}

// replaceAllPages substitutes on every page in turn. The ledger keeps the edits
// of pages already visited, so a single save writes them all.
func replaceAllPages(ctx context.Context, c *sheet.Controller, find, replace string) ([]Change, error) {
	var changes []Change
	seen := make(map[string]bool)

	for page := 0; ; page++ {
		if page > 0 && !c.SetPage(page) {
			break
		}
		if err := c.Load(ctx); err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", page+1, err)
		}

		if err := c.ApplyFindReplace(models.FindReplace{
			FindText:    find,
			ReplaceText: replace,
			Action:      models.ActionReplace,
		}); err != nil {
			return nil, err
		}

		st := c.State()
		for _, committed := range st.Committed {
			edits := st.Ledger.Edits(committed.Path)
			for _, f := range st.Fields {
				fieldID := f.FieldID
				edit, ok := edits[fieldID]
				if !ok {
					continue
				}
				key := committed.Path + "\x00" + fieldID
				if seen[key] {
					continue
				}
				seen[key] = true
				changes = append(changes, Change{
					Path:    committed.Path,
					FieldID: fieldID,
					From:    committed.Value(fieldID),
					To:      edit.Value,
				})
			}
		}

		if page+1 >= st.Query.PageCount(st.Total) {
			break
		}
	}
	return changes, nil
}

func printProgress(p sheet.SaveProgress) {
	if p.Processing {
		cli.PrintInfo("Saving %d/%d", p.Completed+len(p.Failed), p.Total)
	}
}

func outputReplaceText(cmd *cobra.Command, result ReplaceResult) {
	if len(result.Changes) == 0 {
		cli.PrintInfo("No cells of %s contain %q", result.ContentType, result.Find)
		return
	}

	table := cli.NewTableFormatter(cmd.OutOrStdout())
	table.Header("PATH", "FIELD", "FROM", "TO")
	for _, ch := range result.Changes {
		table.Row(ch.Path, ch.FieldID,
			cli.TruncateString(cli.SingleLine(ch.From), 40),
			cli.TruncateString(cli.SingleLine(ch.To), 40))
	}
	table.Flush()

	switch {
	case result.DryRun:
		cli.PrintInfo("Dry run: %d cells would change", len(result.Changes))
	case len(result.Failed) > 0:
		cli.PrintWarning("Saved %d items, %d failed:", result.Saved, len(result.Failed))
		for _, path := range result.Failed {
			cli.PrintError("  %s", path)
		}
	case result.Saved > 0:
		cli.PrintSuccess("Saved %d items", result.Saved)
	}
}
