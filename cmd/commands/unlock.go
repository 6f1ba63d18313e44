package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/studio"
)

// NewUnlockCommand creates the unlock command
func NewUnlockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unlock <path>",
		Short: "Release the edit lock on an item",
		Long: `Release the edit lock another session holds on an item.

Examples:
  datasheet unlock /site/website/articles/summer-sale/index.xml`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := requireProject(cmd, args); err != nil {
				return err
			}
			return cli.ValidateItemPath(args[0])
		},
		RunE: runUnlock,
	}

	return cmd
}

func runUnlock(cmd *cobra.Command, args []string) error {
	path := args[0]

	s, err := openSession(nil)
	if err != nil {
		return err
	}

	meta, err := s.client.ItemMeta(cmd.Context(), path)
	if err != nil {
		if errors.Is(err, studio.ErrNotFound) {
			return fmt.Errorf("item not found: %s", path)
		}
		return fmt.Errorf("failed to read item: %w", err)
	}
	if meta.LockOwner == "" {
		cli.PrintInfo("%s is not locked", path)
		return nil
	}

	confirmed, err := cli.Confirm(fmt.Sprintf("Release the lock %s holds on %s?", meta.LockOwner, path), false)
	if err != nil {
		return err
	}
	if !confirmed {
		cli.PrintInfo("Unlock cancelled")
		return nil
	}

	if err := s.client.Unlock(cmd.Context(), path); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", path, err)
	}

	cli.PrintSuccess("Unlocked %s", path)
	return nil
}
