package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pluqqy/pluqqy-datasheet/cmd/commands"
	"github.com/pluqqy/pluqqy-datasheet/internal/cli"
	"github.com/pluqqy/pluqqy-datasheet/pkg/files"
	"github.com/pluqqy/pluqqy-datasheet/pkg/tui"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	flagQuiet   bool
	flagNoColor bool
	flagYes     bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "datasheet",
	Short: "Terminal spreadsheet for bulk editing Studio content",
	Long: `Datasheet shows the items of a content type as a spreadsheet: one row per
item, one column per field. Edit cells, find and replace across a page, and
save every changed item in one go.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.SetGlobalFlags(flagQuiet, flagNoColor, flagYes)
		cli.SetConfigPath(flagConfig)

		if format, _ := cmd.Flags().GetString("output"); format != "" {
			if err := cli.ValidateOutputFormat(format); err != nil {
				return err
			}
		}

		ctx, err := cli.NewCommandContext()
		if err != nil {
			return err
		}
		settings, err := ctx.LoadSettings()
		if err != nil {
			return err
		}
		if _, err := os.Stat(files.DatasheetDir); os.IsNotExist(err) {
			// no project yet, so no log file to write to
			return nil
		}
		return cli.SetupLogging(settings.Logging)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if .datasheet directory exists
		ctx, err := cli.NewCommandContext()
		if err != nil {
			return err
		}
		if err := ctx.ValidateProject(); err != nil {
			return err
		}

		app, err := tui.NewApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		// Launch TUI
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("failed to start the terminal user interface: %w", err)
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new datasheet project",
	Long:  `Creates the .datasheet folder with default settings in the current directory`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine current directory: %w", err)
		}

		cli.PrintInfo("Initializing datasheet project in %s...", cwd)

		if err := files.InitProjectStructure(); err != nil {
			return fmt.Errorf("failed to initialize project structure: %w", err)
		}

		cli.PrintSuccess("Created %s", files.SettingsPath())
		cli.PrintInfo("Set studio.base_url and studio.site, then run 'datasheet' to open the sheet.")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of datasheet",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "datasheet version %s\n", version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("studio-url", "", "Studio base URL (overrides studio.base_url)")
	flags.String("site", "", "Site id (overrides studio.site)")
	flags.StringVar(&flagConfig, "config", "", "Settings file (default .datasheet/settings.yaml)")
	flags.StringP("output", "o", "text", "Output format: text, json or yaml")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	flags.BoolVar(&flagNoColor, "no-color", false, "Disable symbols and color in output")
	flags.BoolVarP(&flagYes, "yes", "y", false, "Answer yes to every confirmation")

	config := cli.Config()
	config.BindPFlag("studio.base_url", flags.Lookup("studio-url"))
	config.BindPFlag("studio.site", flags.Lookup("site"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(commands.NewTypesCommand())
	rootCmd.AddCommand(commands.NewRowsCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewReplaceCommand())
	rootCmd.AddCommand(commands.NewUnlockCommand())
	rootCmd.AddCommand(commands.NewDraftsCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
