package cmd

import (
	"context"
	"deweydata/config"
	"deweydata/internal/dewey"
	"deweydata/pkg/utils"
	"fmt"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "deweydata",
	Short: "Dewey Data file downloader and Census TIGER/Line mirror",
	Long: `deweydata lists, samples and downloads the files of Dewey Data products,
filters and merges downloaded CSV files, mirrors Census TIGER/Line shapefiles
over FTP and exports downloaded folders to an S3-compatible bucket.

Results are printed to stdout as JSON, logs go to stderr.
Configuration is loaded from .env file, environment variables or the YAML
file named by DEWEY_CONFIG`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd))
	},
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(sliceCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(localCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(censusCmd)
	rootCmd.AddCommand(exportCmd)

	rootCmd.PersistentFlags().String("api-key", "", "Override the Dewey API key from config")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Int("timeout", 0, "Timeout in seconds for the whole operation (0: no deadline)")

	rootCmd.SetUsageTemplate(usageTemplate())
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if isVerbose(cmd) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getAPIKey(cmd *cobra.Command) string {
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey != "" {
		return apiKey
	}
	return cfg.APIKey
}

func newDeweyClient(cmd *cobra.Command) (*dewey.Client, error) {
	apiKey := getAPIKey(cmd)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is not set: use --api-key or DEWEY_API_KEY")
	}
	c := *cfg
	c.APIKey = apiKey
	return dewey.New(&c).WithLogger(slog.Default()), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetInt("timeout")
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	return utils.FprintJSON(cmd.OutOrStdout(), data)
}

// fail prints err as JSON on stdout and hands it back so the process exits
// non-zero.
func fail(cmd *cobra.Command, err error) error {
	utils.FprintError(cmd.OutOrStdout(), err, strings.TrimPrefix(cmd.CommandPath(), rootCmd.Name()+" "))
	return err
}

func usageTemplate() string {
	return `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Available Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
