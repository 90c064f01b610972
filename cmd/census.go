package cmd

import (
	"deweydata/internal/census"
	"github.com/spf13/cobra"
	"log/slog"
	"time"
)

var censusCmd = &cobra.Command{
	Use:   "census",
	Short: "Mirror and read Census TIGER/Line shapefiles",
	Long: `Download TIGER/Line shapefile datasets from the Census Bureau FTP server
and open the downloaded archives.

Files are stored under the local directory (CENSUS_LOCAL_DIR, default "census")
in the same layout as on the server.`,
}

var censusDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Mirror TIGER/Line dataset directories over FTP",
	Long: `Mirror one or more dataset directories of a TIGER/Line year, e.g. STATE,
COUNTY or PLACE under /geo/tiger/TIGER2023/.

Remote entries without a dot in their name are treated as directories and are
only descended into with --recursive.`,
	Example: `  # State and county boundaries of 2023
  deweydata census download --year 2023 --dataset STATE --dataset COUNTY

  # Resume an interrupted mirror
  deweydata census download --year 2023 --dataset PLACE --skip-existing`,
	Args: cobra.NoArgs,
	RunE: runCensusDownload,
}

func runCensusDownload(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetString("year")
	datasets, _ := cmd.Flags().GetStringSlice("dataset")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	recursive, _ := cmd.Flags().GetBool("recursive")
	ftpTimeout, _ := cmd.Flags().GetInt("ftp-timeout")

	mirror := census.NewMirror(cfg, year)
	mirror.LocalDir = getCensusDir(cmd)
	mirror.Logger = slog.Default()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := mirror.Download(ctx, datasets, census.MirrorOptions{
		SkipExisting: skipExisting,
		Recursive:    recursive,
		Timeout:      time.Duration(ftpTimeout) * time.Second,
	})
	if err != nil {
		return fail(cmd, err)
	}
	return printJSON(cmd, result)
}

var censusReadCmd = &cobra.Command{
	Use:   "read [dataset]",
	Short: "Open a downloaded shapefile archive",
	Long: `Open a zipped shapefile of a mirrored dataset and print its fields and the
attributes of its first features.

With --state (name, abbreviation or FIPS code) the archive whose name contains
_<fips>_ is opened, otherwise the first file of the dataset directory.`,
	Example: `  # California places
  deweydata census read PLACE --state CA

  # Nation-wide state boundaries
  deweydata census read STATE --limit 60`,
	Args: cobra.ExactArgs(1),
	RunE: runCensusRead,
}

type shapefileSummary struct {
	Path         string              `json:"path"`
	ShapeType    string              `json:"shape_type"`
	Fields       []string            `json:"fields"`
	FeatureCount int                 `json:"feature_count"`
	Attributes   []map[string]string `json:"attributes"`
}

func runCensusRead(cmd *cobra.Command, args []string) error {
	state, _ := cmd.Flags().GetString("state")
	limit, _ := cmd.Flags().GetInt("limit")

	ft, err := census.ReadShapefile(getCensusDir(cmd), args[0], state)
	if err != nil {
		return fail(cmd, err)
	}

	summary := shapefileSummary{
		Path:         ft.Path,
		ShapeType:    ft.ShapeType,
		Fields:       ft.Fields,
		FeatureCount: len(ft.Features),
		Attributes:   []map[string]string{},
	}
	for i, f := range ft.Features {
		if limit >= 0 && i >= limit {
			break
		}
		summary.Attributes = append(summary.Attributes, f.Attributes)
	}
	return printJSON(cmd, summary)
}

func getCensusDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("local-dir")
	if dir != "" {
		return dir
	}
	return cfg.CensusLocalDir
}

func init() {
	censusCmd.AddCommand(censusDownloadCmd)
	censusCmd.AddCommand(censusReadCmd)

	censusCmd.PersistentFlags().String("local-dir", "", "Override the local census directory from config")

	censusDownloadCmd.Flags().String("year", "", "TIGER/Line year, e.g. 2023")
	censusDownloadCmd.Flags().StringSlice("dataset", nil, "Dataset directory to mirror (repeatable)")
	censusDownloadCmd.Flags().Bool("skip-existing", false, "Keep files that already exist locally")
	censusDownloadCmd.Flags().Bool("recursive", false, "Descend into subdirectories")
	censusDownloadCmd.Flags().Int("ftp-timeout", 600, "FTP connection timeout in seconds")
	censusDownloadCmd.MarkFlagRequired("year")
	censusDownloadCmd.MarkFlagRequired("dataset")

	censusReadCmd.Flags().String("state", "", "State name, abbreviation or FIPS code")
	censusReadCmd.Flags().Int("limit", 10, "Number of feature attribute rows to print (-1: all)")
}
