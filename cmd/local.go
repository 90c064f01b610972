package cmd

import (
	"deweydata/internal/localdata"
	"github.com/spf13/cobra"
	"log/slog"
)

var localCmd = &cobra.Command{
	Use:   "local [path]",
	Short: "Read a downloaded CSV or CSV.GZ file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nrows, _ := cmd.Flags().GetInt("nrows")

		t, err := localdata.ReadLocal(args[0], nrows)
		if err != nil {
			return fail(cmd, err)
		}
		return printJSON(cmd, t)
	},
}

var mergeCmd = &cobra.Command{
	Use:   "merge [folder]",
	Short: "Filter and merge the CSV files of a folder into one file",
	Long: `Read every .csv and .csv.gz file of a folder in name order, keep the rows
matching --filter, project them onto --columns and write everything to one
CSV file. An --output ending in .gz is gzip-compressed.

The filter is a boolean expression over column names; numeric values compare
as numbers. Files that cannot be read, filtered or projected are skipped and
listed in the result.`,
	Example: `  # Merge everything
  deweydata merge data/ --output all.csv

  # Busy places in two states, selected columns only
  deweydata merge data/ --output busy.csv.gz --filter 'RAW_VISIT_COUNTS > 100 && REGION in ["CA", "NY"]' --columns PLACEKEY,REGION,RAW_VISIT_COUNTS`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func runMerge(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	filter, _ := cmd.Flags().GetString("filter")
	columns, _ := cmd.Flags().GetStringSlice("columns")

	slog.Debug("merging folder", "folder", args[0], "output", output, "filter", filter, "columns", columns)

	result, err := localdata.FilterMerge(args[0], output, localdata.MergeOptions{
		Filter:  filter,
		Columns: columns,
		Logger:  slog.Default(),
	})
	if err != nil {
		return fail(cmd, err)
	}
	return printJSON(cmd, result)
}

func init() {
	localCmd.Flags().IntP("nrows", "n", 0, "Number of rows to read (0: all)")

	mergeCmd.Flags().StringP("output", "o", "", "Merged CSV file to write")
	mergeCmd.Flags().StringP("filter", "f", "", "Row filter expression")
	mergeCmd.Flags().StringSliceP("columns", "c", nil, "Columns to keep, in order")
	mergeCmd.MarkFlagRequired("output")
}
