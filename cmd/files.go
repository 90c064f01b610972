package cmd

import (
	"deweydata/internal/dewey"
	"deweydata/internal/table"
	"github.com/spf13/cobra"
)

var metaCmd = &cobra.Command{
	Use:   "meta [product]",
	Short: "Show metadata of a product",
	Long: `Show the metadata of a Dewey product: number of files, total size in MB,
partition column and the range of partition keys.

The product is either a product ID or a full https:// file listing URL.`,
	Example: `  # Metadata by product ID
  deweydata meta prj_xxxx__fldr_yyyy

  # Metadata of a full listing URL
  deweydata meta https://app.deweydata.io/external-api/v3/products/xxxx/files`,
	Args: cobra.ExactArgs(1),
	RunE: runMeta,
}

func runMeta(cmd *cobra.Command, args []string) error {
	client, err := newDeweyClient(cmd)
	if err != nil {
		return fail(cmd, err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	meta, err := client.GetMetadata(ctx, args[0])
	if err != nil {
		return fail(cmd, err)
	}
	return printJSON(cmd, meta)
}

var filesCmd = &cobra.Command{
	Use:   "files [product]",
	Short: "List the files of a product",
	Long: `List the downloadable files of a Dewey product, page by page.

Date-partitioned products can be narrowed with --start-date and --end-date
(YYYY-MM-DD). With --output the listing is also saved as CSV, which the slice
and download commands read back.`,
	Example: `  # Whole listing as JSON
  deweydata files prj_xxxx

  # First two pages of August 2023, saved for later
  deweydata files prj_xxxx --end-page 2 --start-date 2023-08-01 --end-date 2023-08-31 --output files.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runFiles,
}

func runFiles(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	quiet, _ := cmd.Flags().GetBool("quiet")

	client, err := newDeweyClient(cmd)
	if err != nil {
		return fail(cmd, err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := listOptions(cmd)
	opts.PrintInfo = !quiet
	list, err := client.GetFileList(ctx, args[0], opts)
	if err != nil {
		return fail(cmd, err)
	}

	if output != "" {
		if err := dewey.ListingTable(list.Files).WriteFile(output); err != nil {
			return fail(cmd, err)
		}
	}
	return printJSON(cmd, list)
}

var sliceCmd = &cobra.Command{
	Use:   "slice [listing.csv]",
	Short: "Select files of a saved listing by partition date",
	Long: `Keep the rows of a listing saved by "files --output" whose partition key lies
between --start-date and --end-date, both inclusive. Without --end-date the
range is open-ended. Row order is preserved.`,
	Example: `  # One week of files
  deweydata slice files.csv --start-date 2023-08-14 --end-date 2023-08-21 --output week.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSlice,
}

func runSlice(cmd *cobra.Command, args []string) error {
	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	output, _ := cmd.Flags().GetString("output")

	files, err := readListing(args[0])
	if err != nil {
		return fail(cmd, err)
	}

	sliced := dewey.Slice(files, startDate, endDate)
	if output != "" {
		if err := dewey.ListingTable(sliced).WriteFile(output); err != nil {
			return fail(cmd, err)
		}
	}
	return printJSON(cmd, sliced)
}

func readListing(path string) ([]dewey.FileRecord, error) {
	t, err := table.ReadFile(path, 0)
	if err != nil {
		return nil, err
	}
	return dewey.RecordsFromTable(t)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().Int("start-page", 1, "First page to request")
	cmd.Flags().Int("end-page", 0, "Last page to request (0: all pages)")
	cmd.Flags().String("start-date", "", "First partition date, YYYY-MM-DD")
	cmd.Flags().String("end-date", "", "Last partition date, YYYY-MM-DD")
}

func listOptions(cmd *cobra.Command) dewey.ListOptions {
	startPage, _ := cmd.Flags().GetInt("start-page")
	endPage, _ := cmd.Flags().GetInt("end-page")
	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	return dewey.ListOptions{
		StartPage: startPage,
		EndPage:   endPage,
		StartDate: startDate,
		EndDate:   endDate,
	}
}

func init() {
	addListFlags(filesCmd)
	filesCmd.Flags().StringP("output", "o", "", "Also save the listing as CSV (.csv or .csv.gz)")
	filesCmd.Flags().BoolP("quiet", "q", false, "Log page progress at debug level only")

	sliceCmd.Flags().String("start-date", "", "First partition date, YYYY-MM-DD")
	sliceCmd.Flags().String("end-date", "", "Last partition date, YYYY-MM-DD (optional)")
	sliceCmd.Flags().StringP("output", "o", "", "Save the selected rows as CSV")
	sliceCmd.MarkFlagRequired("start-date")
}
