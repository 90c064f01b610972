package cmd

import (
	"deweydata/internal/dewey"
	"deweydata/internal/table"
	"fmt"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [product]",
	Short: "Download the files of a product",
	Long: `Download every file of a Dewey product into a local folder.

--skip-exists must be given explicitly: with --skip-exists=true files already
present in the destination are left untouched and not requested again, with
--skip-exists=false they are overwritten.

Instead of a product, --from-list downloads the rows of a listing saved by
"files --output" or "slice --output".`,
	Example: `  # Download a whole product, keeping files already on disk
  deweydata download prj_xxxx --dest data/ --skip-exists=true

  # Download one month, overwriting existing files
  deweydata download prj_xxxx --dest data/ --skip-exists=false --start-date 2023-08-01 --end-date 2023-08-31

  # Download a sliced listing with a file name prefix
  deweydata download --from-list week.csv --dest data/ --skip-exists=true --prefix week_`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("dest")
	prefix, _ := cmd.Flags().GetString("prefix")
	skipExists, _ := cmd.Flags().GetBool("skip-exists")
	fromList, _ := cmd.Flags().GetString("from-list")

	if (len(args) == 0) == (fromList == "") {
		return fail(cmd, fmt.Errorf("give either a product or --from-list"))
	}

	client, err := newDeweyClient(cmd)
	if err != nil {
		return fail(cmd, err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	opts := dewey.DownloadOptions{
		DestFolder:     dest,
		FilenamePrefix: prefix,
		SkipExists:     skipExists,
	}

	if fromList != "" {
		files, err := readListing(fromList)
		if err != nil {
			return fail(cmd, err)
		}
		result, err := client.DownloadFiles(ctx, files, opts)
		if err != nil {
			return fail(cmd, err)
		}
		return printJSON(cmd, result)
	}

	result, err := client.DownloadProduct(ctx, args[0], listOptions(cmd), opts)
	if err != nil {
		return fail(cmd, err)
	}
	return printJSON(cmd, result)
}

var sampleCmd = &cobra.Command{
	Use:   "sample [product|url]",
	Short: "Read the first rows of a file without saving it",
	Long: `Read a sample of a product's data into memory.

By default the argument is a product and the first file of its listing is
sampled. With --url the argument is a direct file link. Gzip-compressed CSV
and plain CSV are both accepted.`,
	Example: `  # First 100 rows of a product
  deweydata sample prj_xxxx

  # 10 rows of one file link, saved as CSV
  deweydata sample "https://files.example.com/part-0001.csv.gz" --url --nrows 10 --output sample.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSample,
}

func runSample(cmd *cobra.Command, args []string) error {
	nrows, _ := cmd.Flags().GetInt("nrows")
	isURL, _ := cmd.Flags().GetBool("url")
	output, _ := cmd.Flags().GetString("output")

	client, err := newDeweyClient(cmd)
	if err != nil {
		return fail(cmd, err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var t *table.Table
	if isURL {
		t, err = client.ReadSample(ctx, args[0], nrows)
	} else {
		t, err = client.ReadFirstSample(ctx, args[0], nrows)
	}
	if err != nil {
		return fail(cmd, err)
	}

	return writeTable(cmd, t, output)
}

// writeTable saves t when output is set and prints it as JSON either way.
func writeTable(cmd *cobra.Command, t *table.Table, output string) error {
	if output != "" {
		if err := t.WriteFile(output); err != nil {
			return fail(cmd, err)
		}
	}
	return printJSON(cmd, t)
}

func init() {
	addListFlags(downloadCmd)
	downloadCmd.Flags().StringP("dest", "d", "", "Local destination folder")
	downloadCmd.Flags().String("prefix", "", "Prefix added to every file name")
	downloadCmd.Flags().Bool("skip-exists", false, "Keep files that already exist in the destination (required)")
	downloadCmd.Flags().String("from-list", "", "Download the rows of a saved listing CSV instead of a product")
	downloadCmd.MarkFlagRequired("dest")
	downloadCmd.MarkFlagRequired("skip-exists")

	sampleCmd.Flags().IntP("nrows", "n", 100, "Number of rows to read")
	sampleCmd.Flags().Bool("url", false, "Treat the argument as a direct file link")
	sampleCmd.Flags().StringP("output", "o", "", "Save the sample as CSV")
}
